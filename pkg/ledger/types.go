// Package ledger implements the link-chain credit ledger: an in-memory,
// write-through cache of users, contents, and links mirrored against
// persistent storage, with the amplification, redemption, and view-payout
// operations that keep credits conserved and the link forest intact.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/vitaly-t/equrlity-sub000/pkg/builder"
)

// User owns links and contents and carries the credit balance all
// amplification draws from.
type User struct {
	UserID   string
	UserName string
	Email    string
	Credits  int
	Groups   []string
	Created  time.Time
	Updated  time.Time
}

// Content is a shared item. A content may be the target of several
// independent root links.
type Content struct {
	ContentID   string
	UserID      string
	ContentType string
	Content     string
	Title       string
	Tags        []string
	Published   *time.Time
	Created     time.Time
	Updated     time.Time
}

// Link is a node in the amplification forest. PrevLink is the parent link id,
// empty for a root anchored directly to a content. Amount is the link's
// outstanding credit balance; a link whose amount reaches zero is redeemed
// and removed.
type Link struct {
	LinkID    string
	UserID    string
	ContentID string
	PrevLink  string
	Amount    int
	Tags      []string
	Comment   string
	Created   time.Time
	Updated   time.Time
}

// Root reports whether the link is anchored directly to its content.
func (l *Link) Root() bool {
	return l.PrevLink == ""
}

// Promotion records that a link was promoted to a user, and when it was
// surfaced to them. Delivered is set exactly once.
type Promotion struct {
	LinkID    string
	UserID    string
	Delivered *time.Time
	Created   time.Time
}

// View records one (user, link) observation. The primary key makes the pair
// unique; the engine itself never deduplicates views.
type View struct {
	UserID  string
	LinkID  string
	Created time.Time
}

func newID() string {
	return uuid.NewString()
}

func (u *User) record() builder.Record {
	return builder.Record{
		"userId":   u.UserID,
		"userName": u.UserName,
		"email":    nullable(u.Email),
		"credits":  u.Credits,
		"groups":   u.Groups,
		"created":  u.Created,
		"updated":  u.Updated,
	}
}

func (c *Content) record() builder.Record {
	return builder.Record{
		"contentId":   c.ContentID,
		"userId":      c.UserID,
		"contentType": c.ContentType,
		"content":     nullable(c.Content),
		"title":       nullable(c.Title),
		"tags":        c.Tags,
		"published":   timeValue(c.Published),
		"created":     c.Created,
		"updated":     c.Updated,
	}
}

func (l *Link) record() builder.Record {
	return builder.Record{
		"linkId":    l.LinkID,
		"userId":    l.UserID,
		"contentId": l.ContentID,
		"prevLink":  nullable(l.PrevLink),
		"amount":    l.Amount,
		"tags":      l.Tags,
		"comment":   nullable(l.Comment),
		"created":   l.Created,
		"updated":   l.Updated,
	}
}

func (p *Promotion) record() builder.Record {
	return builder.Record{
		"linkId":    p.LinkID,
		"userId":    p.UserID,
		"delivered": timeValue(p.Delivered),
		"created":   p.Created,
	}
}

func (v *View) record() builder.Record {
	return builder.Record{
		"userId":  v.UserID,
		"linkId":  v.LinkID,
		"created": v.Created,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func userFromRecord(rec builder.Record) (*User, error) {
	u := &User{
		UserID:   idField(rec, "userId"),
		UserName: stringField(rec, "userName"),
		Email:    stringField(rec, "email"),
		Credits:  intField(rec, "credits"),
		Groups:   stringsField(rec, "groups"),
		Created:  timeField(rec, "created"),
		Updated:  timeField(rec, "updated"),
	}
	if u.UserID == "" {
		return nil, errors.New("user record missing userId")
	}
	return u, nil
}

func contentFromRecord(rec builder.Record) (*Content, error) {
	c := &Content{
		ContentID:   idField(rec, "contentId"),
		UserID:      idField(rec, "userId"),
		ContentType: stringField(rec, "contentType"),
		Content:     stringField(rec, "content"),
		Title:       stringField(rec, "title"),
		Tags:        stringsField(rec, "tags"),
		Published:   timePtrField(rec, "published"),
		Created:     timeField(rec, "created"),
		Updated:     timeField(rec, "updated"),
	}
	if c.ContentID == "" {
		return nil, errors.New("content record missing contentId")
	}
	return c, nil
}

func linkFromRecord(rec builder.Record) (*Link, error) {
	l := &Link{
		LinkID:    idField(rec, "linkId"),
		UserID:    idField(rec, "userId"),
		ContentID: idField(rec, "contentId"),
		PrevLink:  idField(rec, "prevLink"),
		Amount:    intField(rec, "amount"),
		Tags:      stringsField(rec, "tags"),
		Comment:   stringField(rec, "comment"),
		Created:   timeField(rec, "created"),
		Updated:   timeField(rec, "updated"),
	}
	if l.LinkID == "" {
		return nil, errors.New("link record missing linkId")
	}
	return l, nil
}

func promotionFromRecord(rec builder.Record) (*Promotion, error) {
	p := &Promotion{
		LinkID:    idField(rec, "linkId"),
		UserID:    idField(rec, "userId"),
		Delivered: timePtrField(rec, "delivered"),
		Created:   timeField(rec, "created"),
	}
	if p.LinkID == "" || p.UserID == "" {
		return nil, errors.New("promotion record missing key")
	}
	return p, nil
}

// idField reads a uuid-valued column. The pgx value codec yields raw 16-byte
// arrays for uuid columns; in-memory stores yield plain strings.
func idField(rec builder.Record, name string) string {
	switch v := rec[name].(type) {
	case string:
		return v
	case [16]byte:
		return uuid.UUID(v).String()
	case []byte:
		if id, err := uuid.FromBytes(v); err == nil {
			return id.String()
		}
		return string(v)
	default:
		return ""
	}
}

func stringField(rec builder.Record, name string) string {
	if s, ok := rec[name].(string); ok {
		return s
	}
	return ""
}

func intField(rec builder.Record, name string) int {
	switch v := rec[name].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

func stringsField(rec builder.Record, name string) []string {
	switch v := rec[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func timeField(rec builder.Record, name string) time.Time {
	if t, ok := rec[name].(time.Time); ok {
		return t
	}
	return time.Time{}
}

func timePtrField(rec builder.Record, name string) *time.Time {
	if t, ok := rec[name].(time.Time); ok {
		return &t
	}
	return nil
}
