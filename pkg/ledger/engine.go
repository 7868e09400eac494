package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	jww "github.com/spf13/jwalterweatherman"

	"github.com/vitaly-t/equrlity-sub000/pkg/builder"
	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
	"github.com/vitaly-t/equrlity-sub000/pkg/social"
)

// InitialGrant is the fixed credit balance every new user starts with. It is
// the only point where credits enter the system; every other operation moves
// credits between balances and link amounts.
const InitialGrant = 1000

// Store is the persistent storage the engine mirrors. Implementations must
// make each single call atomic; the engine orders all storage writes of an
// operation before any cache mutation, so a failed write leaves the cache
// untouched and the cache is always rebuildable from storage.
type Store interface {
	Insert(ctx context.Context, table *schema.Table, rec builder.Record) error
	Update(ctx context.Context, table *schema.Table, rec builder.Record) error
	Upsert(ctx context.Context, table *schema.Table, rec builder.Record) error
	Delete(ctx context.Context, table *schema.Table, key builder.Record) error
	SelectAll(ctx context.Context, table *schema.Table) ([]builder.Record, error)
}

type promotionKey struct {
	linkID string
	userID string
}

// Engine owns the ledger state: write-through caches of users, contents, and
// links keyed by id, plus the derived social graph. Only the engine's own
// operations mutate this state. A single mutex makes every mutating
// operation atomic with respect to cache-visible effects; reads take the
// read side.
type Engine struct {
	mu    sync.RWMutex
	store Store

	users      map[string]*User
	contents   map[string]*Content
	links      map[string]*Link
	promotions map[promotionKey]*Promotion
	graph      *social.Graph

	tUsers      *schema.Table
	tContents   *schema.Table
	tLinks      *schema.Table
	tPromotions *schema.Table
	tViews      *schema.Table
}

// New creates an Engine over the given schema and store. The caches start
// empty; call Load to populate them from storage.
func New(s *schema.Schema, store Store) *Engine {
	return &Engine{
		store:       store,
		users:       make(map[string]*User),
		contents:    make(map[string]*Content),
		links:       make(map[string]*Link),
		promotions:  make(map[promotionKey]*Promotion),
		graph:       social.NewGraph(),
		tUsers:      s.MustTable(schema.TableUsers),
		tContents:   s.MustTable(schema.TableContents),
		tLinks:      s.MustTable(schema.TableLinks),
		tPromotions: s.MustTable(schema.TablePromotions),
		tViews:      s.MustTable(schema.TableViews),
	}
}

// Load rebuilds every cache and the social graph from storage. Storage is
// the source of truth; a stale cache after a crash is repaired by a full
// reload.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	userRecs, err := e.store.SelectAll(ctx, e.tUsers)
	if err != nil {
		return err
	}
	contentRecs, err := e.store.SelectAll(ctx, e.tContents)
	if err != nil {
		return err
	}
	linkRecs, err := e.store.SelectAll(ctx, e.tLinks)
	if err != nil {
		return err
	}
	promoRecs, err := e.store.SelectAll(ctx, e.tPromotions)
	if err != nil {
		return err
	}

	e.users = make(map[string]*User, len(userRecs))
	for _, rec := range userRecs {
		u, err := userFromRecord(rec)
		if err != nil {
			return err
		}
		e.users[u.UserID] = u
	}
	e.contents = make(map[string]*Content, len(contentRecs))
	for _, rec := range contentRecs {
		c, err := contentFromRecord(rec)
		if err != nil {
			return err
		}
		e.contents[c.ContentID] = c
	}
	e.links = make(map[string]*Link, len(linkRecs))
	for _, rec := range linkRecs {
		l, err := linkFromRecord(rec)
		if err != nil {
			return err
		}
		e.links[l.LinkID] = l
	}
	e.promotions = make(map[promotionKey]*Promotion, len(promoRecs))
	for _, rec := range promoRecs {
		p, err := promotionFromRecord(rec)
		if err != nil {
			return err
		}
		e.promotions[promotionKey{p.LinkID, p.UserID}] = p
	}

	e.graph.Reset()
	for _, l := range e.links {
		if l.PrevLink == "" {
			continue
		}
		if prev, ok := e.links[l.PrevLink]; ok {
			e.graph.Connect(l.UserID, prev.UserID)
		}
	}

	jww.INFO.Printf("ledger: loaded %d users, %d contents, %d links", len(e.users), len(e.contents), len(e.links))
	return nil
}

// CreateUser creates a user with a unique user name derived from the email's
// local part (or the first unused anonymous_<n>), a fresh id, and the
// initial credit grant.
func (e *Engine) CreateUser(ctx context.Context, email string) (*User, []CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now().UTC()
	u := &User{
		UserID:   newID(),
		UserName: e.nextUserName(email),
		Email:    email,
		Credits:  InitialGrant,
		Created:  now,
		Updated:  now,
	}
	if err := e.store.Insert(ctx, e.tUsers, u.record()); err != nil {
		return nil, nil, err
	}
	e.users[u.UserID] = u

	jww.INFO.Printf("ledger: created user %s (%s)", u.UserName, u.UserID)
	out := *u
	return &out, []CacheUpdate{updated(schema.TableUsers, out)}, nil
}

// nextUserName picks the email's local part when it is free, otherwise the
// first unused suffixed candidate scanning from 0. Callers hold the lock.
func (e *Engine) nextUserName(email string) string {
	base := "anonymous"
	if at := strings.Index(email, "@"); at > 0 {
		local := email[:at]
		if !e.userNameTaken(local) {
			return local
		}
		base = local
	}
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !e.userNameTaken(candidate) {
			return candidate
		}
	}
}

func (e *Engine) userNameTaken(name string) bool {
	for _, u := range e.users {
		if u.UserName == name {
			return true
		}
	}
	return false
}

// AdjustBalance moves a user's balance by delta, rejecting any change that
// would leave it negative.
func (e *Engine) AdjustBalance(ctx context.Context, userID string, delta int) (*User, []CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.users[userID]
	if !ok {
		return nil, nil, notFound("user", userID)
	}
	if u.Credits+delta < 0 {
		return nil, nil, &InsufficientBalanceError{UserID: userID, Balance: u.Credits, Requested: -delta}
	}

	rec := builder.Record{"userId": u.UserID, "credits": u.Credits + delta}
	if err := e.store.Update(ctx, e.tUsers, rec); err != nil {
		return nil, nil, err
	}
	u.Credits += delta
	u.Updated = time.Now().UTC()

	out := *u
	return &out, []CacheUpdate{updated(schema.TableUsers, out)}, nil
}

// ConnectUsers registers a direct social edge. Symmetric and idempotent;
// connecting a user to themselves is a no-op.
func (e *Engine) ConnectUsers(a, b string) {
	e.graph.Connect(a, b)
}

// ReachableUserIDs returns every user transitively connected to userID
// through link chains, excluding userID itself.
func (e *Engine) ReachableUserIDs(userID string) []string {
	return e.graph.Reachable(userID)
}

// ConnectedUserIDs returns userID's direct connections.
func (e *Engine) ConnectedUserIDs(userID string) []string {
	return e.graph.Neighbors(userID)
}

// GetUser returns a copy of the cached user.
func (e *Engine) GetUser(userID string) (User, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u, ok := e.users[userID]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// GetContent returns a copy of the cached content.
func (e *Engine) GetContent(contentID string) (Content, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.contents[contentID]
	if !ok {
		return Content{}, false
	}
	return *c, true
}

// GetLink returns a copy of the cached link.
func (e *Engine) GetLink(linkID string) (Link, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.links[linkID]
	if !ok {
		return Link{}, false
	}
	return *l, true
}

// Links returns a copy of every cached link.
func (e *Engine) Links() []Link {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Link, 0, len(e.links))
	for _, l := range e.links {
		out = append(out, *l)
	}
	return out
}

// Users returns a copy of every cached user, ordered by user name.
func (e *Engine) Users() []User {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]User, 0, len(e.users))
	for _, u := range e.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out
}

// TotalCredits sums all user balances and outstanding link amounts. Aside
// from initial grants, the total is invariant under every ledger operation.
func (e *Engine) TotalCredits() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	total := 0
	for _, u := range e.users {
		total += u.Credits
	}
	for _, l := range e.links {
		total += l.Amount
	}
	return total
}
