package ledger

import (
	"context"
	"sort"
	"time"

	jww "github.com/spf13/jwalterweatherman"

	"github.com/vitaly-t/equrlity-sub000/pkg/builder"
	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

// ShareContent inserts a new content owned by userID and a root link
// carrying amount, debiting the sharer's balance. The comment becomes the
// link's description.
func (e *Engine) ShareContent(ctx context.Context, userID string, content Content, comment string, amount int) (*Link, []CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.users[userID]
	if !ok {
		return nil, nil, notFound("user", userID)
	}
	if amount < 0 || amount > u.Credits {
		return nil, nil, &InsufficientBalanceError{UserID: userID, Balance: u.Credits, Requested: amount}
	}

	now := time.Now().UTC()
	c := content
	c.ContentID = newID()
	c.UserID = userID
	c.Created = now
	c.Updated = now

	l := &Link{
		LinkID:    newID(),
		UserID:    userID,
		ContentID: c.ContentID,
		Amount:    amount,
		Tags:      c.Tags,
		Comment:   comment,
		Created:   now,
		Updated:   now,
	}

	if err := e.store.Insert(ctx, e.tContents, c.record()); err != nil {
		return nil, nil, err
	}
	if err := e.store.Insert(ctx, e.tLinks, l.record()); err != nil {
		return nil, nil, err
	}
	userRec := builder.Record{"userId": u.UserID, "credits": u.Credits - amount}
	if err := e.store.Update(ctx, e.tUsers, userRec); err != nil {
		return nil, nil, err
	}

	e.contents[c.ContentID] = &c
	e.links[l.LinkID] = l
	u.Credits -= amount
	u.Updated = now

	jww.INFO.Printf("ledger: user %s shared content %s as link %s (amount %d)", u.UserName, c.ContentID, l.LinkID, amount)
	out := *l
	updates := []CacheUpdate{
		updated(schema.TableContents, c),
		updated(schema.TableLinks, out),
		updated(schema.TableUsers, *u),
	}
	return &out, updates, nil
}

// PromoteLink creates a child link under an existing link, investing amount
// from the promoter's balance and connecting the promoter to the previous
// link's owner in the social graph.
func (e *Engine) PromoteLink(ctx context.Context, userID, linkID, comment string, amount int) (*Link, []CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	target, ok := e.links[linkID]
	if !ok {
		return nil, nil, notFound("link", linkID)
	}
	u, ok := e.users[userID]
	if !ok {
		return nil, nil, notFound("user", userID)
	}
	if amount < 0 || amount > u.Credits {
		return nil, nil, &InsufficientBalanceError{UserID: userID, Balance: u.Credits, Requested: amount}
	}

	now := time.Now().UTC()
	l := &Link{
		LinkID:    newID(),
		UserID:    userID,
		ContentID: target.ContentID,
		PrevLink:  target.LinkID,
		Amount:    amount,
		Tags:      target.Tags,
		Comment:   comment,
		Created:   now,
		Updated:   now,
	}

	if err := e.store.Insert(ctx, e.tLinks, l.record()); err != nil {
		return nil, nil, err
	}
	userRec := builder.Record{"userId": u.UserID, "credits": u.Credits - amount}
	if err := e.store.Update(ctx, e.tUsers, userRec); err != nil {
		return nil, nil, err
	}

	e.links[l.LinkID] = l
	u.Credits -= amount
	u.Updated = now
	e.graph.Connect(userID, target.UserID)

	jww.INFO.Printf("ledger: user %s promoted link %s as %s (amount %d)", u.UserName, linkID, l.LinkID, amount)
	out := *l
	updates := []CacheUpdate{
		updated(schema.TableLinks, out),
		updated(schema.TableUsers, *u),
	}
	return &out, updates, nil
}

// InvestInLink moves delta credits from the link owner's balance into the
// link's amount (or back out, for negative delta). An amount reaching
// exactly zero is not a representable steady state: the link is redeemed
// instead.
func (e *Engine) InvestInLink(ctx context.Context, linkID string, delta int) ([]CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.links[linkID]
	if !ok {
		return nil, notFound("link", linkID)
	}
	u, ok := e.users[l.UserID]
	if !ok {
		return nil, notFound("user", l.UserID)
	}

	amount := l.Amount + delta
	if amount < 0 {
		return nil, &InsufficientBalanceError{UserID: l.UserID, Balance: l.Amount, Requested: -delta}
	}
	if delta > 0 && u.Credits < delta {
		return nil, &InsufficientBalanceError{UserID: l.UserID, Balance: u.Credits, Requested: delta}
	}

	if amount == 0 {
		// Full withdrawal: redemption refunds the link's remaining amount.
		return e.redeemLocked(ctx, l, l.Amount)
	}

	userRec := builder.Record{"userId": u.UserID, "credits": u.Credits - delta}
	if err := e.store.Update(ctx, e.tUsers, userRec); err != nil {
		return nil, err
	}
	linkRec := builder.Record{"linkId": l.LinkID, "amount": amount}
	if err := e.store.Update(ctx, e.tLinks, linkRec); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u.Credits -= delta
	u.Updated = now
	l.Amount = amount
	l.Updated = now

	jww.DEBUG.Printf("ledger: link %s amount adjusted by %d to %d", linkID, delta, amount)
	return []CacheUpdate{
		updated(schema.TableLinks, *l),
		updated(schema.TableUsers, *u),
	}, nil
}

// RedeemLink removes a link from the forest: its children are re-parented to
// its own parent, the row is deleted, and any remaining amount is refunded
// to the owner.
func (e *Engine) RedeemLink(ctx context.Context, linkID string) ([]CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.links[linkID]
	if !ok {
		return nil, notFound("link", linkID)
	}
	return e.redeemLocked(ctx, l, l.Amount)
}

// redeemLocked splices the link out of the forest as a single unit of cache
// changes, refunding the given amount to the owner. All storage writes
// complete before any cache mutation. Callers hold the write lock.
func (e *Engine) redeemLocked(ctx context.Context, l *Link, refund int) ([]CacheUpdate, error) {
	children, err := e.redeemStoreLocked(ctx, l, refund)
	if err != nil {
		return nil, err
	}
	return e.redeemCacheLocked(l, children, refund), nil
}

// redeemStoreLocked issues the storage writes of a redemption: child
// re-parenting, the row delete, and the owner refund. It returns the children
// so the cache phase mutates the same set. Callers hold the write lock and
// must not have mutated the cache yet.
func (e *Engine) redeemStoreLocked(ctx context.Context, l *Link, refund int) ([]*Link, error) {
	children := e.childrenOf(l.LinkID)

	for _, child := range children {
		rec := builder.Record{"linkId": child.LinkID, "prevLink": nullable(l.PrevLink)}
		if err := e.store.Update(ctx, e.tLinks, rec); err != nil {
			return nil, err
		}
	}
	if err := e.store.Delete(ctx, e.tLinks, builder.Record{"linkId": l.LinkID}); err != nil {
		return nil, err
	}
	if owner := e.users[l.UserID]; refund > 0 && owner != nil {
		rec := builder.Record{"userId": owner.UserID, "credits": owner.Credits + refund}
		if err := e.store.Update(ctx, e.tUsers, rec); err != nil {
			return nil, err
		}
	}
	return children, nil
}

// redeemCacheLocked applies the cache mutations matching redeemStoreLocked.
// Callers hold the write lock.
func (e *Engine) redeemCacheLocked(l *Link, children []*Link, refund int) []CacheUpdate {
	now := time.Now().UTC()
	updates := make([]CacheUpdate, 0, len(children)+2)
	for _, child := range children {
		child.PrevLink = l.PrevLink
		child.Updated = now
		updates = append(updates, updated(schema.TableLinks, *child))
	}
	delete(e.links, l.LinkID)
	updates = append(updates, removed(schema.TableLinks, *l))
	if owner := e.users[l.UserID]; refund > 0 && owner != nil {
		owner.Credits += refund
		owner.Updated = now
		updates = append(updates, updated(schema.TableUsers, *owner))
	}

	jww.INFO.Printf("ledger: redeemed link %s (refund %d, %d children re-parented)", l.LinkID, refund, len(children))
	return updates
}

// childrenOf returns the links whose parent is linkID, ordered by id so
// storage writes are deterministic. Callers hold the lock.
func (e *Engine) childrenOf(linkID string) []*Link {
	var children []*Link
	for _, l := range e.links {
		if l.PrevLink == linkID {
			children = append(children, l)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].LinkID < children[j].LinkID })
	return children
}

// Chain returns the ancestor chain from linkID to its root, nearest-first.
func (e *Engine) Chain(linkID string) ([]Link, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	l, ok := e.links[linkID]
	if !ok {
		return nil, notFound("link", linkID)
	}
	var chain []Link
	for _, link := range e.chainLocked(l) {
		chain = append(chain, *link)
	}
	return chain, nil
}

// chainLocked walks prevLink pointers up to the root. New links are only
// ever created as fresh leaves, so the walk always terminates. Callers hold
// the lock.
func (e *Engine) chainLocked(l *Link) []*Link {
	chain := []*Link{l}
	for cur := l; cur.PrevLink != ""; {
		prev, ok := e.links[cur.PrevLink]
		if !ok {
			break
		}
		chain = append(chain, prev)
		cur = prev
	}
	return chain
}

// Depth returns the number of parent hops from linkID to its root; roots
// have depth 0.
func (e *Engine) Depth(linkID string) (int, error) {
	chain, err := e.Chain(linkID)
	if err != nil {
		return 0, err
	}
	return len(chain) - 1, nil
}
