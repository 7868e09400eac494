package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/vitaly-t/equrlity-sub000/pkg/builder"
	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

// PayForView records a view of a link and runs the payout cascade: the
// viewer takes one unit from the viewed link's balance, and the remaining
// pool pays one unit per ancestor walking toward the root until the pool or
// the chain is exhausted. A link whose balance reaches exactly zero is
// redeemed. Viewing a chain that contains one of the viewer's own links is
// free and unpaid: nothing is recorded and no balance moves.
//
// The engine does not deduplicate views; the (viewer, link) primary key
// rejects a second view of the same link at the storage layer.
func (e *Engine) PayForView(ctx context.Context, viewerID, linkID string) ([]CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	viewer, ok := e.users[viewerID]
	if !ok {
		return nil, notFound("user", viewerID)
	}
	l, ok := e.links[linkID]
	if !ok {
		return nil, notFound("link", linkID)
	}

	chain := e.chainLocked(l)
	for _, cl := range chain {
		if cl.UserID == viewerID {
			jww.DEBUG.Printf("ledger: self-view of link %s by %s, no payout", linkID, viewerID)
			return nil, nil
		}
	}

	now := time.Now().UTC()
	v := &View{UserID: viewerID, LinkID: linkID, Created: now}
	if err := e.store.Insert(ctx, e.tViews, v.record()); err != nil {
		return nil, err
	}

	if l.Amount <= 0 {
		// Nothing to draw from; the observation is still recorded.
		return []CacheUpdate{updated(schema.TableViews, *v)}, nil
	}

	pool := l.Amount - 1
	paid := chain[1 : 1+min(pool, len(chain)-1)]
	pool -= len(paid)

	viewerRec := builder.Record{"userId": viewer.UserID, "credits": viewer.Credits + 1}
	if err := e.store.Update(ctx, e.tUsers, viewerRec); err != nil {
		return nil, err
	}
	for _, ancestor := range paid {
		rec := builder.Record{"linkId": ancestor.LinkID, "amount": ancestor.Amount + 1}
		if err := e.store.Update(ctx, e.tLinks, rec); err != nil {
			return nil, err
		}
	}
	var orphans []*Link
	if pool > 0 {
		rec := builder.Record{"linkId": l.LinkID, "amount": pool}
		if err := e.store.Update(ctx, e.tLinks, rec); err != nil {
			return nil, err
		}
	} else {
		// A drained link is redeemed; its storage writes belong to this
		// operation's write phase, before any cache mutation.
		var err error
		orphans, err = e.redeemStoreLocked(ctx, l, 0)
		if err != nil {
			return nil, err
		}
	}

	updates := []CacheUpdate{updated(schema.TableViews, *v)}
	viewer.Credits++
	viewer.Updated = now
	updates = append(updates, updated(schema.TableUsers, *viewer))
	for _, ancestor := range paid {
		ancestor.Amount++
		ancestor.Updated = now
		updates = append(updates, updated(schema.TableLinks, *ancestor))
	}

	if pool > 0 {
		l.Amount = pool
		l.Updated = now
		updates = append(updates, updated(schema.TableLinks, *l))
	} else {
		l.Amount = 0
		updates = append(updates, e.redeemCacheLocked(l, orphans, 0)...)
	}

	jww.INFO.Printf("ledger: user %s viewed link %s, %d ancestors paid", viewer.UserName, linkID, len(paid))
	return updates, nil
}

// RecordPromotions registers a link promotion to each given user. Existing
// promotions are upserted unchanged, so repeated promotion is idempotent and
// preserves delivery state.
func (e *Engine) RecordPromotions(ctx context.Context, linkID string, userIDs []string) ([]CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.links[linkID]; !ok {
		return nil, notFound("link", linkID)
	}

	now := time.Now().UTC()
	promos := make([]*Promotion, 0, len(userIDs))
	for _, userID := range userIDs {
		if _, ok := e.users[userID]; !ok {
			return nil, notFound("user", userID)
		}
		p := &Promotion{LinkID: linkID, UserID: userID, Created: now}
		if existing, ok := e.promotions[promotionKey{linkID, userID}]; ok {
			p.Delivered = existing.Delivered
			p.Created = existing.Created
		}
		promos = append(promos, p)
	}

	for _, p := range promos {
		if err := e.store.Upsert(ctx, e.tPromotions, p.record()); err != nil {
			return nil, err
		}
	}

	updates := make([]CacheUpdate, 0, len(promos))
	for _, p := range promos {
		e.promotions[promotionKey{p.LinkID, p.UserID}] = p
		updates = append(updates, updated(schema.TablePromotions, *p))
	}
	return updates, nil
}

// MarkDelivered stamps a promotion as surfaced to its user. The stamp is set
// exactly once; a second call is an error.
func (e *Engine) MarkDelivered(ctx context.Context, linkID, userID string) ([]CacheUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.promotions[promotionKey{linkID, userID}]
	if !ok {
		return nil, notFound("promotion", linkID+"/"+userID)
	}
	if p.Delivered != nil {
		return nil, errors.Errorf("ledger: promotion %s/%s already delivered", linkID, userID)
	}

	now := time.Now().UTC()
	rec := builder.Record{"linkId": linkID, "userId": userID, "delivered": now}
	if err := e.store.Update(ctx, e.tPromotions, rec); err != nil {
		return nil, err
	}
	p.Delivered = &now
	return []CacheUpdate{updated(schema.TablePromotions, *p)}, nil
}
