package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

func TestShareContent(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	alice := mustUser(t, e, "alice@example.org")

	l, updates, err := e.ShareContent(ctx, alice.UserID,
		Content{ContentType: "url", Content: "https://example.org", Tags: []string{"go"}},
		"worth a look", 100)
	require.NoError(t, err)

	assert.True(t, l.Root())
	assert.Equal(t, 100, l.Amount)
	assert.Equal(t, []string{"go"}, l.Tags)
	assert.Equal(t, "worth a look", l.Comment)

	gotAlice, _ := e.GetUser(alice.UserID)
	assert.Equal(t, 900, gotAlice.Credits)
	assert.Equal(t, 1, store.count(schema.TableContents))
	assert.Equal(t, 1, store.count(schema.TableLinks))
	assert.Len(t, updates, 3)

	assert.Equal(t, InitialGrant, e.TotalCredits())
}

func TestShareContentInsufficient(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	alice := mustUser(t, e, "alice@example.org")

	var insufficient *InsufficientBalanceError
	_, _, err := e.ShareContent(ctx, alice.UserID, Content{ContentType: "url"}, "", 1001)
	require.ErrorAs(t, err, &insufficient)

	_, _, err = e.ShareContent(ctx, alice.UserID, Content{ContentType: "url"}, "", -1)
	require.ErrorAs(t, err, &insufficient)

	var nf *NotFoundError
	_, _, err = e.ShareContent(ctx, "missing", Content{ContentType: "url"}, "", 1)
	require.ErrorAs(t, err, &nf)
}

func TestPromoteLink(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	alice := mustUser(t, e, "alice@example.org")
	bob := mustUser(t, e, "bob@example.org")
	root := mustShare(t, e, alice.UserID, 50)

	child, _, err := e.PromoteLink(ctx, bob.UserID, root.LinkID, "seconded", 30)
	require.NoError(t, err)

	assert.Equal(t, root.LinkID, child.PrevLink)
	assert.Equal(t, root.ContentID, child.ContentID)
	assert.False(t, child.Root())

	gotBob, _ := e.GetUser(bob.UserID)
	assert.Equal(t, 970, gotBob.Credits)

	// Promoting wires the promoter to the previous link's owner.
	assert.Equal(t, []string{alice.UserID}, e.ConnectedUserIDs(bob.UserID))

	depth, err := e.Depth(child.LinkID)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	assert.Equal(t, 2*InitialGrant, e.TotalCredits())
}

func TestInvestInLink(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	alice := mustUser(t, e, "alice@example.org")
	root := mustShare(t, e, alice.UserID, 40)

	_, err := e.InvestInLink(ctx, root.LinkID, 10)
	require.NoError(t, err)
	gotLink, _ := e.GetLink(root.LinkID)
	gotAlice, _ := e.GetUser(alice.UserID)
	assert.Equal(t, 50, gotLink.Amount)
	assert.Equal(t, 950, gotAlice.Credits)

	_, err = e.InvestInLink(ctx, root.LinkID, -20)
	require.NoError(t, err)
	gotLink, _ = e.GetLink(root.LinkID)
	gotAlice, _ = e.GetUser(alice.UserID)
	assert.Equal(t, 30, gotLink.Amount)
	assert.Equal(t, 970, gotAlice.Credits)

	var insufficient *InsufficientBalanceError
	_, err = e.InvestInLink(ctx, root.LinkID, -31)
	require.ErrorAs(t, err, &insufficient)

	_, err = e.InvestInLink(ctx, root.LinkID, 971)
	require.ErrorAs(t, err, &insufficient)

	assert.Equal(t, InitialGrant, e.TotalCredits())
}

func TestInvestToZeroRedeems(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	alice := mustUser(t, e, "alice@example.org")
	root := mustShare(t, e, alice.UserID, 40)

	updates, err := e.InvestInLink(ctx, root.LinkID, -40)
	require.NoError(t, err)

	_, ok := e.GetLink(root.LinkID)
	assert.False(t, ok, "fully withdrawn link should be redeemed")
	assert.Equal(t, 0, store.count(schema.TableLinks))

	gotAlice, _ := e.GetUser(alice.UserID)
	assert.Equal(t, InitialGrant, gotAlice.Credits)

	var sawRemoval bool
	for _, u := range updates {
		if u.Table == schema.TableLinks && u.Removed {
			sawRemoval = true
		}
	}
	assert.True(t, sawRemoval, "updates should report the link removal")
}

func TestRedeemLinkReparents(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	alice := mustUser(t, e, "alice@example.org")
	bob := mustUser(t, e, "bob@example.org")
	carol := mustUser(t, e, "carol@example.org")

	a := mustShare(t, e, alice.UserID, 50)
	b := mustPromote(t, e, bob.UserID, a.LinkID, 30)
	c := mustPromote(t, e, carol.UserID, b.LinkID, 10)

	_, err := e.RedeemLink(ctx, b.LinkID)
	require.NoError(t, err)

	_, ok := e.GetLink(b.LinkID)
	assert.False(t, ok)

	gotC, ok := e.GetLink(c.LinkID)
	require.True(t, ok)
	assert.Equal(t, a.LinkID, gotC.PrevLink, "orphaned child should re-parent to its grandparent")

	chain, err := e.Chain(c.LinkID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, c.LinkID, chain[0].LinkID)
	assert.Equal(t, a.LinkID, chain[1].LinkID)

	gotBob, _ := e.GetUser(bob.UserID)
	assert.Equal(t, InitialGrant, gotBob.Credits, "redemption should refund the outstanding amount")

	assert.Equal(t, 3*InitialGrant, e.TotalCredits())
}

func TestRedeemRootLeavesChildrenAsRoots(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	alice := mustUser(t, e, "alice@example.org")
	bob := mustUser(t, e, "bob@example.org")

	a := mustShare(t, e, alice.UserID, 50)
	b := mustPromote(t, e, bob.UserID, a.LinkID, 30)

	_, err := e.RedeemLink(ctx, a.LinkID)
	require.NoError(t, err)

	gotB, ok := e.GetLink(b.LinkID)
	require.True(t, ok)
	assert.True(t, gotB.Root(), "child of a redeemed root becomes a root")
}

func TestChainNotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	var nf *NotFoundError
	_, err := e.Chain("missing")
	require.ErrorAs(t, err, &nf)
	_, err = e.RedeemLink(context.Background(), "missing")
	require.ErrorAs(t, err, &nf)
	_, err = e.InvestInLink(context.Background(), "missing", 1)
	require.ErrorAs(t, err, &nf)
}

func TestShareContentStorageFailureLeavesCache(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	alice := mustUser(t, e, "alice@example.org")

	store.failOn = "update:users"
	_, _, err := e.ShareContent(ctx, alice.UserID, Content{ContentType: "url"}, "", 10)
	require.Error(t, err)

	gotAlice, _ := e.GetUser(alice.UserID)
	assert.Equal(t, InitialGrant, gotAlice.Credits, "failed operation must not touch the cache")
	assert.Empty(t, e.Links())
}
