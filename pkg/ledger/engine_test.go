package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaly-t/equrlity-sub000/pkg/schema"
)

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	s, err := schema.Load(schema.DataModel())
	require.NoError(t, err)
	store := newMemStore()
	return New(s, store), store
}

func mustUser(t *testing.T, e *Engine, email string) *User {
	t.Helper()
	u, _, err := e.CreateUser(context.Background(), email)
	require.NoError(t, err)
	return u
}

func mustShare(t *testing.T, e *Engine, userID string, amount int) *Link {
	t.Helper()
	l, _, err := e.ShareContent(context.Background(), userID,
		Content{ContentType: "url", Content: "https://example.org", Title: "a page"},
		"worth a look", amount)
	require.NoError(t, err)
	return l
}

func mustPromote(t *testing.T, e *Engine, userID, linkID string, amount int) *Link {
	t.Helper()
	l, _, err := e.PromoteLink(context.Background(), userID, linkID, "seconded", amount)
	require.NoError(t, err)
	return l
}

func TestCreateUser(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	u, updates, err := e.CreateUser(ctx, "alice@example.org")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, InitialGrant, u.Credits)
	assert.NotEmpty(t, u.UserID)
	require.Len(t, updates, 1)
	assert.Equal(t, schema.TableUsers, updates[0].Table)
	assert.Equal(t, 1, store.count(schema.TableUsers))
}

func TestCreateUserNameCollisions(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, _, err := e.CreateUser(ctx, "alice@example.org")
	require.NoError(t, err)
	second, _, err := e.CreateUser(ctx, "alice@other.org")
	require.NoError(t, err)
	third, _, err := e.CreateUser(ctx, "alice@third.org")
	require.NoError(t, err)

	assert.Equal(t, "alice", first.UserName)
	assert.Equal(t, "alice_0", second.UserName)
	assert.Equal(t, "alice_1", third.UserName)

	anon, _, err := e.CreateUser(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "anonymous_0", anon.UserName)
}

func TestAdjustBalance(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	u := mustUser(t, e, "bob@example.org")

	got, _, err := e.AdjustBalance(ctx, u.UserID, -300)
	require.NoError(t, err)
	assert.Equal(t, 700, got.Credits)

	_, _, err = e.AdjustBalance(ctx, u.UserID, -701)
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 700, insufficient.Balance)

	// The rejected debit must not have touched the balance.
	cached, ok := e.GetUser(u.UserID)
	require.True(t, ok)
	assert.Equal(t, 700, cached.Credits)

	_, _, err = e.AdjustBalance(ctx, "missing", 1)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestLoadRebuild(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	alice := mustUser(t, e, "alice@example.org")
	bob := mustUser(t, e, "bob@example.org")
	root := mustShare(t, e, alice.UserID, 50)
	child := mustPromote(t, e, bob.UserID, root.LinkID, 20)

	s, err := schema.Load(schema.DataModel())
	require.NoError(t, err)
	rebuilt := New(s, store)
	require.NoError(t, rebuilt.Load(ctx))

	gotAlice, ok := rebuilt.GetUser(alice.UserID)
	require.True(t, ok)
	assert.Equal(t, 950, gotAlice.Credits)
	gotBob, ok := rebuilt.GetUser(bob.UserID)
	require.True(t, ok)
	assert.Equal(t, 980, gotBob.Credits)

	gotChild, ok := rebuilt.GetLink(child.LinkID)
	require.True(t, ok)
	assert.Equal(t, root.LinkID, gotChild.PrevLink)
	assert.Equal(t, 20, gotChild.Amount)

	// The social graph is derived from the link forest.
	assert.Equal(t, []string{alice.UserID}, rebuilt.ConnectedUserIDs(bob.UserID))
	assert.Equal(t, e.TotalCredits(), rebuilt.TotalCredits())
}

func TestUsersSorted(t *testing.T) {
	e, _ := newTestEngine(t)
	mustUser(t, e, "carol@example.org")
	mustUser(t, e, "alice@example.org")
	mustUser(t, e, "bob@example.org")

	users := e.Users()
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].UserName)
	assert.Equal(t, "bob", users[1].UserName)
	assert.Equal(t, "carol", users[2].UserName)
}

func TestReachableUserIDs(t *testing.T) {
	e, _ := newTestEngine(t)
	a := mustUser(t, e, "a@example.org")
	b := mustUser(t, e, "b@example.org")
	c := mustUser(t, e, "c@example.org")
	d := mustUser(t, e, "d@example.org")

	root := mustShare(t, e, a.UserID, 30)
	mid := mustPromote(t, e, b.UserID, root.LinkID, 10)
	mustPromote(t, e, c.UserID, mid.LinkID, 5)

	reachable := e.ReachableUserIDs(c.UserID)
	assert.ElementsMatch(t, []string{a.UserID, b.UserID}, reachable)
	assert.Empty(t, e.ReachableUserIDs(d.UserID))
}
