package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinylinks/internal/models"
	"tinylinks/internal/shortcode"
)

func newTestStore() *MemStore {
	return New(shortcode.New(shortcode.DefaultLength).Next)
}

func TestCreateAndFindUser(t *testing.T) {
	theStorage := newTestStore()
	ctx := context.Background()

	usr, err := theStorage.CreateUser(ctx, "user@example.com", "some hash")
	require.NoError(t, err)
	assert.Len(t, usr.ID, shortcode.DefaultLength)
	assert.Equal(t, "user@example.com", usr.Email)

	found, err := theStorage.FindUserByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, usr, found)

	byID, err := theStorage.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr, byID)

	_, err = theStorage.FindUserByEmail(ctx, "a@a.com")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestFindUserByEmailIsCaseSensitive(t *testing.T) {
	theStorage := newTestStore()
	ctx := context.Background()

	_, err := theStorage.CreateUser(ctx, "user@example.com", "some hash")
	require.NoError(t, err)

	_, err = theStorage.FindUserByEmail(ctx, "User@Example.com")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	theStorage := newTestStore()
	ctx := context.Background()

	_, err := theStorage.CreateUser(ctx, "user@example.com", "some hash")
	require.NoError(t, err)

	_, err = theStorage.CreateUser(ctx, "user@example.com", "another hash")
	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestInsertAndFindLink(t *testing.T) {
	theStorage := newTestStore()
	ctx := context.Background()

	link, err := theStorage.InsertLink(ctx, "https://example.com", "owner-1")
	require.NoError(t, err)
	assert.Len(t, link.ShortCode, shortcode.DefaultLength)

	found, err := theStorage.FindLinkByCode(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", found.LongURL)
	assert.Equal(t, "owner-1", found.OwnerID)

	_, err = theStorage.FindLinkByCode(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrLinkNotFound)
}

func TestInsertLinkRegeneratesOnCollision(t *testing.T) {
	keys := []string{"aaaaaa", "aaaaaa", "bbbbbb"}
	nextKey := func() string {
		key := keys[0]
		if len(keys) > 1 {
			keys = keys[1:]
		}
		return key
	}

	theStorage := New(nextKey)
	ctx := context.Background()

	first, err := theStorage.InsertLink(ctx, "https://example.com/1", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "aaaaaa", first.ShortCode)

	second, err := theStorage.InsertLink(ctx, "https://example.com/2", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "bbbbbb", second.ShortCode)

	kept, err := theStorage.FindLinkByCode(ctx, "aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/1", kept.LongURL)
}

func TestInsertLinkKeyExhaustion(t *testing.T) {
	theStorage := New(func() string { return "aaaaaa" })
	ctx := context.Background()

	_, err := theStorage.InsertLink(ctx, "https://example.com/1", "owner-1")
	require.NoError(t, err)

	_, err = theStorage.InsertLink(ctx, "https://example.com/2", "owner-1")
	assert.ErrorIs(t, err, ErrKeyGenerationExhausted)
}

func TestUpdateLinkPreservesOwner(t *testing.T) {
	theStorage := newTestStore()
	ctx := context.Background()

	link, err := theStorage.InsertLink(ctx, "https://example.com", "owner-1")
	require.NoError(t, err)

	updated, err := theStorage.UpdateLink(ctx, link.ShortCode, "https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", updated.LongURL)
	assert.Equal(t, "owner-1", updated.OwnerID)

	_, err = theStorage.UpdateLink(ctx, "missing", "https://example.org")
	assert.ErrorIs(t, err, models.ErrLinkNotFound)
}

func TestDeleteLink(t *testing.T) {
	theStorage := newTestStore()
	ctx := context.Background()

	link, err := theStorage.InsertLink(ctx, "https://example.com", "owner-1")
	require.NoError(t, err)

	require.NoError(t, theStorage.DeleteLink(ctx, link.ShortCode))

	_, err = theStorage.FindLinkByCode(ctx, link.ShortCode)
	assert.ErrorIs(t, err, models.ErrLinkNotFound)

	assert.ErrorIs(t, theStorage.DeleteLink(ctx, link.ShortCode), models.ErrLinkNotFound)
}

func TestLinksForOwnerFiltersWithoutMutating(t *testing.T) {
	theStorage := newTestStore()
	ctx := context.Background()

	mine, err := theStorage.InsertLink(ctx, "https://example.com/mine", "owner-1")
	require.NoError(t, err)
	_, err = theStorage.InsertLink(ctx, "https://example.com/theirs", "owner-2")
	require.NoError(t, err)

	filtered, err := theStorage.LinksForOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, mine, filtered[mine.ShortCode])

	// The filter must not touch the underlying store.
	all, err := theStorage.AllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	empty, err := theStorage.LinksForOwner(ctx, "owner-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCounters(t *testing.T) {
	theStorage := newTestStore()
	ctx := context.Background()

	_, err := theStorage.CreateUser(ctx, "user@example.com", "some hash")
	require.NoError(t, err)
	_, err = theStorage.InsertLink(ctx, "https://example.com/1", "owner-1")
	require.NoError(t, err)
	_, err = theStorage.InsertLink(ctx, "https://example.com/2", "owner-1")
	require.NoError(t, err)

	links, err := theStorage.GetNumberOfLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), links)

	users, err := theStorage.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), users)

	assert.NoError(t, theStorage.Ping(ctx))
	assert.NoError(t, theStorage.Close())
}
