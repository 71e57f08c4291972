package playlist

import (
	"context"
	"fmt"
	"testing"
	"time"

	"listen80/core/apperr"
	"listen80/db/dbtest"
	"listen80/metrics"
	"listen80/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivateSummaryVisibleOnlyToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.User(t, f.gdb, "alice", false)
	dbtest.User(t, f.gdb, "bob", false)
	p := dbtest.Playlist(t, f.gdb, "alice", "secret mix", false, 0)

	composer := NewPointQueryComposer()
	for _, viewer := range []string{"bob", model.AnonymousAccount, "nobody"} {
		sum, err := composer.Summarize(ctx, f.store, p, viewer)
		require.NoError(t, err)
		assert.Nil(t, sum, "viewer %s", viewer)
	}

	sum, err := composer.Summarize(ctx, f.store, p, "alice")
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, "alice name", sum.UserDisplayName)
	assert.False(t, sum.IsPublic)

	_, err = f.svc.Detail(ctx, p.ULID, "bob")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBannedOwnerHiddenEverywhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.User(t, f.gdb, "mallory", true)
	dbtest.User(t, f.gdb, "bob", false)
	p := dbtest.Playlist(t, f.gdb, "mallory", "spam", true, 0)
	dbtest.Attach(t, f.gdb, p, f.songs[0])
	dbtest.Favorite(t, f.gdb, p, "bob")

	recent, err := f.svc.RecentPlaylists(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, recent)

	popular, err := f.svc.PopularPlaylists(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, popular)

	favorited, err := f.svc.FavoritedByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, favorited)

	created, err := f.svc.CreatedByUser(ctx, "mallory")
	require.NoError(t, err)
	assert.Empty(t, created)

	for _, viewer := range []string{"bob", "mallory", model.AnonymousAccount} {
		_, err = f.svc.Detail(ctx, p.ULID, viewer)
		assert.True(t, apperr.Is(err, apperr.KindNotFound), "viewer %s", viewer)
	}
}

func TestRecentReturnsNewestHundred(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.User(t, f.gdb, "alice", false)
	for i := 0; i < 150; i++ {
		dbtest.Playlist(t, f.gdb, "alice", "mix", true, time.Duration(i)*time.Second)
	}
	hidden := dbtest.Playlist(t, f.gdb, "alice", "draft", false, time.Hour)

	recent, err := f.svc.RecentPlaylists(ctx, model.AnonymousAccount)
	require.NoError(t, err)
	require.Len(t, recent, model.ListingCap)

	assert.True(t, dbtest.Epoch.Add(149*time.Second).Equal(recent[0].CreatedAt))
	assert.True(t, dbtest.Epoch.Add(50*time.Second).Equal(recent[99].CreatedAt))
	for i := 1; i < len(recent); i++ {
		assert.True(t, recent[i-1].CreatedAt.After(recent[i].CreatedAt), "position %d", i)
	}
	assert.NotContains(t, summaryULIDs(recent), hidden.ULID)
}

func TestSummaryCountsAndFavoritedFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.User(t, f.gdb, "alice", false)
	dbtest.User(t, f.gdb, "bob", false)
	p := dbtest.Playlist(t, f.gdb, "alice", "morning", true, 0)
	dbtest.Attach(t, f.gdb, p, f.songs[0], f.songs[1], f.songs[2])
	dbtest.Favorite(t, f.gdb, p, "bob")
	dbtest.Favorite(t, f.gdb, p, model.AnonymousAccount)

	composer := NewPointQueryComposer()
	sum, err := composer.Summarize(ctx, f.store, p, "bob")
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 3, sum.SongCount)
	assert.Equal(t, 2, sum.FavoriteCount)
	assert.True(t, sum.IsFavorited)

	// the anonymous viewer never reports a favorite
	sum, err = composer.Summarize(ctx, f.store, p, model.AnonymousAccount)
	require.NoError(t, err)
	assert.False(t, sum.IsFavorited)
}

func TestDetailSkipsMissingSongs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.User(t, f.gdb, "alice", false)
	p := dbtest.Playlist(t, f.gdb, "alice", "gaps", true, 0)
	dbtest.Attach(t, f.gdb, p, f.songs[2], f.songs[0], f.songs[1])
	require.NoError(t, f.gdb.Delete(&model.Song{}, f.songs[0].ID).Error)

	detail, err := f.svc.Detail(ctx, p.ULID, model.AnonymousAccount)
	require.NoError(t, err)
	require.Len(t, detail.Songs, 2)
	assert.Equal(t, 2, detail.SongCount)
	assert.Equal(t, f.songs[2].ULID, detail.Songs[0].ULID)
	assert.Equal(t, f.songs[1].ULID, detail.Songs[1].ULID)
	assert.Equal(t, "Kiki Vivi Lily", detail.Songs[0].Artist)
}

func TestDetailRejectsMalformedULID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Detail(context.Background(), "not-a-ulid!", model.AnonymousAccount)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Detail(context.Background(), "01G3NF1Z8QKZ9V0000000000AB", model.AnonymousAccount)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPlaylistListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.User(t, f.gdb, "alice", false)
	dbtest.User(t, f.gdb, "bob", false)
	mine := dbtest.Playlist(t, f.gdb, "alice", "mine", false, 0)
	theirs := dbtest.Playlist(t, f.gdb, "bob", "theirs", true, time.Second)
	theirsPrivate := dbtest.Playlist(t, f.gdb, "bob", "theirs private", false, 2*time.Second)
	dbtest.Favorite(t, f.gdb, theirs, "alice")
	dbtest.Favorite(t, f.gdb, theirsPrivate, "alice")
	dbtest.Favorite(t, f.gdb, mine, "alice")

	created, favorited, err := f.svc.PlaylistListings(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ULID}, summaryULIDs(created))
	assert.ElementsMatch(t, []string{theirs.ULID, mine.ULID}, summaryULIDs(favorited))
	for _, s := range favorited {
		assert.True(t, s.IsFavorited)
	}
}

func TestFavoritedByUserSkipsDeletedPlaylists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.User(t, f.gdb, "alice", false)
	dbtest.User(t, f.gdb, "bob", false)
	gone := dbtest.Playlist(t, f.gdb, "bob", "gone", true, 0)
	kept := dbtest.Playlist(t, f.gdb, "bob", "kept", true, time.Second)
	dbtest.Favorite(t, f.gdb, gone, "alice")
	dbtest.Favorite(t, f.gdb, kept, "alice")
	require.NoError(t, f.gdb.Delete(&model.Playlist{}, gone.ID).Error)

	favorited, err := f.svc.FavoritedByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ULID}, summaryULIDs(favorited))
}

func TestRecentFiltersHiddenAcrossWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.User(t, f.gdb, "alice", false)
	dbtest.User(t, f.gdb, "mallory", true)
	for i := 0; i < 105; i++ {
		dbtest.Playlist(t, f.gdb, "alice", fmt.Sprintf("mix-%d", i), true, time.Duration(i)*time.Minute)
	}
	// newest ten belong to a banned owner
	for i := 0; i < 10; i++ {
		dbtest.Playlist(t, f.gdb, "mallory", fmt.Sprintf("spam-%d", i), true, time.Duration(200+i)*time.Minute)
	}
	counter := metrics.ListingEntriesDropped.WithLabelValues("recent")
	before := testutil.ToFloat64(counter)

	got, err := f.svc.RecentPlaylists(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, model.ListingCap)
	for _, sum := range got {
		assert.Equal(t, "alice", sum.UserAccount)
	}
	assert.Equal(t, "mix-104", got[0].Name)
	assert.Equal(t, "mix-5", got[len(got)-1].Name)
	assert.Equal(t, before+10, testutil.ToFloat64(counter))
}
