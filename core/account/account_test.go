package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"listen80/core/apperr"
	"listen80/core/auth"
	"listen80/db/dbtest"
	"listen80/model"
	"listen80/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	svc := NewService(repository.NewGormStore(gdb))
	svc.now = func() time.Time { return dbtest.Epoch.Add(time.Hour) }
	return svc, gdb
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Account: "road_tripper", Password: "isucon-pass", DisplayName: "Tripper"})
	require.NoError(t, err)
	assert.True(t, auth.CheckPasswordHash("isucon-pass", user.PasswordHash))

	_, err = svc.Signup(ctx, SignupInput{Account: "road_tripper", Password: "another-pass", DisplayName: "Again"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	logged, err := svc.Login(ctx, "road_tripper", "isucon-pass")
	require.NoError(t, err)
	assert.Equal(t, "Tripper", logged.DisplayName)

	_, err = svc.Login(ctx, "road_tripper", "wrong-pass")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = svc.Login(ctx, "nobody_here", "isucon-pass")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestSignupValidation(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SignupInput
		msg  string
	}{
		{"short account", SignupInput{"abc", "isucon-pass", "Name"}, "bad user_account"},
		{"account charset", SignupInput{"al!ce", "isucon-pass", "Name"}, "bad user_account"},
		{"anonymous sentinel", SignupInput{model.AnonymousAccount, "isucon-pass", "Name"}, "bad user_account"},
		{"long account", SignupInput{strings.Repeat("a", 192), "isucon-pass", "Name"}, "bad user_account"},
		{"short password", SignupInput{"alice", "short", "Name"}, "bad password"},
		{"password charset", SignupInput{"alice", "isucon pass", "Name"}, "bad password"},
		{"short display name", SignupInput{"alice", "isucon-pass", "N"}, "bad display_name"},
		{"long display name", SignupInput{"alice", "isucon-pass", strings.Repeat("n", 25)}, "bad display_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			require.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
			assert.Equal(t, tt.msg, apperr.Message(err))
		})
	}

	var n int64
	require.NoError(t, gdb.Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestBannedUserCannotLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Account: "mallory", Password: "isucon-pass", DisplayName: "Mallory"})
	require.NoError(t, err)

	user, err := svc.SetBan(ctx, "mallory", true)
	require.NoError(t, err)
	assert.True(t, user.IsBan)

	_, err = svc.Login(ctx, "mallory", "isucon-pass")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	user, err = svc.SetBan(ctx, "mallory", false)
	require.NoError(t, err)
	assert.False(t, user.IsBan)

	_, err = svc.Login(ctx, "mallory", "isucon-pass")
	assert.NoError(t, err)

	_, err = svc.SetBan(ctx, "ghost", true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReset(t *testing.T) {
	svc, gdb := newService(t)
	ctx := context.Background()
	cutoff := dbtest.Epoch

	dbtest.User(t, gdb, "alice", false)
	newcomer := &model.User{Account: "newcomer", DisplayName: "New", PasswordHash: "x",
		CreatedAt: cutoff.Add(time.Hour), LastLoggedInAt: cutoff.Add(time.Hour)}
	require.NoError(t, gdb.Create(newcomer).Error)

	artist := dbtest.Artist(t, gdb, "artist")
	song := dbtest.Song(t, gdb, artist, "song", 1)

	kept := dbtest.Playlist(t, gdb, "alice", "kept", true, -time.Minute)
	late := dbtest.Playlist(t, gdb, "alice", "late", true, time.Minute)
	orphaned := dbtest.Playlist(t, gdb, "newcomer", "orphaned", true, -2*time.Minute)
	dbtest.Attach(t, gdb, kept, song)
	dbtest.Attach(t, gdb, late, song)
	dbtest.Attach(t, gdb, orphaned, song)

	require.NoError(t, gdb.Create(&model.PlaylistFavorite{PlaylistID: kept.ID, FavoriteUserAccount: "alice", CreatedAt: cutoff.Add(-time.Minute)}).Error)
	require.NoError(t, gdb.Create(&model.PlaylistFavorite{PlaylistID: kept.ID, FavoriteUserAccount: "bob", CreatedAt: cutoff.Add(time.Minute)}).Error)
	require.NoError(t, gdb.Create(&model.PlaylistFavorite{PlaylistID: late.ID, FavoriteUserAccount: "alice", CreatedAt: cutoff.Add(-time.Minute)}).Error)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Reset(ctx, cutoff))

		var accounts []string
		require.NoError(t, gdb.Model(&model.User{}).Pluck("account", &accounts).Error)
		assert.Equal(t, []string{"alice"}, accounts)

		var playlistIDs []int64
		require.NoError(t, gdb.Model(&model.Playlist{}).Pluck("id", &playlistIDs).Error)
		assert.Equal(t, []int64{kept.ID}, playlistIDs)

		var songRows, favRows int64
		require.NoError(t, gdb.Model(&model.PlaylistSong{}).Count(&songRows).Error)
		require.NoError(t, gdb.Model(&model.PlaylistFavorite{}).Count(&favRows).Error)
		assert.Equal(t, int64(1), songRows)
		assert.Equal(t, int64(1), favRows)
	}
}
