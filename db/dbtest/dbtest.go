// Package dbtest opens throwaway SQLite databases with the production schema
// and seeds catalog rows for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"listen80/db"
	"listen80/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a migrated database living in t.TempDir(). WAL mode lets a
// read transaction keep its snapshot while other connections commit.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "listen80.db")
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	gdb, err := gorm.Open(sqlite.Open(dsn), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateModels(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = db.CloseGormDB(gdb)
	})
	return gdb
}

// Epoch is the base timestamp used by seed helpers; whole seconds keep
// SQLite's text timestamps sortable.
var Epoch = time.Date(2022, 5, 13, 9, 0, 0, 0, time.UTC)

// User inserts a user created at Epoch.
func User(t testing.TB, gdb *gorm.DB, account string, banned bool) *model.User {
	t.Helper()
	u := &model.User{
		Account:        account,
		DisplayName:    account + " name",
		PasswordHash:   "x",
		IsBan:          banned,
		CreatedAt:      Epoch.Add(-time.Hour),
		LastLoggedInAt: Epoch.Add(-time.Hour),
	}
	mustCreate(t, gdb, u)
	return u
}

// Artist inserts an artist.
func Artist(t testing.TB, gdb *gorm.DB, name string) *model.Artist {
	t.Helper()
	a := &model.Artist{ULID: ulidFor("A", name), Name: name}
	mustCreate(t, gdb, a)
	return a
}

// Song inserts a public song by artist.
func Song(t testing.TB, gdb *gorm.DB, artist *model.Artist, title string, track int) *model.Song {
	t.Helper()
	s := &model.Song{
		ULID:        ulidFor("S", title),
		Title:       title,
		ArtistID:    artist.ID,
		Album:       title + " album",
		TrackNumber: track,
		IsPublic:    true,
	}
	mustCreate(t, gdb, s)
	return s
}

// Songs inserts n songs titled prefix-1..prefix-n.
func Songs(t testing.TB, gdb *gorm.DB, artist *model.Artist, prefix string, n int) []*model.Song {
	t.Helper()
	out := make([]*model.Song, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Song(t, gdb, artist, fmt.Sprintf("%s-%d", prefix, i), i))
	}
	return out
}

// Playlist inserts a playlist created at Epoch plus offset.
func Playlist(t testing.TB, gdb *gorm.DB, owner, name string, public bool, offset time.Duration) *model.Playlist {
	t.Helper()
	at := Epoch.Add(offset)
	p := &model.Playlist{
		ULID:        ulidFor("P", fmt.Sprintf("%s-%s-%d", owner, name, offset)),
		Name:        name,
		UserAccount: owner,
		IsPublic:    public,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	mustCreate(t, gdb, p)
	return p
}

// Favorite inserts a favorite row.
func Favorite(t testing.TB, gdb *gorm.DB, p *model.Playlist, account string) {
	t.Helper()
	mustCreate(t, gdb, &model.PlaylistFavorite{
		PlaylistID:          p.ID,
		FavoriteUserAccount: account,
		CreatedAt:           Epoch,
	})
}

// Attach places songs into p in the given order.
func Attach(t testing.TB, gdb *gorm.DB, p *model.Playlist, songs ...*model.Song) {
	t.Helper()
	for i, s := range songs {
		mustCreate(t, gdb, &model.PlaylistSong{PlaylistID: p.ID, SongID: s.ID, SortOrder: i + 1})
	}
}

func mustCreate(t testing.TB, gdb *gorm.DB, v interface{}) {
	t.Helper()
	if err := gdb.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
}

// ulidFor derives a stable 26 character alphanumeric identifier from key.
func ulidFor(prefix, key string) string {
	const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	var h uint64 = 14695981039346656037
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 1099511628211
	}
	buf := []byte(prefix)
	for len(buf) < 26 {
		buf = append(buf, alphabet[h>>59])
		h = h*6364136223846793005 + 1442695040888963407
	}
	return string(buf)
}
