package playlist

import (
	"context"
	"testing"
	"time"

	"listen80/db/dbtest"
	"listen80/model"
	"listen80/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture is a seeded database plus a service over it.
type fixture struct {
	gdb   *gorm.DB
	store repository.Store
	svc   *Service
	songs []*model.Song
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	store := repository.NewGormStore(gdb)

	tick := dbtest.Epoch.Add(24 * time.Hour)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	artist := dbtest.Artist(t, gdb, "Kiki Vivi Lily")
	return &fixture{
		gdb:   gdb,
		store: store,
		svc:   NewService(store, WithClock(clock)),
		songs: dbtest.Songs(t, gdb, artist, "track", 12),
	}
}

func (f *fixture) favoriteRows(t *testing.T, p string) int64 {
	t.Helper()
	pl, err := f.store.PlaylistByULID(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, pl)
	var n int64
	require.NoError(t, f.gdb.Model(&model.PlaylistFavorite{}).Where("playlist_id = ?", pl.ID).Count(&n).Error)
	return n
}

func songULIDs(songs ...*model.Song) []string {
	out := make([]string, 0, len(songs))
	for _, s := range songs {
		out = append(out, s.ULID)
	}
	return out
}

func summaryULIDs(list []*model.PlaylistSummary) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ULID)
	}
	return out
}
