package playlist

import (
	"context"
	"time"

	"listen80/core/apperr"
	"listen80/core/visibility"
	"listen80/logger"
	"listen80/metrics"
	"listen80/model"
	"listen80/repository"
)

// ViewComposer turns stored rows into playlist views. A nil view with a nil
// error means the playlist is absent or hidden from the viewer.
type ViewComposer interface {
	Summarize(ctx context.Context, st repository.Store, p *model.Playlist, viewer string) (*model.PlaylistSummary, error)
	Detail(ctx context.Context, st repository.Store, ulid string, viewer string) (*model.PlaylistDetail, error)
}

// pointQueryComposer assembles views with one query per association.
type pointQueryComposer struct{}

// NewPointQueryComposer returns the composer that issues one query per
// association.
func NewPointQueryComposer() ViewComposer {
	return pointQueryComposer{}
}

func (pointQueryComposer) Summarize(ctx context.Context, st repository.Store, p *model.Playlist, viewer string) (*model.PlaylistSummary, error) {
	sum, err := header(ctx, st, p, viewer)
	if err != nil || sum == nil {
		return nil, err
	}
	songCount, err := st.CountSongs(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	sum.SongCount = int(songCount)
	return sum, nil
}

func (pointQueryComposer) Detail(ctx context.Context, st repository.Store, ulid string, viewer string) (*model.PlaylistDetail, error) {
	p, err := st.PlaylistByULID(ctx, ulid)
	if err != nil || p == nil {
		return nil, err
	}
	sum, err := header(ctx, st, p, viewer)
	if err != nil || sum == nil {
		return nil, err
	}

	rows, err := st.PlaylistSongs(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	songs := make([]model.SongView, 0, len(rows))
	for _, row := range rows {
		song, err := st.SongByID(ctx, row.SongID)
		if err != nil {
			return nil, err
		}
		if song == nil {
			logger.Warn("[Playlist] song referenced by playlist is missing",
				logger.PlaylistULID(p.ULID), logger.Int64("song_id", row.SongID))
			continue
		}
		artist, err := st.ArtistByID(ctx, song.ArtistID)
		if err != nil {
			return nil, err
		}
		if artist == nil {
			logger.Warn("[Playlist] artist of song is missing",
				logger.PlaylistULID(p.ULID), logger.String("song_ulid", song.ULID))
			continue
		}
		songs = append(songs, model.SongView{
			ULID:        song.ULID,
			Title:       song.Title,
			Artist:      artist.Name,
			Album:       song.Album,
			TrackNumber: song.TrackNumber,
			IsPublic:    song.IsPublic,
		})
	}
	sum.SongCount = len(songs)

	return &model.PlaylistDetail{PlaylistSummary: *sum, Songs: songs}, nil
}

// header fills everything but SongCount, or returns nil when p is hidden.
func header(ctx context.Context, st repository.Store, p *model.Playlist, viewer string) (*model.PlaylistSummary, error) {
	owner, err := st.UserByAccount(ctx, p.UserAccount)
	if err != nil {
		return nil, err
	}
	if !visibility.IsExposable(p, owner, viewer) {
		return nil, nil
	}

	favoriteCount, err := st.CountFavorites(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	isFavorited := false
	if !model.IsAnonymous(viewer) {
		if isFavorited, err = st.IsFavoritedBy(ctx, viewer, p.ID); err != nil {
			return nil, err
		}
	}

	return &model.PlaylistSummary{
		ULID:            p.ULID,
		Name:            p.Name,
		UserDisplayName: owner.DisplayName,
		UserAccount:     owner.Account,
		FavoriteCount:   int(favoriteCount),
		IsFavorited:     isFavorited,
		IsPublic:        p.IsPublic,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}, nil
}

// Detail returns the playlist view for viewer. Hidden and missing playlists
// are both reported as not found.
func (s *Service) Detail(ctx context.Context, ulid, viewer string) (*model.PlaylistDetail, error) {
	if !ValidULID(ulid) {
		return nil, apperr.Validation("bad playlist ulid")
	}
	detail, err := s.composer.Detail(ctx, s.store, ulid, viewer)
	if err != nil {
		return nil, internal(err, "failed to fetch playlist detail")
	}
	if detail == nil {
		return nil, apperr.NotFound("playlist not found")
	}
	return detail, nil
}

// RecentPlaylists lists public playlists, newest first.
func (s *Service) RecentPlaylists(ctx context.Context, viewer string) ([]*model.PlaylistSummary, error) {
	defer observeListing("recent")()

	candidates, err := s.store.PublicPlaylistsByRecency(ctx)
	if err != nil {
		return nil, internal(err, "failed to list recent playlists")
	}
	return s.summarizeAll(ctx, s.store, "recent", len(candidates), func(i int) (*model.Playlist, error) {
		return candidates[i], nil
	}, viewer)
}

// CreatedByUser lists account's own playlists, private ones included. A
// missing or banned account gets an empty listing.
func (s *Service) CreatedByUser(ctx context.Context, account string) ([]*model.PlaylistSummary, error) {
	defer observeListing("created")()

	user, err := s.store.UserByAccount(ctx, account)
	if err != nil {
		return nil, internal(err, "failed to get user")
	}
	if user == nil || user.IsBan {
		return []*model.PlaylistSummary{}, nil
	}

	candidates, err := s.store.PlaylistsByOwner(ctx, account, model.ListingCap)
	if err != nil {
		return nil, internal(err, "failed to list created playlists")
	}
	return s.summarizeAll(ctx, s.store, "created", len(candidates), func(i int) (*model.Playlist, error) {
		return candidates[i], nil
	}, account)
}

// FavoritedByUser lists the playlists account favorited, most recent
// favorite first.
func (s *Service) FavoritedByUser(ctx context.Context, account string) ([]*model.PlaylistSummary, error) {
	defer observeListing("favorited")()

	favs, err := s.store.FavoritesByUser(ctx, account)
	if err != nil {
		return nil, internal(err, "failed to list favorites")
	}
	return s.summarizeAll(ctx, s.store, "favorited", len(favs), func(i int) (*model.Playlist, error) {
		return s.store.PlaylistByID(ctx, favs[i].PlaylistID)
	}, account)
}

// PlaylistListings returns both listings shown on a user's own page.
func (s *Service) PlaylistListings(ctx context.Context, account string) (created, favorited []*model.PlaylistSummary, err error) {
	if created, err = s.CreatedByUser(ctx, account); err != nil {
		return nil, nil, err
	}
	if favorited, err = s.FavoritedByUser(ctx, account); err != nil {
		return nil, nil, err
	}
	return created, favorited, nil
}

// summarizeAll resolves candidates in order until ListingCap summaries are
// collected. Candidates are loaded window by window; absent ones are skipped
// and the rest pass through visibility.Filter before being summarized.
func (s *Service) summarizeAll(ctx context.Context, st repository.Store, listing string, n int,
	candidate func(i int) (*model.Playlist, error), viewer string) ([]*model.PlaylistSummary, error) {
	out := make([]*model.PlaylistSummary, 0, min(n, model.ListingCap))
	ownerOf := cachedOwners(ctx, st)

	for next := 0; next < n && len(out) < model.ListingCap; {
		window := make([]*model.Playlist, 0, model.ListingCap-len(out))
		for ; next < n && len(window) < model.ListingCap-len(out); next++ {
			p, err := candidate(next)
			if err != nil {
				return nil, internal(err, "failed to load playlist")
			}
			if p == nil {
				dropped(listing, 1)
				continue
			}
			window = append(window, p)
		}

		visible, err := visibility.Filter(window, ownerOf, viewer)
		if err != nil {
			return nil, internal(err, "failed to load playlist owner")
		}
		dropped(listing, len(window)-len(visible))

		for _, p := range visible {
			sum, err := s.composer.Summarize(ctx, st, p, viewer)
			if err != nil {
				return nil, internal(err, "failed to compose playlist summary")
			}
			if sum == nil {
				dropped(listing, 1)
				continue
			}
			out = append(out, sum)
		}
	}
	return out, nil
}

// cachedOwners memoizes owner lookups for one listing.
func cachedOwners(ctx context.Context, st repository.Store) visibility.OwnerFunc {
	owners := make(map[string]*model.User)
	return func(p *model.Playlist) (*model.User, error) {
		if u, ok := owners[p.UserAccount]; ok {
			return u, nil
		}
		u, err := st.UserByAccount(ctx, p.UserAccount)
		if err != nil {
			return nil, err
		}
		owners[p.UserAccount] = u
		return u, nil
	}
}

func dropped(listing string, n int) {
	if n > 0 {
		metrics.ListingEntriesDropped.WithLabelValues(listing).Add(float64(n))
	}
}

func observeListing(listing string) func() {
	start := time.Now()
	return func() {
		metrics.ListingDuration.WithLabelValues(listing).Observe(time.Since(start).Seconds())
	}
}
