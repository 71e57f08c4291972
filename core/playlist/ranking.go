package playlist

import (
	"context"

	"listen80/model"
	"listen80/repository"
)

// PopularPlaylists ranks public playlists by favorite count. Tallies and
// the counts shown in each summary are read in the same snapshot, so a
// playlist never appears above one with more displayed favorites. The
// snapshot is committed before this returns.
func (s *Service) PopularPlaylists(ctx context.Context, viewer string) ([]*model.PlaylistSummary, error) {
	defer observeListing("popular")()

	var out []*model.PlaylistSummary
	err := s.store.Snapshot(ctx, func(tx repository.Store) error {
		tallies, err := tx.FavoriteTallies(ctx)
		if err != nil {
			return err
		}

		out, err = s.summarizeAll(ctx, tx, "popular", len(tallies), func(i int) (*model.Playlist, error) {
			p, err := tx.PlaylistByID(ctx, tallies[i].PlaylistID)
			if err != nil || p == nil {
				return nil, err
			}
			// public only, even for the owner
			if !p.IsPublic {
				return nil, nil
			}
			return p, nil
		}, viewer)
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to rank popular playlists")
	}
	return out, nil
}
