package playlist

import (
	"context"

	"listen80/core/apperr"
	"listen80/core/visibility"
	"listen80/logger"
	"listen80/metrics"
	"listen80/model"
	"listen80/repository"

	"github.com/oklog/ulid/v2"
)

// Create 创建一个私有的空歌单，返回其 ulid
func (s *Service) Create(ctx context.Context, actor, name string) (id string, err error) {
	defer func() { metrics.ObserveMutation("create", err) }()

	if model.IsAnonymous(actor) {
		return "", apperr.Unauthorized("login required")
	}
	if err := validateName(name); err != nil {
		return "", err
	}

	now := s.now()
	u, err := ulid.New(ulid.Timestamp(now), ulid.DefaultEntropy())
	if err != nil {
		return "", apperr.Internal(err, "failed to allocate playlist ulid")
	}
	p := &model.Playlist{
		ULID:        u.String(),
		Name:        name,
		UserAccount: actor,
		IsPublic:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreatePlaylist(ctx, p); err != nil {
		return "", internal(err, "failed to create playlist")
	}

	logger.Info("[Playlist] created", logger.Account(actor), logger.PlaylistULID(p.ULID))
	return p.ULID, nil
}

// ReplaceContent 覆盖歌单的名称、公开状态和歌曲列表。
// 任何一首歌无法解析时整体回滚。
func (s *Service) ReplaceContent(ctx context.Context, actor, playlistULID string, in ReplaceInput) (detail *model.PlaylistDetail, err error) {
	defer func() { metrics.ObserveMutation("replace", err) }()

	p, err := s.ownedPlaylist(ctx, actor, playlistULID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	updatedAt := s.now()
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.UpdatePlaylistMeta(ctx, p.ID, in.Name, in.IsPublic, updatedAt); err != nil {
			return err
		}
		if err := tx.DeletePlaylistSongs(ctx, p.ID); err != nil {
			return err
		}
		for i, songULID := range in.SongULIDs {
			song, err := tx.SongByULID(ctx, songULID)
			if err != nil {
				return err
			}
			if song == nil {
				return apperr.Validation("song not found. ulid: %s", songULID)
			}
			// sort_order 从 1 开始
			if err := tx.InsertPlaylistSong(ctx, &model.PlaylistSong{
				PlaylistID: p.ID,
				SongID:     song.ID,
				SortOrder:  i + 1,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to replace playlist content")
	}

	logger.Info("[Playlist] content replaced",
		logger.Account(actor), logger.PlaylistULID(p.ULID), logger.Int("songs", len(in.SongULIDs)))
	return s.freshDetail(ctx, p.ULID, actor)
}

// SetFavorite 收藏或取消收藏，重复操作不会产生额外效果
func (s *Service) SetFavorite(ctx context.Context, actor, playlistULID string, favorited bool) (detail *model.PlaylistDetail, err error) {
	defer func() { metrics.ObserveMutation("favorite", err) }()

	if !ValidULID(playlistULID) {
		return nil, apperr.NotFound("bad playlist ulid")
	}
	if model.IsAnonymous(actor) {
		return nil, apperr.Unauthorized("login required")
	}
	user, err := s.store.UserByAccount(ctx, actor)
	if err != nil {
		return nil, internal(err, "failed to get user")
	}
	// 被封禁或已不存在的用户按歌单不存在处理
	if user == nil || user.IsBan {
		return nil, apperr.NotFound("playlist not found")
	}

	p, err := s.store.PlaylistByULID(ctx, playlistULID)
	if err != nil {
		return nil, internal(err, "failed to get playlist")
	}
	if p == nil {
		return nil, apperr.NotFound("playlist not found")
	}
	owner, err := s.store.UserByAccount(ctx, p.UserAccount)
	if err != nil {
		return nil, internal(err, "failed to get playlist owner")
	}
	if !visibility.IsExposable(p, owner, actor) {
		return nil, apperr.NotFound("playlist not found")
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if !favorited {
			return tx.DeleteFavorite(ctx, p.ID, actor)
		}
		existing, err := tx.FavoriteByPair(ctx, p.ID, actor)
		if err != nil || existing != nil {
			return err
		}
		_, err = tx.InsertPlaylistFavorite(ctx, &model.PlaylistFavorite{
			PlaylistID:          p.ID,
			FavoriteUserAccount: actor,
			CreatedAt:           s.now(),
		})
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to update favorite")
	}

	return s.freshDetail(ctx, p.ULID, actor)
}

// Delete 删除歌单以及它的歌曲关联和收藏记录
func (s *Service) Delete(ctx context.Context, actor, playlistULID string) (err error) {
	defer func() { metrics.ObserveMutation("delete", err) }()

	p, err := s.ownedPlaylist(ctx, actor, playlistULID)
	if err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.DeletePlaylist(ctx, p.ID); err != nil {
			return err
		}
		if err := tx.DeletePlaylistSongs(ctx, p.ID); err != nil {
			return err
		}
		return tx.DeletePlaylistFavorites(ctx, p.ID)
	})
	if err != nil {
		return internal(err, "failed to delete playlist")
	}

	logger.Info("[Playlist] deleted", logger.Account(actor), logger.PlaylistULID(p.ULID))
	return nil
}

// ownedPlaylist 加载 actor 有权修改的歌单，他人的歌单与不存在的歌单报相同的错误
func (s *Service) ownedPlaylist(ctx context.Context, actor, playlistULID string) (*model.Playlist, error) {
	if !ValidULID(playlistULID) {
		return nil, apperr.NotFound("bad playlist ulid")
	}
	p, err := s.store.PlaylistByULID(ctx, playlistULID)
	if err != nil {
		return nil, internal(err, "failed to get playlist")
	}
	if p == nil || !visibility.IsOwner(p, actor) {
		return nil, apperr.NotFound("playlist not found")
	}
	return p, nil
}

func (s *Service) freshDetail(ctx context.Context, playlistULID, viewer string) (*model.PlaylistDetail, error) {
	detail, err := s.composer.Detail(ctx, s.store, playlistULID, viewer)
	if err != nil {
		return nil, internal(err, "failed to fetch playlist detail")
	}
	if detail == nil {
		return nil, apperr.NotFound("failed to fetch playlist detail")
	}
	return detail, nil
}
