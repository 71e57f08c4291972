package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"listen80/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateKey 插入时违反唯一约束
var ErrDuplicateKey = errors.New("duplicate key")

// mysqlDuplicateEntry 即 MySQL 的 ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// UserStore 用户数据访问接口
type UserStore interface {
	// UserByAccount 账号不存在时返回 nil, nil
	UserByAccount(ctx context.Context, account string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	TouchLastLogin(ctx context.Context, account string, at time.Time) error
	SetBan(ctx context.Context, account string, isBan bool) error
}

// CatalogStore 曲库只读访问接口
type CatalogStore interface {
	SongByULID(ctx context.Context, ulid string) (*model.Song, error)
	SongByID(ctx context.Context, id int64) (*model.Song, error)
	ArtistByID(ctx context.Context, id int64) (*model.Artist, error)
}

// PlaylistStore 歌单数据访问接口
type PlaylistStore interface {
	PlaylistByULID(ctx context.Context, ulid string) (*model.Playlist, error)
	PlaylistByID(ctx context.Context, id int64) (*model.Playlist, error)
	CountSongs(ctx context.Context, playlistID int64) (int64, error)
	PlaylistSongs(ctx context.Context, playlistID int64) ([]*model.PlaylistSong, error)

	// 列表候选
	PublicPlaylistsByRecency(ctx context.Context) ([]*model.Playlist, error)
	PlaylistsByOwner(ctx context.Context, account string, limit int) ([]*model.Playlist, error)

	CreatePlaylist(ctx context.Context, playlist *model.Playlist) error
	UpdatePlaylistMeta(ctx context.Context, playlistID int64, name string, isPublic bool, updatedAt time.Time) error
	InsertPlaylistSong(ctx context.Context, ps *model.PlaylistSong) error
	DeletePlaylistSongs(ctx context.Context, playlistID int64) error
	DeletePlaylist(ctx context.Context, playlistID int64) error
}

// FavoriteStore 收藏数据访问接口
type FavoriteStore interface {
	CountFavorites(ctx context.Context, playlistID int64) (int64, error)
	IsFavoritedBy(ctx context.Context, account string, playlistID int64) (bool, error)
	FavoriteByPair(ctx context.Context, playlistID int64, account string) (*model.PlaylistFavorite, error)
	FavoritesByUser(ctx context.Context, account string) ([]*model.PlaylistFavorite, error)
	// FavoriteTallies 按收藏数从高到低统计每个歌单
	FavoriteTallies(ctx context.Context) ([]model.FavoriteTally, error)

	// InsertPlaylistFavorite 返回是否写入了新行，已存在的 (歌单, 用户) 组合保持不变
	InsertPlaylistFavorite(ctx context.Context, fav *model.PlaylistFavorite) (bool, error)
	DeleteFavorite(ctx context.Context, playlistID int64, account string) error
	DeletePlaylistFavorites(ctx context.Context, playlistID int64) error
}

// Store 实体存储，Transaction/Snapshot 内拿到的 Store 绑定在该事务上
type Store interface {
	UserStore
	CatalogStore
	PlaylistStore
	FavoriteStore

	// Transaction 在一个事务中执行 fn，fn 返回错误时回滚
	Transaction(ctx context.Context, fn func(st Store) error, opts ...*sql.TxOptions) error
	// Snapshot 在只读的可重复读事务中执行 fn
	Snapshot(ctx context.Context, fn func(st Store) error) error
	// Reset 删除 cutoff 之后创建的数据以及由此产生的孤儿行
	Reset(ctx context.Context, cutoff time.Time) error
}

// gormStore GORM 实现
type gormStore struct {
	db *gorm.DB
}

// NewGormStore 创建 GORM 存储
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// ========== 事务 ==========

func (s *gormStore) Transaction(ctx context.Context, fn func(st Store) error, opts ...*sql.TxOptions) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	}, opts...)
}

func (s *gormStore) Snapshot(ctx context.Context, fn func(st Store) error) error {
	return s.Transaction(ctx, fn, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
}

// ========== 用户 ==========

func (s *gormStore) UserByAccount(ctx context.Context, account string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("account = ?", account).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %s: %w", account, err)
	}
	return &user, nil
}

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create user %s: %w", user.Account, err)
	}
	return nil
}

func (s *gormStore) TouchLastLogin(ctx context.Context, account string, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("account = ?", account).
		Update("last_logined_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login of %s: %w", account, err)
	}
	return nil
}

func (s *gormStore) SetBan(ctx context.Context, account string, isBan bool) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("account = ?", account).
		Update("is_ban", isBan).Error
	if err != nil {
		return fmt.Errorf("failed to set ban flag of %s: %w", account, err)
	}
	return nil
}

// ========== 曲库 ==========

func (s *gormStore) SongByULID(ctx context.Context, ulid string) (*model.Song, error) {
	var song model.Song
	if err := s.db.WithContext(ctx).Where("ulid = ?", ulid).First(&song).Error; err != nil {
		return notFoundAsNil[model.Song](err, "song", ulid)
	}
	return &song, nil
}

func (s *gormStore) SongByID(ctx context.Context, id int64) (*model.Song, error) {
	var song model.Song
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&song).Error; err != nil {
		return notFoundAsNil[model.Song](err, "song", id)
	}
	return &song, nil
}

func (s *gormStore) ArtistByID(ctx context.Context, id int64) (*model.Artist, error) {
	var artist model.Artist
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&artist).Error; err != nil {
		return notFoundAsNil[model.Artist](err, "artist", id)
	}
	return &artist, nil
}

// ========== 歌单 ==========

func (s *gormStore) PlaylistByULID(ctx context.Context, ulid string) (*model.Playlist, error) {
	var playlist model.Playlist
	if err := s.db.WithContext(ctx).Where("ulid = ?", ulid).First(&playlist).Error; err != nil {
		return notFoundAsNil[model.Playlist](err, "playlist", ulid)
	}
	return &playlist, nil
}

func (s *gormStore) PlaylistByID(ctx context.Context, id int64) (*model.Playlist, error) {
	var playlist model.Playlist
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error; err != nil {
		return notFoundAsNil[model.Playlist](err, "playlist", id)
	}
	return &playlist, nil
}

func (s *gormStore) CountSongs(ctx context.Context, playlistID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PlaylistSong{}).
		Where("playlist_id = ?", playlistID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count songs of playlist %d: %w", playlistID, err)
	}
	return count, nil
}

func (s *gormStore) PlaylistSongs(ctx context.Context, playlistID int64) ([]*model.PlaylistSong, error) {
	var rows []*model.PlaylistSong
	err := s.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Order("sort_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list songs of playlist %d: %w", playlistID, err)
	}
	return rows, nil
}

func (s *gormStore) PublicPlaylistsByRecency(ctx context.Context) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list public playlists: %w", err)
	}
	return playlists, nil
}

func (s *gormStore) PlaylistsByOwner(ctx context.Context, account string, limit int) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := s.db.WithContext(ctx).
		Where("user_account = ?", account).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists of %s: %w", account, err)
	}
	return playlists, nil
}

func (s *gormStore) CreatePlaylist(ctx context.Context, playlist *model.Playlist) error {
	if err := s.db.WithContext(ctx).Create(playlist).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

func (s *gormStore) UpdatePlaylistMeta(ctx context.Context, playlistID int64, name string, isPublic bool, updatedAt time.Time) error {
	err := s.db.WithContext(ctx).Model(&model.Playlist{}).
		Where("id = ?", playlistID).
		Updates(map[string]interface{}{
			"name":       name,
			"is_public":  isPublic,
			"updated_at": updatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update playlist %d: %w", playlistID, err)
	}
	return nil
}

func (s *gormStore) InsertPlaylistSong(ctx context.Context, ps *model.PlaylistSong) error {
	if err := s.db.WithContext(ctx).Create(ps).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert song %d into playlist %d: %w", ps.SongID, ps.PlaylistID, err)
	}
	return nil
}

func (s *gormStore) DeletePlaylistSongs(ctx context.Context, playlistID int64) error {
	err := s.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Delete(&model.PlaylistSong{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete songs of playlist %d: %w", playlistID, err)
	}
	return nil
}

func (s *gormStore) DeletePlaylist(ctx context.Context, playlistID int64) error {
	err := s.db.WithContext(ctx).
		Where("id = ?", playlistID).
		Delete(&model.Playlist{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", playlistID, err)
	}
	return nil
}

// ========== 收藏 ==========

func (s *gormStore) CountFavorites(ctx context.Context, playlistID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PlaylistFavorite{}).
		Where("playlist_id = ?", playlistID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites of playlist %d: %w", playlistID, err)
	}
	return count, nil
}

func (s *gormStore) IsFavoritedBy(ctx context.Context, account string, playlistID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PlaylistFavorite{}).
		Where("favorite_user_account = ? AND playlist_id = ?", account, playlistID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite of %s on playlist %d: %w", account, playlistID, err)
	}
	return count > 0, nil
}

func (s *gormStore) FavoriteByPair(ctx context.Context, playlistID int64, account string) (*model.PlaylistFavorite, error) {
	var fav model.PlaylistFavorite
	err := s.db.WithContext(ctx).
		Where("playlist_id = ? AND favorite_user_account = ?", playlistID, account).
		First(&fav).Error
	if err != nil {
		return notFoundAsNil[model.PlaylistFavorite](err, "playlist favorite", playlistID)
	}
	return &fav, nil
}

func (s *gormStore) FavoritesByUser(ctx context.Context, account string) ([]*model.PlaylistFavorite, error) {
	var favs []*model.PlaylistFavorite
	err := s.db.WithContext(ctx).
		Where("favorite_user_account = ?", account).
		Order("created_at DESC").
		Order("id DESC").
		Find(&favs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites of %s: %w", account, err)
	}
	return favs, nil
}

func (s *gormStore) FavoriteTallies(ctx context.Context) ([]model.FavoriteTally, error) {
	var tallies []model.FavoriteTally
	err := s.db.WithContext(ctx).Model(&model.PlaylistFavorite{}).
		Select("playlist_id, COUNT(*) AS favorite_count").
		Group("playlist_id").
		Order("favorite_count DESC").
		Order("playlist_id ASC").
		Scan(&tallies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to tally favorites: %w", err)
	}
	return tallies, nil
}

func (s *gormStore) InsertPlaylistFavorite(ctx context.Context, fav *model.PlaylistFavorite) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fav)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert favorite of %s on playlist %d: %w", fav.FavoriteUserAccount, fav.PlaylistID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) DeleteFavorite(ctx context.Context, playlistID int64, account string) error {
	err := s.db.WithContext(ctx).
		Where("playlist_id = ? AND favorite_user_account = ?", playlistID, account).
		Delete(&model.PlaylistFavorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete favorite of %s on playlist %d: %w", account, playlistID, err)
	}
	return nil
}

func (s *gormStore) DeletePlaylistFavorites(ctx context.Context, playlistID int64) error {
	err := s.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Delete(&model.PlaylistFavorite{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete favorites of playlist %d: %w", playlistID, err)
	}
	return nil
}

// ========== 初始化 ==========

// Reset 恢复初始数据集，按依赖顺序删除，每一步都能看到上一步的删除结果
func (s *gormStore) Reset(ctx context.Context, cutoff time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("created_at > ?", cutoff).Delete(&model.User{}).Error; err != nil {
			return fmt.Errorf("failed to reset users: %w", err)
		}

		owners := tx.Model(&model.User{}).Select("account")
		if err := tx.Where("created_at > ? OR user_account NOT IN (?)", cutoff, owners).
			Delete(&model.Playlist{}).Error; err != nil {
			return fmt.Errorf("failed to reset playlists: %w", err)
		}

		if err := tx.Where("playlist_id NOT IN (?)", tx.Model(&model.Playlist{}).Select("id")).
			Delete(&model.PlaylistSong{}).Error; err != nil {
			return fmt.Errorf("failed to reset playlist songs: %w", err)
		}

		if err := tx.Where("playlist_id NOT IN (?) OR created_at > ?", tx.Model(&model.Playlist{}).Select("id"), cutoff).
			Delete(&model.PlaylistFavorite{}).Error; err != nil {
			return fmt.Errorf("failed to reset playlist favorites: %w", err)
		}
		return nil
	})
}

// notFoundAsNil 把 gorm.ErrRecordNotFound 转换为空结果
func notFoundAsNil[T any](err error, kind string, key interface{}) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to get %s %v: %w", kind, key, err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
