package model

import "time"

const (
	// 歌单名称长度范围（按字符计）
	PlaylistNameMinLength = 2
	PlaylistNameMaxLength = 191
	// 单个歌单最多包含的歌曲数
	MaxPlaylistSongs = 80
	// 所有列表接口的条目上限
	ListingCap = 100
)

// Playlist 歌单
type Playlist struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ULID        string    `json:"ulid" gorm:"column:ulid;size:26;uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"size:191;not null"`
	UserAccount string    `json:"user_account" gorm:"size:191;index;not null"`
	IsPublic    bool      `json:"is_public" gorm:"not null;default:false;index:idx_playlist_public_created,priority:1"`
	CreatedAt   time.Time `json:"created_at" gorm:"index:idx_playlist_public_created,priority:2"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return "playlist"
}

// PlaylistSong 歌单中的一首歌，sort_order 从 1 开始
// 联合主键保证同一首歌不会在一个歌单中出现两次
type PlaylistSong struct {
	PlaylistID int64 `json:"playlist_id" gorm:"primaryKey;autoIncrement:false;index:idx_playlist_song_order,priority:1"`
	SongID     int64 `json:"song_id" gorm:"primaryKey;autoIncrement:false"`
	SortOrder  int   `json:"sort_order" gorm:"not null;index:idx_playlist_song_order,priority:2"`
}

// TableName 指定表名
func (PlaylistSong) TableName() string {
	return "playlist_song"
}

// PlaylistFavorite 用户收藏歌单的记录
type PlaylistFavorite struct {
	ID                  int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaylistID          int64     `json:"playlist_id" gorm:"not null;uniqueIndex:idx_playlist_favorite_pair,priority:1"`
	FavoriteUserAccount string    `json:"favorite_user_account" gorm:"size:191;not null;uniqueIndex:idx_playlist_favorite_pair,priority:2;index"`
	CreatedAt           time.Time `json:"created_at" gorm:"index"`
}

// TableName 指定表名
func (PlaylistFavorite) TableName() string {
	return "playlist_favorite"
}

// FavoriteTally 按收藏数排行的一行
type FavoriteTally struct {
	PlaylistID    int64
	FavoriteCount int64
}

// AllModels 返回所有需要迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Artist{},
		&Song{},
		&Playlist{},
		&PlaylistSong{},
		&PlaylistFavorite{},
	}
}
