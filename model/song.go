package model

// Artist 歌手，曲库预置数据
type Artist struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	ULID string `json:"ulid" gorm:"column:ulid;size:26;uniqueIndex"`
	Name string `json:"name" gorm:"size:191;not null"`
}

// TableName 指定表名
func (Artist) TableName() string {
	return "artist"
}

// Song 歌曲，曲库预置数据，API 不会创建歌曲
type Song struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	ULID        string `json:"ulid" gorm:"column:ulid;size:26;uniqueIndex"`
	Title       string `json:"title" gorm:"size:191;not null"`
	ArtistID    int64  `json:"artist_id" gorm:"index;not null"`
	Album       string `json:"album" gorm:"size:191"`
	TrackNumber int    `json:"track_number"`
	IsPublic    bool   `json:"is_public" gorm:"not null;default:false"`
}

// TableName 指定表名
func (Song) TableName() string {
	return "song"
}
