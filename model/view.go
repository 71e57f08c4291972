package model

import "time"

// PlaylistSummary is the listing-row projection of a playlist.
type PlaylistSummary struct {
	ULID            string    `json:"ulid"`
	Name            string    `json:"name"`
	UserDisplayName string    `json:"user_display_name"`
	UserAccount     string    `json:"user_account"`
	SongCount       int       `json:"song_count"`
	FavoriteCount   int       `json:"favorite_count"`
	IsFavorited     bool      `json:"is_favorited"`
	IsPublic        bool      `json:"is_public"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PlaylistDetail is a summary plus the ordered song list.
type PlaylistDetail struct {
	PlaylistSummary
	Songs []SongView `json:"songs"`
}

// SongView is a song as shown inside a playlist detail.
type SongView struct {
	ULID        string `json:"ulid"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	TrackNumber int    `json:"track_number"`
	IsPublic    bool   `json:"is_public"`
}
