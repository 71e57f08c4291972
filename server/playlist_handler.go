package server

import (
	"net/http"

	"listen80/core/apperr"
	"listen80/core/playlist"
	"listen80/model"

	"github.com/gorilla/mux"
)

// AddPlaylistRequest represents the body of POST /api/playlist/add
type AddPlaylistRequest struct {
	Name string `json:"name"`
}

// UpdatePlaylistRequest represents the body of POST /api/playlist/{ulid}/update.
// Every field is required, so absence is kept distinguishable from zero values.
type UpdatePlaylistRequest struct {
	Name      *string  `json:"name"`
	SongULIDs []string `json:"song_ulids"`
	IsPublic  *bool    `json:"is_public"`
}

// FavoritePlaylistRequest represents the body of POST /api/playlist/{ulid}/favorite
type FavoritePlaylistRequest struct {
	IsFavorited bool `json:"is_favorited"`
}

type playlistsResponse struct {
	basicResponse
	Playlists []*model.PlaylistSummary `json:"playlists"`
}

type userPlaylistsResponse struct {
	basicResponse
	CreatedPlaylists   []*model.PlaylistSummary `json:"created_playlists"`
	FavoritedPlaylists []*model.PlaylistSummary `json:"favorited_playlists"`
}

type playlistResponse struct {
	basicResponse
	Playlist *model.PlaylistDetail `json:"playlist"`
}

type addPlaylistResponse struct {
	basicResponse
	PlaylistULID string `json:"playlist_ulid"`
}

// RecentPlaylistsHandler GET /api/recent_playlists
func (h *APIHandler) RecentPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.RecentPlaylists(r.Context(), viewerFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistsResponse{basicResponse: okResponse(), Playlists: playlists})
}

// PopularPlaylistsHandler GET /api/popular_playlists
func (h *APIHandler) PopularPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.PopularPlaylists(r.Context(), viewerFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistsResponse{basicResponse: okResponse(), Playlists: playlists})
}

// PlaylistsHandler GET /api/playlists
func (h *APIHandler) PlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	created, favorited, err := h.playlists.PlaylistListings(r.Context(), user.Account)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userPlaylistsResponse{
		basicResponse:      okResponse(),
		CreatedPlaylists:   created,
		FavoritedPlaylists: favorited,
	})
}

// PlaylistDetailHandler GET /api/playlist/{ulid}, login not required
func (h *APIHandler) PlaylistDetailHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := h.playlists.Detail(r.Context(), mux.Vars(r)["ulid"], viewerFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistResponse{basicResponse: okResponse(), Playlist: detail})
}

// AddPlaylistHandler POST /api/playlist/add
func (h *APIHandler) AddPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req AddPlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.playlists.Create(r.Context(), userFrom(r.Context()).Account, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addPlaylistResponse{basicResponse: okResponse(), PlaylistULID: id})
}

// UpdatePlaylistHandler POST /api/playlist/{ulid}/update
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Name == nil || req.SongULIDs == nil || req.IsPublic == nil {
		h.writeError(w, r, apperr.Validation("name, song_ulids and is_public is required"))
		return
	}

	detail, err := h.playlists.ReplaceContent(r.Context(), userFrom(r.Context()).Account, mux.Vars(r)["ulid"], playlist.ReplaceInput{
		Name:      *req.Name,
		SongULIDs: req.SongULIDs,
		IsPublic:  *req.IsPublic,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistResponse{basicResponse: okResponse(), Playlist: detail})
}

// DeletePlaylistHandler POST /api/playlist/{ulid}/delete
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.playlists.Delete(r.Context(), userFrom(r.Context()).Account, mux.Vars(r)["ulid"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse())
}

// FavoritePlaylistHandler POST /api/playlist/{ulid}/favorite
func (h *APIHandler) FavoritePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req FavoritePlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	detail, err := h.playlists.SetFavorite(r.Context(), userFrom(r.Context()).Account, mux.Vars(r)["ulid"], req.IsFavorited)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistResponse{basicResponse: okResponse(), Playlist: detail})
}
