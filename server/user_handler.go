package server

import (
	"net/http"
	"time"

	"listen80/core/apperr"
	"listen80/logger"
)

// BanUserRequest represents the body of POST /api/admin/user/ban
type BanUserRequest struct {
	UserAccount string `json:"user_account"`
	IsBan       bool   `json:"is_ban"`
}

type banUserResponse struct {
	basicResponse
	UserAccount string    `json:"user_account"`
	DisplayName string    `json:"display_name"`
	IsBan       bool      `json:"is_ban"`
	CreatedAt   time.Time `json:"created_at"`
}

// BanUserHandler lets an admin set or clear another user's ban flag.
func (h *APIHandler) BanUserHandler(w http.ResponseWriter, r *http.Request) {
	admin := userFrom(r.Context())
	if !h.cfg.IsAdmin(admin.Account) {
		logger.Warn("[Admin] non-admin tried to ban", logger.Account(admin.Account))
		h.writeError(w, r, apperr.Forbidden("not admin user"))
		return
	}

	var req BanUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.SetBan(r.Context(), req.UserAccount, req.IsBan)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, banUserResponse{
		basicResponse: okResponse(),
		UserAccount:   user.Account,
		DisplayName:   user.DisplayName,
		IsBan:         user.IsBan,
		CreatedAt:     user.CreatedAt,
	})
}
