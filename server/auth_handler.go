package server

import (
	"net/http"

	"listen80/core/account"
	"listen80/logger"
)

// SignupRequest represents the signup request body
type SignupRequest struct {
	UserAccount string `json:"user_account"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	UserAccount string `json:"user_account"`
	Password    string `json:"password"`
}

// SignupHandler creates an account and logs it in.
func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.Signup(r.Context(), account.SignupInput{
		Account:     req.UserAccount,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.startSession(w, r, user.Account); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse())
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.Login(r.Context(), req.UserAccount, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.startSession(w, r, user.Account); err != nil {
		h.writeError(w, r, err)
		return
	}
	logger.Info("[Login] 登录成功", logger.Account(user.Account))
	writeJSON(w, http.StatusOK, okResponse())
}

// LogoutHandler ends the current session. Logging out without a session succeeds.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	writeJSON(w, http.StatusOK, okResponse())
}
