package server

import (
	"context"
	"net/http"
	"time"

	"listen80/core/apperr"
	"listen80/logger"
	"listen80/metrics"
	"listen80/model"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "listen80_session"

type contextKey int

const (
	identityKey contextKey = iota
	userKey
)

// identity is who the session cookie says the caller is.
type identity struct {
	account   string
	sessionID string
}

func identityFrom(ctx context.Context) identity {
	if id, ok := ctx.Value(identityKey).(identity); ok {
		return id
	}
	return identity{account: model.AnonymousAccount}
}

// viewerFrom returns the caller's account or the anonymous sentinel.
func viewerFrom(ctx context.Context) string {
	return identityFrom(ctx).account
}

// userFrom returns the user loaded by RequireLogin.
func userFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}

// SessionMiddleware resolves the session cookie. A token is trusted only if
// it verifies and Redis still maps its session id to the same account.
func (h *APIHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity{account: model.AnonymousAccount}

		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			claims, err := h.tokens.Parse(cookie.Value)
			if err != nil {
				metrics.AuthFailures.WithLabelValues("bad_token").Inc()
			} else {
				account, err := h.sessions.Lookup(r.Context(), claims.SessionID)
				switch {
				case err != nil:
					logger.Error("[Session] lookup failed", logger.ErrorField(err))
				case account == "" || account != claims.Account:
					metrics.AuthFailures.WithLabelValues("stale_session").Inc()
				default:
					id = identity{account: account, sessionID: claims.SessionID}
				}
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// RequireLogin rejects anonymous callers and callers whose account is gone
// or banned.
func (h *APIHandler) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())
		if model.IsAnonymous(id.account) {
			h.writeError(w, r, apperr.Unauthorized("login required"))
			return
		}

		user, err := h.store.UserByAccount(r.Context(), id.account)
		if err != nil {
			h.writeError(w, r, apperr.Internal(err, "failed to get user"))
			return
		}
		if user == nil || user.IsBan {
			metrics.AuthFailures.WithLabelValues("banned").Inc()
			h.writeError(w, r, apperr.Unauthorized("login required"))
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

// startSession issues a fresh session for account and sets the cookie.
func (h *APIHandler) startSession(w http.ResponseWriter, r *http.Request, account string) error {
	// invalidate the previous session
	h.destroySession(r)

	sid, err := h.sessions.Create(r.Context(), account)
	if err != nil {
		return apperr.Internal(err, "failed to create session")
	}
	now := time.Now()
	token, err := h.tokens.Issue(sid, account, now)
	if err != nil {
		return apperr.Internal(err, "failed to create session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(h.tokens.TTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	metrics.SessionsCreated.Inc()
	return nil
}

// endSession destroys the caller's session, if any, and clears the cookie.
func (h *APIHandler) endSession(w http.ResponseWriter, r *http.Request) {
	h.destroySession(r)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (h *APIHandler) destroySession(r *http.Request) {
	sid := identityFrom(r.Context()).sessionID
	if sid == "" {
		return
	}
	if err := h.sessions.Destroy(r.Context(), sid); err != nil {
		logger.Warn("[Session] failed to destroy session", logger.ErrorField(err))
	}
}
