package server

import (
	"encoding/json"
	"net/http"
	"time"

	"listen80/cache"
	"listen80/config"
	"listen80/core/account"
	"listen80/core/apperr"
	"listen80/core/auth"
	"listen80/core/playlist"
	"listen80/logger"
	"listen80/metrics"
	"listen80/repository"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	store       repository.Store
	playlists   *playlist.Service
	accounts    *account.Service
	sessions    *cache.SessionStore
	tokens      *auth.TokenManager
	cfg         *config.Config
	resetCutoff time.Time
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(cfg *config.Config, store repository.Store, sessions *cache.SessionStore) (*APIHandler, error) {
	cutoff, err := cfg.ResetCutoffTime()
	if err != nil {
		return nil, err
	}
	return &APIHandler{
		store:       store,
		playlists:   playlist.NewService(store),
		accounts:    account.NewService(store),
		sessions:    sessions,
		tokens:      auth.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL),
		cfg:         cfg,
		resetCutoff: cutoff.UTC(),
	}, nil
}

// NewRouter 注册所有路由
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(metrics.Middleware)
	router.Use(privateCache)
	router.Use(h.SessionMiddleware)

	// 账号
	router.HandleFunc("/api/signup", h.SignupHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", h.LogoutHandler).Methods(http.MethodPost)

	// 歌单列表
	router.HandleFunc("/api/recent_playlists", h.RecentPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/popular_playlists", h.PopularPlaylistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", h.RequireLogin(h.PlaylistsHandler)).Methods(http.MethodGet)

	// 歌单
	router.HandleFunc("/api/playlist/add", h.RequireLogin(h.AddPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/{ulid}", h.PlaylistDetailHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/playlist/{ulid}/update", h.RequireLogin(h.UpdatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/{ulid}/delete", h.RequireLogin(h.DeletePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlist/{ulid}/favorite", h.RequireLogin(h.FavoritePlaylistHandler)).Methods(http.MethodPost)

	// 管理
	router.HandleFunc("/api/admin/user/ban", h.RequireLogin(h.BanUserHandler)).Methods(http.MethodPost)
	router.HandleFunc("/initialize", h.InitializeHandler).Methods(http.MethodPost)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}

// InitializeHandler 恢复初始数据集
func (h *APIHandler) InitializeHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Reset(r.Context(), h.resetCutoff); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse())
}

// ========== 响应 ==========

type basicResponse struct {
	Result bool   `json:"result"`
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

func okResponse() basicResponse {
	return basicResponse{Result: true, Status: http.StatusOK}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("[HTTP] failed to encode response", logger.ErrorField(err))
	}
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError 按错误类型写响应，401 时同时结束会话
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(apperr.KindOf(err))
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("[HTTP] request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
	case status == http.StatusUnauthorized:
		h.endSession(w, r)
	}
	writeJSON(w, status, basicResponse{Result: false, Status: status, Error: apperr.Message(err)})
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warn("[HTTP] failed to parse request body", logger.String("path", r.URL.Path), logger.ErrorField(err))
		return apperr.Validation("invalid request body")
	}
	return nil
}

func privateCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "private")
		next.ServeHTTP(w, r)
	})
}
