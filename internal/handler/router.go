/*
Package handler provides the HTTP handlers and routing setup for the chat
relay service.

This file defines the main Router, applying logging, CORS, and IP-based rate
limiting middleware before delegating requests to the API and WebSocket
handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"havenchat/internal/pkg/limiter"
	"havenchat/internal/pkg/logx"
	"havenchat/internal/pkg/resp"
)

const (
	// Queue joins per second per IP, with a small burst for retries.
	JoinRate  = 1.0
	JoinBurst = 3

	// WebSocket handshakes per second per IP.
	ConnectRate  = 0.5
	ConnectBurst = 3
)

// Router sets up the HTTP routing table (chi.Router) for the application.
func Router(deps *AppDeps) http.Handler {
	joinLimiter := limiter.NewIPRateLimiter(rate.Limit(JoinRate), JoinBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Haven Chat Relay",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(RequireUser(deps))

		api.Route("/chat", func(chat chi.Router) {
			rateLimitedJoin := joinLimiter.Middleware(HandleJoinQueue(deps))
			chat.Post("/queue/join", http.HandlerFunc(rateLimitedJoin.ServeHTTP))
			chat.Post("/queue/leave", HandleLeaveQueue(deps))
			chat.Get("/queue/status", HandleQueueStatus(deps))

			chat.Post("/session/end", HandleEndSession(deps))

			chat.Post("/files/presign-upload", HandlePresignUpload(deps))
			chat.Get("/files/presign-download", HandlePresignDownload(deps))
			chat.Post("/files/upload", HandleDirectUpload(deps))
		})
	})

	r.Get("/ws/chat", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
