/*
Package handler provides the HTTP handlers and routing setup for the chat
relay service.

This file contains HandleWebSocket: rate limiting, cookie authentication
(performed before the upgrade so failures still get a proper HTTP error
response), the WebSocket upgrade itself, and the client lifecycle start.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"havenchat/internal/app/relay"
	"havenchat/internal/pkg/errs"
	"havenchat/internal/pkg/limiter"
	"havenchat/internal/pkg/logx"
	"havenchat/internal/pkg/resp"
)

// HandleWebSocket processes WebSocket connection requests for the chat relay.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		// The handshake is a plain GET without the API middleware chain, so
		// the cookie is resolved here, before the upgrade, while an HTTP
		// error response is still possible.
		cookie, err := r.Cookie(deps.Config.SessionCookieName)
		if err != nil {
			logx.Warn("WebSocket request rejected: Missing session cookie")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		userID, err := deps.Directory.Resolve(r.Context(), cookie.Value)
		if err != nil {
			logx.Warn("WebSocket request rejected: Unresolvable session cookie")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := relay.NewClient(deps.Relay, conn, userID)

		go client.WritePump()

		logx.Info("WebSocket connection established",
			"client_id", userID,
			"handle", client.Handle(),
		)

		deps.Relay.Register(client)

		client.ReadPump()
	}
}
