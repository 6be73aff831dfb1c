package handler

import (
	"net/http"

	"havenchat/internal/pkg/errs"
	"havenchat/internal/pkg/logx"
	"havenchat/internal/pkg/resp"
)

// HandleJoinQueue puts the authenticated user into the matchmaking queue.
// The user must already hold a live WebSocket connection, otherwise a match
// could never be delivered.
func HandleJoinQueue(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFromContext(r)
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if customErr := deps.Relay.JoinQueue(userID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		logx.Info("User joined matchmaking queue", "user_id", userID)
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleLeaveQueue removes the authenticated user from the matchmaking queue.
// Succeeds whether or not the user was queued.
func HandleLeaveQueue(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFromContext(r)
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		deps.Relay.LeaveQueue(userID)
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleQueueStatus reports queue occupancy, total and per wait-time band.
func HandleQueueStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Relay.QueueStatus())
	}
}

// HandleEndSession deliberately ends the authenticated user's active chat
// session. The partner is notified that the chat ended (as opposed to the
// connection dropping).
func HandleEndSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := UserFromContext(r)
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if customErr := deps.Relay.EndSessionFor(userID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		logx.Info("User ended chat session", "user_id", userID)
		resp.RespondSuccess(w, r, nil)
	}
}
