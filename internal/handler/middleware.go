/*
Package handler provides the HTTP handlers and routing setup for the chat
relay service.

This file defines the identity middleware: every /api route resolves the
session cookie to a user id before the handler runs, and the handlers read
that id from the request context.
*/
package handler

import (
	"context"
	"errors"
	"net/http"

	"havenchat/internal/app/identity"
	"havenchat/internal/pkg/errs"
	"havenchat/internal/pkg/logx"
	"havenchat/internal/pkg/resp"
)

// contextKey is a private type so context values cannot collide with other
// packages.
type contextKey string

const userIDContextKey contextKey = "userID"

// RequireUser resolves the session cookie into a user id and stores it in the
// request context. Requests without a resolvable identity get a 401 and never
// reach the handler.
func RequireUser(deps *AppDeps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(deps.Config.SessionCookieName)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			userID, err := deps.Directory.Resolve(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, identity.ErrNoCredential) &&
					!errors.Is(err, identity.ErrBadCredential) &&
					!errors.Is(err, identity.ErrSessionNotFound) {
					logx.Error(err, "Identity resolution failed")
				}

				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user id placed by RequireUser,
// or empty if the middleware did not run.
func UserFromContext(r *http.Request) string {
	userID, _ := r.Context().Value(userIDContextKey).(string)
	return userID
}
