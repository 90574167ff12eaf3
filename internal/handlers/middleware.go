package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"student-connect/internal/database"
	"student-connect/internal/responses"
	"student-connect/internal/utils"
)

type contextKey string

const (
	userClaimsKey contextKey = "userClaims"
)

func JWTMiddleware(jwtUtil *utils.JWTUtil) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				responses.SendErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				responses.SendErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			claims, err := jwtUtil.ValidateToken(tokenString)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					responses.SendErrorResponse(w, http.StatusUnauthorized, "Token has expired")
					return
				}
				responses.SendErrorResponse(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			ctx := context.WithValue(r.Context(), userClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser resolves the token subject to a stored user. It writes the
// error response itself and reports false when there is none.
func currentUser(w http.ResponseWriter, r *http.Request, db *database.Database) (database.UserRecord, bool) {
	claims, ok := r.Context().Value(userClaimsKey).(*utils.Claims)
	if !ok {
		responses.SendErrorResponse(w, http.StatusUnauthorized, "Invalid user context")
		return database.UserRecord{}, false
	}
	user, err := db.UserByEmail(claims.Subject)
	if err != nil {
		responses.SendErrorResponse(w, http.StatusUnauthorized, "Could not validate credentials")
		return database.UserRecord{}, false
	}
	return user, true
}
