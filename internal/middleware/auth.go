package middleware

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mglynn/habitflow/internal/database"
	"github.com/mglynn/habitflow/internal/models"
	"github.com/mglynn/habitflow/internal/request"
	"github.com/mglynn/habitflow/internal/services/oidc"
	"go.uber.org/zap"
)

// Auth creates authentication middleware that validates bearer tokens
// against the configured OIDC provider. Users are created on first sight,
// keyed by the provider subject, and profile fields are refreshed when the
// token claims drift from the stored row.
func Auth(users *database.UserRepository, verifier *oidc.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondAuthError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondAuthError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, parts[1])
			if err != nil {
				logger.Warn("token_verification_failed", zap.Error(err))
				respondAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			user, err := users.GetByProviderID(ctx, claims.Sub)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					user = &models.User{
						ID:          uuid.New(),
						Email:       claims.Email,
						ProviderID:  &claims.Sub,
						DisplayName: displayNameFromClaims(claims),
					}
					if claims.Picture != "" {
						picture := claims.Picture
						user.PhotoURL = &picture
					}
					if err := users.Create(ctx, user); err != nil {
						logger.Error("user_create_failed", zap.Error(err))
						respondAuthError(w, http.StatusInternalServerError, "Failed to create user")
						return
					}
					logger.Info("user_created", zap.String("user_id", user.ID.String()))
				} else {
					logger.Error("user_lookup_failed", zap.Error(err))
					respondAuthError(w, http.StatusInternalServerError, "Database error")
					return
				}
			} else {
				updateNeeded := false
				if user.Email != claims.Email && claims.Email != "" {
					user.Email = claims.Email
					updateNeeded = true
				}
				if name := displayNameFromClaims(claims); name != "" && user.DisplayName != name {
					user.DisplayName = name
					updateNeeded = true
				}
				if claims.Picture != "" && (user.PhotoURL == nil || *user.PhotoURL != claims.Picture) {
					picture := claims.Picture
					user.PhotoURL = &picture
					updateNeeded = true
				}
				if updateNeeded {
					if err := users.Update(ctx, user); err != nil {
						logger.Warn("user_update_failed", zap.Error(err))
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

// displayNameFromClaims prefers the name claim and falls back to the
// local part of the email address.
func displayNameFromClaims(claims *models.JWTClaims) string {
	if claims.Name != "" {
		return claims.Name
	}
	if at := strings.Index(claims.Email, "@"); at > 0 {
		return claims.Email[:at]
	}
	return claims.Email
}

func respondAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
