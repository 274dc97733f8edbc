package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/groomly/groomly-api/internal/pkg/actor"
	"github.com/groomly/groomly-api/internal/pkg/jwt"
	"github.com/groomly/groomly-api/internal/pkg/logger"
	"github.com/groomly/groomly-api/internal/pkg/response"
)

type contextKey string

const ActorKey contextKey = "actor"

// Auth returns middleware that validates JWT and stores the Actor in context.
// Websocket upgrades may pass the token as ?token= since browsers cannot set
// headers on the handshake.
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			if claims.Role != actor.RoleAdmin && claims.ShopID == uuid.Nil {
				response.Forbidden(w, "Token is not bound to a shop")
				return
			}

			ctx := WithActor(r.Context(), actor.Actor{
				UserID: claims.UserID,
				ShopID: claims.ShopID,
				Role:   claims.Role,
			})
			ctx = logger.WithFields(ctx, "user_id", claims.UserID.String(), "shop_id", claims.ShopID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// WithActor stores the actor in ctx
func WithActor(ctx context.Context, a actor.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, a)
}

// GetActor extracts the actor from context
func GetActor(ctx context.Context) (actor.Actor, bool) {
	a, ok := ctx.Value(ActorKey).(actor.Actor)
	return a, ok
}

// RequireRole returns middleware that checks user role
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := GetActor(r.Context())
			if !ok {
				response.Unauthorized(w, "Unauthorized")
				return
			}

			for _, role := range roles {
				if a.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "Insufficient permissions")
		})
	}
}

// RequireAdmin returns middleware that requires admin role
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(actor.RoleAdmin)
}
