package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/qldtariffs/qldtariffs/pkg/log"
)

// authMiddleware requires a valid bearer ID token on every API request when
// any verifiers are configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		if len(s.oidcVerifiers) == 0 {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Ctx(ctx).WarnContext(ctx, "no auth header found")
			writeJSONError(w, "missing auth token", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Ctx(ctx).ErrorContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}

		email, userID, err := s.authenticateToken(ctx, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
			writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
			return
		}

		ctx = log.WithAttrs(ctx, slog.String("userID", userID))
		if email != "" {
			ctx = log.WithAttrs(ctx, slog.String("email", email))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticateToken returns the email and subject of the first verifier that
// accepts token. The email claim is optional.
func (s *Server) authenticateToken(ctx context.Context, token string) (string, string, error) {
	var errs []error

	for providerName, verifier := range s.oidcVerifiers {
		idToken, err := verifier(ctx, token)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s verifier failed: %w", providerName, err))
			continue
		}
		var claims struct {
			Email string `json:"email"`
		}
		if err := idToken.Claims(&claims); err != nil {
			log.Ctx(ctx).DebugContext(ctx, "token has no readable claims", slog.String("provider", providerName), slog.Any("error", err))
		}
		return claims.Email, idToken.Subject, nil
	}

	if len(errs) > 1 {
		return "", "", errors.Join(errs...)
	}
	if len(errs) == 1 {
		return "", "", errs[0]
	}
	return "", "", errors.New("no valid audiences configured or token invalid")
}
