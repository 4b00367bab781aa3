package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/responses"
	pkgauth "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/auth"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ProviderID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing provider id"))
				return
			}

			ctx := WithProviderID(r.Context(), claims.ProviderID)
			ctx = WithRole(ctx, claims.Role)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"provider_id":   claims.ProviderID.String(),
					"provider_role": string(claims.Role),
				})
				ctx = logg.WithProviderID(ctx, claims.ProviderID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
