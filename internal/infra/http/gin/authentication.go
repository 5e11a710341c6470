package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentacar/internal/domain/shared/actor"
	"rentacar/internal/domain/shared/apperr"
)

// TokenVerifier turns a bearer token into the acting principal.
type TokenVerifier interface {
	Verify(token string) (actor.Actor, error)
}

// AuthMiddleware attaches the actor of a valid bearer token to the request
// context. Requests without a token pass through anonymously; a token that
// fails verification is rejected with 401.
type AuthMiddleware struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Verifier == nil {
		c.Next()
		return
	}
	who, err := m.Verifier.Verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token", "kind": string(apperr.KindUnauthenticated)})
		return
	}
	c.Request = c.Request.WithContext(actor.WithActor(c.Request.Context(), who))
	c.Next()
}

func currentActor(c *gin.Context) (actor.Actor, bool) {
	return actor.FromContext(c.Request.Context())
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
