package httpserver

import (
	"net/http"
	"strings"

	"tutormarket/internal/domain"

	"github.com/gin-gonic/gin"
)

const identityKey = "tutormarket.identity"

type sessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"`
}

func issueSessionHandler(svc IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, sessionID, err := svc.Issue(c.Request.Context())
		if err != nil {
			writeError(c, http.StatusInternalServerError, "could not create session")
			return
		}
		c.JSON(http.StatusCreated, sessionResponse{
			Token:     token,
			SessionID: sessionID,
			TokenType: "Bearer",
			ExpiresIn: svc.TTLSeconds(),
		})
	}
}

// identityMiddleware resolves the caller to exactly one identity: a
// registered user via X-User-ID, or an anonymous session via a Bearer
// token minted by POST /sessions/anonymous.
func identityMiddleware(svc IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader("X-User-ID")); userID != "" {
			c.Set(identityKey, domain.UserIdentity(userID))
			c.Next()
			return
		}

		authz := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(authz, "Bearer "); ok && token != "" {
			ident, err := svc.Resolve(c.Request.Context(), token)
			if err != nil {
				writeError(c, http.StatusUnauthorized, "invalid or expired session token")
				c.Abort()
				return
			}
			c.Set(identityKey, ident)
			c.Next()
			return
		}

		writeError(c, http.StatusUnauthorized, "missing credentials")
		c.Abort()
	}
}

func callerIdentity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	ident, ok := v.(domain.Identity)
	return ident, ok && ident.Valid()
}
