// Package middleware provides gin middleware for the bookshelf API.
package middleware

import (
	"ctchen222/bookshelf/internal/api/response"
	"ctchen222/bookshelf/internal/api/service"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const accountIDKey = "bookshelf.accountID"

// RequireAuth rejects requests without a valid session token in the
// Authorization header. The header carries the raw token; a "Bearer "
// prefix is also accepted.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))

		accountID, err := auth.Verify(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("account.id", accountID))
		c.Set(accountIDKey, accountID)
		c.Next()
	}
}

// AccountID returns the account bound to the request by RequireAuth.
func AccountID(c *gin.Context) string {
	return c.GetString(accountIDKey)
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
