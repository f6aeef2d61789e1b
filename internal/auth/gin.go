package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/campus-connect/internal/errors"
)

// GinMiddleware validates the Authorization header and stores the identity
// in the request context.
func GinMiddleware(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		claims, err := v.Validate(c.Request.Context(), token)
		if err != nil {
			code := http.StatusUnauthorized
			if errors.Is(err, svcErr.ErrTransient) {
				code = http.StatusServiceUnavailable
			}
			c.AbortWithStatusJSON(code, gin.H{"error": "invalid session"})
			return
		}

		ctx := WithIdentity(c.Request.Context(), Identity{
			UserID: claims.UserID(),
			Email:  claims.Email,
			Token:  token,
			Claims: claims,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
