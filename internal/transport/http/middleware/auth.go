package middleware

import (
	"context"
	"net/http"

	"github.com/abekov/todo-api/internal/domain"
	"github.com/gin-gonic/gin"
)

// HeaderAuth carries the signed session token on every authenticated request.
const HeaderAuth = "x-auth"

const (
	ctxKeyUser  = "user"
	ctxKeyToken = "token"
)

// Authenticator is the subset of AuthUsecase the middleware needs.
// Defined here (point of use) so tests can inject a fake.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.User, error)
}

// Auth resolves the x-auth header to a user and stores {user, token} in the
// gin context. Any failure — missing header, bad signature, revoked session —
// aborts with 401 and an empty JSON body before the handler runs.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(HeaderAuth)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{})
			return
		}

		c.Set(ctxKeyUser, user)
		c.Set(ctxKeyToken, token)
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by Auth. Nil before Auth ran.
func CurrentUser(c *gin.Context) *domain.User {
	user, _ := c.Get(ctxKeyUser)
	u, _ := user.(*domain.User)
	return u
}

// CurrentToken returns the raw token the request authenticated with.
func CurrentToken(c *gin.Context) string {
	return c.GetString(ctxKeyToken)
}
