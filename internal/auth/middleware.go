package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
)

const actorKey = "sitebooks.actor"

// Actor is the authenticated caller.
type Actor struct {
	UserID    uint
	Role      model.Role
	ProjectID *uint
}

// Accounts loads the current state of a token's user. It returns an Unauthorized
// error when the user no longer exists or is disabled.
type Accounts interface {
	ActiveUser(ctx context.Context, id uint) (*model.User, error)
}

// Authenticate rejects requests without a valid bearer token and stores the Actor.
// With accounts set, role and project are taken from the stored user rather than
// the claims, so changes apply before the token expires.
func Authenticate(issuer *Issuer, accounts Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := issuer.Verify(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		actor := Actor{UserID: claims.UserID, Role: claims.Role, ProjectID: claims.ProjectID}
		if accounts != nil {
			u, err := accounts.ActiveUser(c.Request.Context(), claims.UserID)
			switch {
			case apperr.Is(err, apperr.KindUnauthorized):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			case err != nil:
				c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
				return
			}
			actor = Actor{UserID: u.ID, Role: u.Role, ProjectID: u.AssignedProjectID}
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the caller stored by Authenticate.
func ActorFrom(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return Actor{}, false
	}
	a, ok := v.(Actor)
	return a, ok
}

// WithActor stores a on c. Used by tests and internal callers.
func WithActor(c *gin.Context, a Actor) {
	c.Set(actorKey, a)
}
