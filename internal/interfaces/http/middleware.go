package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/cmcs/claims-api/internal/domain/claim"
)

const (
	contextActor      = "actor"
	contextLecturerID = "lecturer_id"
)

// authMiddleware verifies the bearer token and attaches the acting user to
// the request context. Tokens carry sub, name, role and, for lecturers,
// lecturer_id.
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "missing bearer token"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "invalid token claims"})
			return
		}

		actor := claim.Actor{}
		if sub, ok := claims["sub"].(string); ok {
			actor.ID = sub
		}
		if name, ok := claims["name"].(string); ok {
			actor.Name = name
		}
		if role, ok := claims["role"].(string); ok {
			actor.Role = claim.Role(role)
		}
		if actor.ID == "" || !actor.Role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Error: "token missing subject or role"})
			return
		}

		c.Set(contextActor, actor)
		if id, ok := claims["lecturer_id"].(float64); ok {
			c.Set(contextLecturerID, int64(id))
		}
		c.Next()
	}
}

// requireRole rejects requests whose actor holds none of the given roles
func requireRole(roles ...claim.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, Response{Error: "insufficient role"})
	}
}

func actorFrom(c *gin.Context) claim.Actor {
	if v, ok := c.Get(contextActor); ok {
		if actor, ok := v.(claim.Actor); ok {
			return actor
		}
	}
	return claim.Actor{}
}

func lecturerIDFrom(c *gin.Context) (int64, bool) {
	if v, ok := c.Get(contextLecturerID); ok {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	return 0, false
}
