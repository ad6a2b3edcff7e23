package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/scent-recommender/pkg/helpers"
	"github.com/oksasatya/scent-recommender/pkg/response"
)

// CtxUsername is the Gin context key holding the authenticated username.
const CtxUsername = "username"

// SessionKeyFunc maps a username to its Redis session hash key.
type SessionKeyFunc func(username string) string

// Auth validates the access token and, when rdb is set, requires the live
// session hash to carry the token's session id. On success it sets
// CtxUsername.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager, sessionKey SessionKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.AccessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), sessionKey(claims.Username)).Result()
			if err != nil || len(data) == 0 || data["sid"] != claims.SessionID {
				response.Abort(c, http.StatusUnauthorized, "session not found", nil)
				return
			}
		}

		c.Set(CtxUsername, claims.Username)
		c.Next()
	}
}
