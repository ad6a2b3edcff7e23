package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/scent-recommender/internal/application"
	handlers "github.com/oksasatya/scent-recommender/internal/interface/http"
	"github.com/oksasatya/scent-recommender/internal/interface/middleware"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
)

// PreferenceModule wires the preference endpoints; all require a session.
type PreferenceModule struct {
	Handler *handlers.PreferenceHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client

	// SynthLimit requests per SynthWindow per user on recommendation and expansion.
	SynthLimit  int
	SynthWindow time.Duration
	Allow       middleware.AllowFunc
}

func NewPreferenceModule(h *handlers.PreferenceHandler, jwt *helpers.JWTManager, rdb *redis.Client, synthLimit int, synthWindow time.Duration) *PreferenceModule {
	return &PreferenceModule{Handler: h, JWT: jwt, Redis: rdb, SynthLimit: synthLimit, SynthWindow: synthWindow}
}

func (m *PreferenceModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(
		middleware.Auth(m.Redis, m.JWT, application.SessionKey),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUsername("api"), m.Allow),
	)
	synth := middleware.RateLimit(m.Redis, m.SynthLimit, m.SynthWindow, middleware.KeyByUsername("synth"), m.Allow)
	{
		auth.GET("/preferences", m.Handler.Get)
		auth.PUT("/preferences/scents", m.Handler.SaveScents)
		auth.GET("/preferences/search", m.Handler.SearchPreferences)

		auth.POST("/recommendations", synth, m.Handler.Recommend)
		auth.GET("/recommendations", m.Handler.Suggestions)
		auth.POST("/scents/expand", synth, m.Handler.ExpandScents)

		auth.POST("/suggestions/like", m.Handler.Like)
		auth.POST("/suggestions/dislike", m.Handler.Dislike)

		auth.GET("/favorites", m.Handler.Favorites)
		auth.POST("/favorites/toggle", m.Handler.ToggleFavorite)
		auth.DELETE("/favorites/:name", m.Handler.RemoveFavorite)

		auth.DELETE("/session", m.Handler.ClearSession)
	}
}
