package router

import (
	"github.com/oksasatya/scent-recommender/internal/application"
	"github.com/oksasatya/scent-recommender/internal/container"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/search"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/userstore"
	handlers "github.com/oksasatya/scent-recommender/internal/interface/http"
	"github.com/oksasatya/scent-recommender/internal/interface/middleware"
	"github.com/oksasatya/scent-recommender/internal/router/modules"
)

type PreferenceModuleDeps struct {
	Repo        *userstore.UserRepository
	Auth        *application.AuthService
	Preferences *application.PreferenceService
	AuthHandler *handlers.AuthHandler
	PrefHandler *handlers.PreferenceHandler
}

func buildDeps() PreferenceModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	repo := userstore.NewUserRepository(container.GetKV(), cfg.KVUsersKey)

	auth := application.NewAuthService(repo, container.GetJWT(), container.GetRedis(), container.GetPublisher(), logger)
	prefs := application.NewPreferenceService(
		repo,
		application.NewRecommender(container.GetModel(), logger),
		application.NewExpander(container.GetModel(), logger),
		container.GetPublisher(),
		logger,
	)

	var searcher handlers.PreferenceSearcher
	if es := container.GetES(); es != nil {
		searcher = search.NewPreferenceIndex(es, cfg.ESPreferencesIndex, logger)
	}

	return PreferenceModuleDeps{
		Repo:        repo,
		Auth:        auth,
		Preferences: prefs,
		AuthHandler: handlers.NewAuthHandler(auth, logger, cfg.CookieDomain, cfg.CookieSecure),
		PrefHandler: handlers.NewPreferenceHandler(prefs, searcher, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	rdb := container.GetRedis()
	deps := buildDeps()

	r.Add(modules.NewAuthModule(deps.AuthHandler, container.GetJWT(), rdb))

	prefModule := modules.NewPreferenceModule(deps.PrefHandler, container.GetJWT(), rdb, cfg.SynthRateLimit, cfg.SynthRateWindow)
	if cfg.Env == "development" {
		prefModule.Allow = middleware.AllowPrivateIP()
	}
	r.Add(prefModule)

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
