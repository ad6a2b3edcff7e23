package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/scent-recommender/config"
	"github.com/oksasatya/scent-recommender/internal/application"
	"github.com/oksasatya/scent-recommender/internal/domain/repository"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router auto-wires modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	kvStore     repository.KVStore
	redisClient *redis.Client
	esClient    *elasticsearch.Client

	jwtManager *helpers.JWTManager

	model     application.ModelInvoker
	publisher application.EventPublisher
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetKV(s repository.KVStore)   { kvStore = s }
func GetKV() repository.KVStore    { return kvStore }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

func SetModel(m application.ModelInvoker)       { model = m }
func GetModel() application.ModelInvoker        { return model }
func SetPublisher(p application.EventPublisher) { publisher = p }
func GetPublisher() application.EventPublisher  { return publisher }
func SetES(c *elasticsearch.Client)             { esClient = c }
func GetES() *elasticsearch.Client              { return esClient }
