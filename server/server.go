package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/peergram/go-suggest/env"
	"github.com/peergram/go-suggest/service/logger"
	"github.com/peergram/go-suggest/service/recommend"
	"github.com/peergram/go-suggest/service/redis"
	"github.com/peergram/go-suggest/service/store"
)

// Init initializes the server
func Init() {
	setDefaults()

	ctx := context.Background()

	pool := store.MustCreatePgxPool(ctx)
	pg := store.NewPostgresStore(pool)

	var social store.SocialStore = pg
	if env.GetString(ctx, "SOCIAL_STORE_BACKEND") == "neo4j" {
		neo, err := store.NewNeo4jSocialStore(ctx,
			env.GetString(ctx, "NEO4J_URI"),
			env.GetString(ctx, "NEO4J_USER"),
			env.GetString(ctx, "NEO4J_PASSWORD"),
			env.GetString(ctx, "NEO4J_DATABASE"),
		)
		if err != nil {
			panic(err)
		}
		social = neo
	}

	var opts []recommend.EngineOption
	if env.GetString(ctx, "SUGGESTION_CACHE_BACKEND") == "redis" {
		cache := recommend.NewRedisSuggestionCache(redis.NewCache(redis.SuggestionsCache), 10*time.Minute)
		opts = append(opts, recommend.WithSuggestionCache(cache))
	}

	engine := recommend.NewEngine(pg, social, opts...)

	router := CoreInit(engine)
	http.Handle("/", router)
}

// CoreInit initializes core server functionality. This is abstracted
// so the test server can also utilize it
func CoreInit(engine *recommend.Engine) *gin.Engine {
	logger.For(nil).Info("initializing server...")

	if viper.GetString("ENV") != "production" {
		gin.SetMode(gin.DebugMode)
		logrus.SetLevel(logrus.DebugLevel)
	}

	router := gin.Default()

	return handlersInit(router, engine)
}

func handlersInit(router *gin.Engine, engine *recommend.Engine) *gin.Engine {
	router.GET("/health", healthCheck())

	users := router.Group("/users/:user_id")
	users.GET("/suggestions", getSuggestions(engine))
	users.POST("/suggestions/invalidate", invalidateSuggestions(engine))

	suggestions := router.Group("/suggestions")
	suggestions.POST("/invalidate", invalidateAllSuggestions(engine))
	suggestions.POST("/events", recordSuggestionEvent(engine))

	return router
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("PORT", 4000)
	viper.SetDefault("POSTGRES_HOST", "0.0.0.0")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "")
	viper.SetDefault("POSTGRES_DB", "peergram")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("REDIS_PASS", "")
	viper.SetDefault("SOCIAL_STORE_BACKEND", "postgres")
	viper.SetDefault("SUGGESTION_CACHE_BACKEND", "memory")
	viper.SetDefault("NEO4J_URI", "bolt://localhost:7687")
	viper.SetDefault("NEO4J_USER", "")
	viper.SetDefault("NEO4J_PASSWORD", "")
	viper.SetDefault("NEO4J_DATABASE", "")

	viper.AutomaticEnv()
}
