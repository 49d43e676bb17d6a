package webserver

import (
	"crypto/ed25519"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/veilspire/realmgov/src/forums"
	"github.com/veilspire/realmgov/src/gateway/config"
	"github.com/veilspire/realmgov/src/ingest"
	"github.com/veilspire/realmgov/src/interactions"
)

// Deps carries the wired components the routes need.
type Deps struct {
	Config    config.Config
	DB        *gorm.DB
	RDB       *redis.Client
	PublicKey ed25519.PublicKey
	Router    *interactions.Router
	Forums    *forums.Store
	Pipeline  *ingest.Pipeline
	Notifier  ReviewNotifier
}

func New(d Deps) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, d)
	return g
}

func attachRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	interH := NewInteractions(d.PublicKey, d.Router)
	ingestH := NewIngest(d.Forums, d.Pipeline, d.RDB)
	appsH := NewApplications(d.DB, d.Notifier, d.Config.RequiredApprovals)
	authH := NewAuth(d.Config.IngestSecret, []byte(d.Config.JWTSecret))

	limiter := NewRateLimiter(60, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/discord/interactions", interH.Handle)
		v1.POST("/auth/token", authH.Token)

		secured := v1.Group("")
		secured.Use(BearerMiddleware(d.Config.IngestSecret), RateLimitMiddleware(limiter))
		{
			secured.POST("/ingest", ingestH.Handle)
			secured.POST("/applications", appsH.Create)
		}
	}

	admin := v1.Group("/admin")
	admin.Use(JWTMiddleware([]byte(d.Config.JWTSecret)))
	{
		adminH := NewAdmin(d.DB, d.Forums, d.Notifier, d.Config.RequiredApprovals)
		admin.GET("/forums", adminH.ListForums)
		admin.GET("/applications", adminH.ListApplications)
		admin.POST("/applications/:id/refresh", adminH.RefreshApplicationMessage)
	}
}
