package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agamai/meet/internal/adapters/signal"
	"github.com/agamai/meet/internal/app"
	"github.com/agamai/meet/internal/config"
)

// ClientTokenMiddleware issues each browser a stable token that doubles
// as the peer's session id on the signaling channel.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("MeetSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	h := &Handlers{Coord: coord, Cfg: cfg}
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/transcript/:room", h.Transcript)
	api.GET("/engagement/:room", h.Engagement)
	api.GET("/sentiment/:room", h.Sentiment)
	api.POST("/summarize", h.Summarize)
	api.POST("/nudge", h.Nudge)
	api.GET("/webrtc/config", h.WebRTCConfig)

	ctl := signal.NewController(coord, cfg)
	api.GET("/ws/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
