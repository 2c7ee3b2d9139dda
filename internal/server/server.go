package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emark-cloud/caption-this/internal/auth"
	"github.com/emark-cloud/caption-this/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store     *Store
	ledger    *Ledger
	nicknames *nicknameStore
	feed      *feedHub
	judge     JudgeOracle
	db        *gorm.DB
	cfg       config.Config
}

// New builds a server. conn may be nil for memory-only mode (tests, or
// running without Postgres); judge may be nil, in which case resolution
// reports the oracle as unconfigured.
func New(conn *gorm.DB, cfg config.Config, judge JudgeOracle) *Server {
	now := func() time.Time { return time.Now().UTC() }
	return &Server{
		store:     NewStore(now),
		ledger:    NewLedger(),
		nicknames: newNicknameStore(),
		feed:      newFeedHub(),
		judge:     judge,
		db:        conn,
		cfg:       cfg,
	}
}

func (s *Server) Router() http.Handler {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", s.handleHealth)
	router.POST("/api/auth/login", s.handleLogin)

	api := router.Group("/api")
	api.GET("/rounds", s.handleActiveRounds)
	api.GET("/rounds/:id", s.handleGetRound)
	api.GET("/rounds/:id/result", s.handleGetResult)
	api.GET("/leaderboard", s.handleLeaderboard)
	api.GET("/players/:address/xp", s.handlePlayerXP)
	api.GET("/players/:address/nickname", s.handleGetNickname)
	api.POST("/nicknames/lookup", s.handleNicknameLookup)
	api.GET("/stats", s.handleStats)

	authed := api.Group("")
	authed.Use(auth.Middleware())
	authed.POST("/rounds", s.handleCreateRound)
	authed.POST("/rounds/:id/captions", s.handleSubmitCaption)
	authed.POST("/rounds/:id/cancel", s.handleCancelRound)
	authed.POST("/rounds/:id/resolve", s.handleResolveRound)
	authed.POST("/profile/nickname", s.handleSetNickname)

	router.GET("/ws/feed", s.handleFeedWebsocket)

	return router
}
