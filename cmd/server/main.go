package main

import (
	"log"
	"net/http"
	"os"

	"github.com/emark-cloud/caption-this/internal/auth"
	"github.com/emark-cloud/caption-this/internal/config"
	"github.com/emark-cloud/caption-this/internal/db"
	"github.com/emark-cloud/caption-this/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()
	auth.InitJWT(cfg.JWTSecret)

	conn, err := db.Open()
	if err != nil {
		if os.Getenv("DATABASE_URL") != "" {
			log.Fatalf("database connection failed: %v", err)
		}
		log.Printf("running without persistence: %v", err)
		conn = nil
	}
	if conn != nil {
		if err := db.Configure(conn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeSeconds, cfg.DBConnMaxIdleTimeSeconds); err != nil {
			log.Fatalf("database pool setup failed: %v", err)
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
	}

	var judge server.JudgeOracle
	if cfg.OpenAIAPIKey != "" {
		judge = server.NewOpenAIJudge(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Printf("OPENAI_API_KEY not set, round resolution disabled")
	}

	srv := server.New(conn, cfg, judge)
	if err := srv.Restore(); err != nil {
		log.Fatalf("state restore failed: %v", err)
	}

	addr := ":" + cfg.Port
	log.Printf("caption-this server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		log.Fatal(err)
	}
}
