package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/formpipe/formpipe/internal/api"
	"github.com/formpipe/formpipe/internal/db"
	"github.com/formpipe/formpipe/internal/middleware"
	"github.com/formpipe/formpipe/internal/services"
	"github.com/formpipe/formpipe/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	addr := utils.SafeEnv("FORMPIPE_ADDR", ":8080")
	sqlitePath := utils.SafeEnv("FORMPIPE_SQLITE_PATH", "")
	rateMax := utils.EnvInt("FORMPIPE_RATE_MAX", 5)
	rateWindow := utils.EnvDuration("FORMPIPE_RATE_WINDOW", time.Minute)

	store, err := openStore(sqlitePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	limiter := services.NewFixedWindowLimiter(rateMax, rateWindow)
	router := api.NewRouterWithStore(store, limiter)

	adminEmail := utils.SafeEnv("FORMPIPE_ADMIN_EMAIL", "")
	adminPassword := utils.SafeEnv("FORMPIPE_ADMIN_PASSWORD", "")
	if err := router.AuthService().SeedAdmin(adminEmail, adminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	mux := http.NewServeMux()
	router.Register(mux)

	handler := middleware.CORS(middleware.SecureHeaders(middleware.NoStore(middleware.WithAuth(mux))))

	log.Printf("formpipe server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore returns the sqlite-backed store when a path is configured and
// an in-memory store otherwise (development and tests).
func openStore(sqlitePath string) (api.Store, error) {
	if sqlitePath == "" {
		log.Printf("FORMPIPE_SQLITE_PATH not set, using in-memory store")
		return api.NewMemoryStore(), nil
	}
	conn, err := sql.Open("sqlite3", sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(conn, utils.SafeEnv("FORMPIPE_MIGRATIONS_DIR", "")); err != nil {
		return nil, err
	}
	return db.NewStore(conn)
}
