package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/NewChoBo/ante-apocalypse-sub003/arsenal"
)

func main() {
	// .env is optional; real environment variables and flags win over it.
	godotenv.Load()
	setupLogging()

	addr := flag.String("addr", envOr("ADDR", ":8080"), "HTTP listen address")
	clientDir := flag.String("client", os.Getenv("CLIENT_DIR"), "Path to client directory (default: ../client)")
	dbPath := flag.String("db", envOr("DB_PATH", "arena.db"), "SQLite database path")
	arsenalPath := flag.String("arsenal", os.Getenv("ARSENAL_PATH"), "Weapon/wave/upgrade YAML (default: built-in set)")
	flag.Parse()

	if *clientDir == "" {
		*clientDir = locateClientDir()
	}

	reg := arsenal.Default()
	if *arsenalPath != "" {
		r, err := arsenal.LoadFile(*arsenalPath)
		if err != nil {
			logrus.WithError(err).Fatal("arsenal load failed")
		}
		reg = r
	}

	db, err := OpenDB(*dbPath)
	if err != nil {
		logrus.WithError(err).Fatal("database open failed")
	}
	defer db.Close()

	analytics := NewAnalytics(db)
	defer analytics.Stop()

	hub := NewHub(db, analytics, reg)
	go hub.Run()

	mux := SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":    *addr,
			"client":  *clientDir,
			"db":      *dbPath,
			"weapons": len(reg.Weapons),
			"waves":   len(reg.Waves),
		}).Info("server starting")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("listen failed")
		}
	}()

	<-stop
	logrus.Info("shutting down")
	hub.sessions.StopAll()
	server.Close()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// locateClientDir prefers the client directory shipped next to the binary,
// then the repo layout used during development.
func locateClientDir() string {
	exe, _ := os.Executable()
	dir := filepath.Join(filepath.Dir(exe), "..", "client")
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	return "../client"
}
