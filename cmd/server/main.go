package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"pibbleclicker/internal/config"
	"pibbleclicker/internal/serverapp"
)

func main() {
	// A missing .env is fine; env vars may come from the shell.
	_ = godotenv.Load()

	path := os.Getenv("PIBBLE_CONFIG")
	if path == "" {
		path = "pibble_config.yml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	config.ApplyEnv(cfg)

	srv, err := serverapp.New(serverapp.Options{
		Config: cfg,
		Logger: log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	addr := ":" + cfg.Server.Port
	log.Printf("listening on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, srv.Handler()))
}
