package main

import (
	"log"
	"net/http"

	"sceneflow/internal/api"
	"sceneflow/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	h := api.NewServer(cfg)
	log.Printf("sceneflow api listening on %s providers=%q", cfg.APIAddr, cfg.AnalysisProviders)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
