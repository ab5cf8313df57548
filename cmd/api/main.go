package main

import (
	"log"

	"quizstream/internal/config"
	"quizstream/internal/server"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

func main() {
	envFiles := []string{".env.local", ".env.development", ".env"}
	config.LoadEnvFiles(envFiles)

	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		fiberlog.Fatalf("Failed to load config: %v", err)
	}

	log.Println("Starting QuizStream server...")
	if err := server.New(cfg).Run(); err != nil {
		fiberlog.Fatalf("Server failed: %v", err)
	}
}
