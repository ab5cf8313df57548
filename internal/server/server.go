package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"quizstream/internal/api"
	"quizstream/internal/config"
	"quizstream/internal/services/generate"
	"quizstream/internal/services/request"
	"quizstream/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server owns the fiber app and its wiring.
type Server struct {
	cfg *config.Config
	app *fiber.App
}

// New creates a server for the given configuration.
func New(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run() error {
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(s.cfg)

	port := s.cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	listenAddr := ":" + port

	s.app = createFiberApp(s.cfg)
	setupMiddleware(s.app, s.cfg)
	s.setupRoutes()

	fmt.Printf("QuizStream starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", s.cfg.Server.Environment)
	fmt.Printf("   Provider: %s (%s)\n", s.cfg.Generation.Provider, s.cfg.Generation.Model)
	fmt.Printf("   Go version: %s\n", runtime.Version())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(listenAddr); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		fiberlog.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		fiberlog.Info("Context cancelled, starting shutdown...")
	}

	fiberlog.Info("Server shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	shutdownErrChan := make(chan error, 1)
	go func() {
		shutdownErrChan <- s.app.ShutdownWithTimeout(30 * time.Second)
	}()

	select {
	case err := <-shutdownErrChan:
		if err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fiberlog.Info("Server shutdown completed successfully")
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timeout exceeded")
	}

	return nil
}

func (s *Server) setupRoutes() {
	reqSvc := request.NewService()
	respSvc := response.NewService()
	genSvc := generate.NewService(s.cfg)

	questionsHandler := api.NewQuestionsHandler(s.cfg, reqSvc, respSvc, genSvc)
	healthHandler := api.NewHealthHandler(s.cfg)

	s.app.Post("/api/questions", questionsHandler.Generate)
	s.app.Get("/health", healthHandler.HealthCheck)

	if s.cfg.Server.StaticDir != "" {
		s.app.Static("/", s.cfg.Server.StaticDir)
	}
}

func createFiberApp(cfg *config.Config) *fiber.App {
	isProd := cfg.IsProduction()

	return fiber.New(fiber.Config{
		AppName:           "QuizStream v1.0",
		EnablePrintRoutes: !isProd,
		ReadTimeout:       2 * time.Minute,
		// Generous write timeout: generation streams stay open until the
		// model stops producing tokens.
		WriteTimeout:   10 * time.Minute,
		IdleTimeout:    5 * time.Minute,
		ReadBufferSize: 8192,
		CaseSensitive:  true,
		StrictRouting:  false,
		ServerHeader:   "QuizStream",
	})
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	isProd := cfg.IsProduction()

	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	allowedOrigins := cfg.Server.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	allowedHeaders := []string{
		"Origin", "Content-Type", "Accept", "Cache-Control", "X-Request-ID",
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowHeaders:  strings.Join(allowedHeaders, ", "),
		AllowMethods:  "GET, POST, OPTIONS",
		MaxAge:        86400,
		ExposeHeaders: "Content-Type, X-Request-ID",
	}))
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	case "":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}
}
