package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"medtrack/internal/config"
	"medtrack/internal/service"
)

type Server struct {
	app     *fiber.App
	config  *config.Config
	service *service.Service
	logger  *zap.Logger
	limiter *clientLimiter
}

func New(cfg *config.Config, svc *service.Service, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:     app,
		config:  cfg,
		service: svc,
		logger:  logger,
		limiter: newClientLimiter(10, 30),
	}

	s.setupRoutes()
	return s
}

type delayRequest struct {
	Minutes int `json:"minutes"`
}

type loginRequest struct {
	Password string `json:"password"`
}
