package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	s.app.Use(s.metricsMiddleware())

	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/metrics", s.handleMetrics)
	s.app.Get("/api/metrics", s.handleMetricsJSON)

	api := s.app.Group("/api")

	api.Post("/auth/login", s.rateLimitMiddleware(), s.handleLogin)

	protected := api.Use(s.authMiddleware())

	protected.Get("/medicines", s.handleListMedicines)
	protected.Post("/medicines", s.handleCreateMedicine)
	protected.Get("/medicines/:id", s.handleGetMedicine)
	protected.Put("/medicines/:id", s.handleUpdateMedicine)
	protected.Delete("/medicines/:id", s.handleDeleteMedicine)

	protected.Post("/medicines/:id/times/:index/toggle", s.handleToggleTaken)
	protected.Post("/medicines/:id/times/:index/delay", s.handleDelay)
	protected.Get("/medicines/:id/triggers", s.handleTriggers)
	protected.Get("/medicines/:id/history", s.handleMedicineHistory)

	protected.Get("/schedule/today", s.handleToday)

	protected.Get("/history", s.handleHistory)
	protected.Get("/history/stats", s.handleAdherence)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
