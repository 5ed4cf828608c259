package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apperrors "medtrack/internal/errors"
	"medtrack/internal/medicine"
	"medtrack/internal/metrics"
)

// httpStatus maps application error codes onto HTTP statuses.
func httpStatus(err error) int {
	code := apperrors.GetCode(err)
	switch code {
	case apperrors.ErrMedicineNotFound.Code, apperrors.ErrNotFound.Code:
		return 404
	case apperrors.ErrInvalidMedicine.Code, apperrors.ErrInvalidSchedule.Code, apperrors.ErrBadRequest.Code:
		return 400
	case apperrors.ErrUnauthorized.Code:
		return 401
	case apperrors.ErrForbidden.Code:
		return 403
	}
	if strings.HasPrefix(code, "STORE_") {
		return 503
	}
	return 500
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := httpStatus(err)
	if status == 503 {
		metrics.RecordStoreError()
	}
	if status >= 500 {
		s.logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.SendString(metrics.Prometheus())
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(metrics.GetSnapshot())
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "default",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"token": tokenString})
}

func (s *Server) handleListMedicines(c *fiber.Ctx) error {
	meds, err := s.service.List()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(meds)
}

func (s *Server) handleCreateMedicine(c *fiber.Ctx) error {
	var med medicine.Medication
	if err := c.BodyParser(&med); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	created, err := s.service.Create(med)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(201).JSON(created)
}

func (s *Server) handleGetMedicine(c *fiber.Ctx) error {
	med, err := s.service.Get(c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(med)
}

func (s *Server) handleUpdateMedicine(c *fiber.Ctx) error {
	var med medicine.Medication
	if err := c.BodyParser(&med); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	med.ID = c.Params("id")

	updated, err := s.service.Update(med)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(updated)
}

func (s *Server) handleDeleteMedicine(c *fiber.Ctx) error {
	if err := s.service.Delete(c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(204)
}

func (s *Server) handleToggleTaken(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid time index"})
	}

	med, err := s.service.ToggleTaken(c.Params("id"), index)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(med)
}

func (s *Server) handleDelay(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid time index"})
	}

	var req delayRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
	}

	med, err := s.service.Delay(c.Params("id"), index, req.Minutes)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(med)
}

func (s *Server) handleTriggers(c *fiber.Ctx) error {
	triggers, err := s.service.Triggers(c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(triggers)
}

func (s *Server) handleToday(c *fiber.Ctx) error {
	items, err := s.service.Today()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(items)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	var day time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(medicine.DayFormat, raw, time.Local)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid date, expected YYYY-MM-DD"})
		}
		day = parsed
	}

	recs, err := s.service.History(day)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(recs)
}

func (s *Server) handleMedicineHistory(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)

	recs, err := s.service.MedicineHistory(c.Params("id"), days)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(recs)
}

func (s *Server) handleAdherence(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)

	stats, err := s.service.Adherence(days)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stats)
}
