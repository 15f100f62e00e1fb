package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/melhorenem-api/internal/service"
	"github.com/noah-isme/melhorenem-api/internal/utils"
)

// DashboardHandler exposes the per-owner dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler creates a new handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard-data/:userId", h.getDashboard)
}

func (h *DashboardHandler) getDashboard(c *fiber.Ctx) error {
	dashboard, cacheHit, err := h.service.BuildDashboard(c.UserContext(), c.Params("userId"))
	if err != nil {
		if errors.Is(err, service.ErrMissingOwner) {
			return utils.SendError(c, fiber.StatusBadRequest, msgMissingOwner)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "Erro interno ao carregar dados do dashboard.")
	}

	if cacheHit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
	return utils.SendJSON(c, fiber.StatusOK, dashboard)
}
