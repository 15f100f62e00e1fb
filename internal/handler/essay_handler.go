package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/melhorenem-api/internal/dto"
	"github.com/noah-isme/melhorenem-api/internal/service"
	"github.com/noah-isme/melhorenem-api/internal/utils"
	"github.com/noah-isme/melhorenem-api/pkg/ai"
)

const (
	msgInvalidPayload  = "Corpo da requisição inválido."
	msgMissingFields   = "Redação ou ID de usuário ausente."
	msgMissingOwner    = "ID de usuário ausente."
	msgTextTooShort    = "A redação é muito curta para ser corrigida."
	msgEssayNotFound   = "Redação não encontrada."
	msgInvalidEssayID  = "ID de redação inválido."
	msgScoringTimeout  = "Tempo esgotado ao aguardar a correção."
	msgScoringFailed   = "Falha ao obter a correção."
	msgScoringInvalid  = "A correção retornada é inválida."
	msgScoringDisabled = "Serviço de correção não configurado."
)

// EssayHandler exposes grading, draft and essay detail endpoints. The userId sent by the client
// is trusted as-is; there is no authentication in front of these routes.
type EssayHandler struct {
	service service.EssayService
	logger  zerolog.Logger
}

// NewEssayHandler constructs an essay handler.
func NewEssayHandler(service service.EssayService, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		service: service,
		logger:  logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register wires essay routes. gradeMiddleware runs in front of the grading route only.
func (h *EssayHandler) Register(router fiber.Router, gradeMiddleware ...fiber.Handler) {
	gradeHandlers := append(append([]fiber.Handler{}, gradeMiddleware...), h.grade)
	router.Post("/corrigir-redacao", gradeHandlers...)
	router.Post("/salvar-rascunho", h.saveDraft)
	router.Get("/redacao/:id", h.get)
}

func (h *EssayHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeEssayRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	response, err := h.service.SubmitForGrading(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err, "Erro interno ao salvar correção.")
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}

func (h *EssayHandler) saveDraft(c *fiber.Ctx) error {
	var payload dto.SaveDraftRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidPayload)
	}

	response, err := h.service.SaveDraft(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err, "Erro interno ao salvar rascunho.")
	}

	return utils.SendJSON(c, fiber.StatusCreated, response)
}

func (h *EssayHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgInvalidEssayID)
	}

	response, err := h.service.Get(c.UserContext(), id, c.Query("userId"))
	if errors.Is(err, service.ErrMissingOwner) {
		return utils.SendError(c, fiber.StatusBadRequest, msgMissingOwner)
	}
	if err != nil {
		return h.handleError(c, err, "Erro interno ao buscar detalhes.")
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}

func (h *EssayHandler) handleError(c *fiber.Ctx, err error, persistenceMessage string) error {
	switch {
	case errors.Is(err, service.ErrMissingOwner), errors.Is(err, service.ErrEmptyText):
		return utils.SendError(c, fiber.StatusBadRequest, msgMissingFields)
	case errors.Is(err, service.ErrTextTooShort):
		return utils.SendError(c, fiber.StatusBadRequest, msgTextTooShort)
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrEssayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, msgEssayNotFound)
	}

	requestLogger(h.logger, c).Error().Err(err).Str("route", c.Route().Path).Msg("essay request failed")

	switch {
	case errors.Is(err, service.ErrPersistence):
		return utils.SendError(c, fiber.StatusInternalServerError, persistenceMessage)
	case errors.Is(err, ai.ErrTimeout):
		return utils.SendError(c, fiber.StatusInternalServerError, msgScoringTimeout)
	case errors.Is(err, ai.ErrMalformedResponse):
		return utils.SendError(c, fiber.StatusInternalServerError, msgScoringInvalid)
	case errors.Is(err, ai.ErrUpstreamFailure):
		return utils.SendError(c, fiber.StatusInternalServerError, msgScoringFailed)
	case errors.Is(err, ai.ErrNotConfigured):
		return utils.SendError(c, fiber.StatusInternalServerError, msgScoringDisabled)
	default:
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
}
