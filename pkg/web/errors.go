package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/homesage/homesage/pkg/homeassistant"
	"github.com/homesage/homesage/pkg/persistence"
	"github.com/homesage/homesage/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func badGateway(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(502).
		WithInstance(c.Path()).
		WithType("upstream_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadGateway).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case persistence.IsConversationNotFound(err):
		return notFound(c, "conversation_not_found", "conversation not found")

	case persistence.IsAnalysisNotFound(err):
		return notFound(c, "analysis_not_found", "no analysis has been run yet")

	case errors.Is(err, homeassistant.ErrEntityNotFound):
		return notFound(c, "entity_not_found", "entity not found")

	case errors.Is(err, homeassistant.ErrUnauthorized):
		return badGateway(c, "Home Assistant rejected the access token")

	default:
		return internalError(c, err)
	}
}
