package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain"
)

// CFDIHandler maneja las peticiones HTTP de CFDI (protegido).
type CFDIHandler struct {
	issue  *billing.IssueCFDIUseCase
	cancel *billing.CancelCFDIUseCase
}

// NewCFDIHandler construye el handler.
func NewCFDIHandler(issue *billing.IssueCFDIUseCase, cancel *billing.CancelCFDIUseCase) *CFDIHandler {
	return &CFDIHandler{issue: issue, cancel: cancel}
}

// ComputeTaxes calcula los importes de una partida.
// POST /api/cfdi/taxes
func (h *CFDIHandler) ComputeTaxes(c *fiber.Ctx) error {
	var in dto.TaxRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.issue.ComputeTaxes(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Preview arma y valida el comprobante sin timbrarlo.
// POST /api/cfdi/preview → 200 si es válido, 422 con las violaciones si no.
func (h *CFDIHandler) Preview(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CFDIRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.issue.Preview(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if !out.Valid {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(out)
}

// Stamp arma, valida y timbra el comprobante.
// POST /api/cfdi/stamp
func (h *CFDIHandler) Stamp(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CFDIRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.issue.Stamp(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Cancel solicita la cancelación de un CFDI timbrado.
// POST /api/cfdi/cancel
func (h *CFDIHandler) Cancel(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CancelCFDIRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.cancel.Cancel(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// respondError traduce la taxonomía de errores de dominio a HTTP:
//   - 400 entrada inválida
//   - 422 comprobante inválido o rechazo del PAC
//   - 409 envío duplicado
//   - 402 saldo de timbres agotado
//   - 503 fallo de comunicación con el PAC (reintentable)
func respondError(c *fiber.Ctx, err error) error {
	var (
		inErr  *domain.InvalidInputError
		valErr *domain.DocumentValidationError
		dupErr *domain.DuplicateSubmissionError
		stErr  *domain.StampingError
	)
	switch {
	case errors.As(err, &inErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: inErr.Message, Field: inErr.Field})
	case errors.As(err, &valErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:       "DOCUMENT_INVALID",
			Message:    domain.ErrDocumentInvalid.Error(),
			Violations: valErr.Violations,
		})
	case errors.As(err, &dupErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_SUBMISSION", Message: dupErr.Error()})
	case errors.As(err, &stErr):
		switch stErr.Kind {
		case domain.StampingRejected:
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: stErr.Code, Message: stErr.Message})
		case domain.StampingQuotaExhausted:
			return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{Code: stErr.Code, Message: stErr.Message})
		default:
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:      stErr.Code,
				Message:   domain.ErrStampingTransport.Error() + ": " + stErr.Message,
				Retryable: true,
			})
		}
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
