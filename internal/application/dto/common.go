package dto

import "github.com/jhoicas/cfdi-api/internal/domain"

// ErrorResponse cuerpo de error HTTP.
// Field, Violations y Retryable solo se incluyen cuando aplican.
type ErrorResponse struct {
	Code       string             `json:"code"`
	Message    string             `json:"message"`
	Field      string             `json:"field,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
	Retryable  bool               `json:"retryable,omitempty"`
}
