package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	IssueCFDI  *billing.IssueCFDIUseCase
	CancelCFDI *billing.CancelCFDIUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// CFDI
	cfdi := protected.Group("/cfdi")
	h := NewCFDIHandler(deps.IssueCFDI, deps.CancelCFDI)
	cfdi.Post("/taxes", h.ComputeTaxes)
	cfdi.Post("/preview", h.Preview)
	cfdi.Post("/stamp", RequireRole(RoleAdmin, RoleContador, RoleFacturista), h.Stamp)
	// La cancelación es irreversible ante el SAT: solo admin y contador.
	cfdi.Post("/cancel", RequireRole(RoleAdmin, RoleContador), h.Cancel)
}
