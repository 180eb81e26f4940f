package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/application/ports"
	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/pkg/logger"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// CancelCFDIUseCase solicita al PAC la cancelación de un CFDI timbrado.
// Solo se ejecuta a petición explícita; ningún otro flujo cancela comprobantes.
type CancelCFDIUseCase struct {
	stamper ports.Stamper
	issuer  IssuerSettings
	log     *logger.Logger
}

// NewCancelCFDIUseCase construye el caso de uso.
func NewCancelCFDIUseCase(stamper ports.Stamper, issuer IssuerSettings, log *logger.Logger) *CancelCFDIUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CancelCFDIUseCase{stamper: stamper, issuer: issuer, log: log}
}

// Cancel valida la solicitud y la envía al PAC.
func (uc *CancelCFDIUseCase) Cancel(ctx context.Context, companyID string, req dto.CancelCFDIRequest) (*dto.CancelCFDIResponse, error) {
	cr, err := uc.toCancelRequest(req)
	if err != nil {
		return nil, err
	}

	receipt, err := uc.stamper.Cancel(ctx, cr)
	if err != nil {
		uc.log.Error().Err(err).Str("company_id", companyID).Str("uuid", cr.UUID).Msg("cancelación fallida")
		return nil, err
	}
	uc.log.Info().Str("company_id", companyID).Str("uuid", cr.UUID).Str("motivo", string(cr.Motivo)).
		Str("status", receipt.Status).Msg("CFDI cancelado")

	return &dto.CancelCFDIResponse{
		UUID:       receipt.UUID,
		Status:     receipt.Status,
		CanceledAt: receipt.CanceledAt.Format(time.RFC3339),
		Acuse:      receipt.Acuse,
	}, nil
}

func (uc *CancelCFDIUseCase) toCancelRequest(req dto.CancelCFDIRequest) (ports.CancelRequest, error) {
	id, err := uuid.Parse(strings.TrimSpace(req.UUID))
	if err != nil {
		return ports.CancelRequest{}, domain.NewInvalidInput("uuid", "UUID inválido")
	}
	receptor := sat.NormalizeRFC(req.ReceptorRfc)
	if err := sat.ValidateRFC(receptor); err != nil {
		return ports.CancelRequest{}, domain.NewInvalidInput("receptor_rfc", err.Error())
	}
	if !req.Total.IsPositive() {
		return ports.CancelRequest{}, domain.NewInvalidInput("total", "debe ser mayor a cero")
	}
	motivo, err := sat.ParseMotivoCancelacion(strings.TrimSpace(req.Motivo))
	if err != nil {
		return ports.CancelRequest{}, domain.NewInvalidInput("motivo", err.Error())
	}

	cr := ports.CancelRequest{
		UUID:        strings.ToUpper(id.String()),
		EmisorRfc:   sat.NormalizeRFC(uc.issuer.Rfc),
		ReceptorRfc: receptor,
		Total:       req.Total.Round(2),
		Motivo:      motivo,
	}
	folio := strings.TrimSpace(req.FolioSustitucion)
	switch {
	case motivo.RequiresSubstitution() && folio == "":
		return ports.CancelRequest{}, domain.NewInvalidInput("folio_sustitucion", "obligatorio con motivo 01")
	case !motivo.RequiresSubstitution() && folio != "":
		return ports.CancelRequest{}, domain.NewInvalidInput("folio_sustitucion", "solo aplica con motivo 01")
	case folio != "":
		sub, err := uuid.Parse(folio)
		if err != nil {
			return ports.CancelRequest{}, domain.NewInvalidInput("folio_sustitucion", "UUID inválido")
		}
		if sub == id {
			return ports.CancelRequest{}, domain.NewInvalidInput("folio_sustitucion", "no puede ser el mismo CFDI que se cancela")
		}
		cr.FolioSustitucion = strings.ToUpper(sub.String())
	}
	return cr, nil
}
