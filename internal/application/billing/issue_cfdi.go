// Package billing contiene los casos de uso de emisión y cancelación de CFDI.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/application/ports"
	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/tax"
	"github.com/jhoicas/cfdi-api/pkg/logger"
)

// IssueCFDIUseCase arma, valida y timbra comprobantes de ingreso:
//
//	DTO → partidas → Build → Validate → huella → ledger → PAC → ledger
//
// Nunca reintenta por su cuenta: un error de transporte libera la reserva y se
// devuelve al llamador marcado como reintentable.
type IssueCFDIUseCase struct {
	stamper       ports.Stamper
	ledger        ports.StampingLedger
	fingerprinter ports.Fingerprinter
	encoder       ports.DocumentEncoder
	issuer        IssuerSettings
	opts          cfdi.ValidationOptions
	log           *logger.Logger
	now           func() time.Time
}

// NewIssueCFDIUseCase construye el caso de uso.
func NewIssueCFDIUseCase(
	stamper ports.Stamper,
	ledger ports.StampingLedger,
	fingerprinter ports.Fingerprinter,
	encoder ports.DocumentEncoder,
	issuer IssuerSettings,
	opts cfdi.ValidationOptions,
	log *logger.Logger,
) *IssueCFDIUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &IssueCFDIUseCase{
		stamper:       stamper,
		ledger:        ledger,
		fingerprinter: fingerprinter,
		encoder:       encoder,
		issuer:        issuer,
		opts:          opts,
		log:           log,
		now:           time.Now,
	}
}

// ComputeTaxes calcula los importes de una sola partida (calculadora).
func (uc *IssueCFDIUseCase) ComputeTaxes(req dto.TaxRequest) (*dto.TaxResponse, error) {
	return ComputeTaxes(req)
}

// ComputeTaxes versión sin dependencias, usada también por la CLI.
func ComputeTaxes(req dto.TaxRequest) (*dto.TaxResponse, error) {
	amounts, err := tax.ComputeAmounts(req.Cantidad, req.ValorUnitario, toRates(req), req.IVAIncluido)
	if err != nil {
		return nil, err
	}
	return toTaxResponse(amounts), nil
}

// assembled comprobante armado junto con su validación.
type assembled struct {
	doc    *cfdi.Document
	result cfdi.ValidationResult
	drift  *domain.RoundingDriftWarning
}

// Assemble arma y valida el comprobante sin serializarlo ni timbrarlo.
func Assemble(req dto.CFDIRequest, issuer IssuerSettings, opts cfdi.ValidationOptions, now time.Time) (*cfdi.Document, cfdi.ValidationResult, *domain.RoundingDriftWarning, error) {
	lines, err := toLineInputs(req.Conceptos)
	if err != nil {
		return nil, cfdi.ValidationResult{}, nil, err
	}
	meta, err := toMeta(req, issuer, now)
	if err != nil {
		return nil, cfdi.ValidationResult{}, nil, err
	}
	doc, err := cfdi.Build(lines, issuer.party(), toReceptor(req.Receptor), meta)
	if err != nil {
		return nil, cfdi.ValidationResult{}, nil, err
	}
	return doc, cfdi.Validate(doc, opts), cfdi.CheckRoundingDrift(lines, doc), nil
}

func (uc *IssueCFDIUseCase) assemble(companyID string, req dto.CFDIRequest) (*assembled, error) {
	doc, result, drift, err := Assemble(req, uc.issuer, uc.opts, uc.now())
	if err != nil {
		return nil, err
	}
	if drift != nil {
		uc.log.Warn().
			Str("company_id", companyID).
			Str("line_sum_total", drift.LineSumTotal.StringFixed(2)).
			Str("naive_total", drift.NaiveTotal.StringFixed(2)).
			Str("difference", drift.Difference.StringFixed(2)).
			Msg("desviación de redondeo en el comprobante")
	}
	return &assembled{doc: doc, result: result, drift: drift}, nil
}

// Preview arma el comprobante y devuelve su serialización y violaciones. Nunca timbra.
func (uc *IssueCFDIUseCase) Preview(_ context.Context, companyID string, req dto.CFDIRequest) (*dto.PreviewResponse, error) {
	a, err := uc.assemble(companyID, req)
	if err != nil {
		return nil, err
	}
	payload, err := uc.encoder.Encode(a.doc)
	if err != nil {
		return nil, fmt.Errorf("billing: serializar comprobante: %w", err)
	}
	resp := &dto.PreviewResponse{
		Valid:       a.result.Valid,
		Violations:  a.result.Violations,
		Comprobante: payload,
	}
	if resp.Violations == nil {
		resp.Violations = []domain.Violation{}
	}
	if a.drift != nil {
		resp.Warnings = append(resp.Warnings, a.drift.Error())
	}
	if fp, err := uc.fingerprinter.Fingerprint(a.doc); err == nil {
		resp.Fingerprint = fp
	}
	return resp, nil
}

// Stamp arma, valida y timbra. Un comprobante con violaciones no llega al PAC.
//
// Errores:
//   - *domain.InvalidInputError: datos de entrada imposibles de calcular.
//   - *domain.DocumentValidationError: todas las violaciones del comprobante.
//   - *domain.DuplicateSubmissionError: la huella ya tiene un envío registrado.
//   - *domain.StampingError: fallo del PAC (transporte, rechazo o saldo).
func (uc *IssueCFDIUseCase) Stamp(ctx context.Context, companyID string, req dto.CFDIRequest) (*dto.StampResponse, error) {
	a, err := uc.assemble(companyID, req)
	if err != nil {
		return nil, err
	}
	if err := a.result.Err(); err != nil {
		return nil, err
	}

	fp, err := uc.fingerprinter.Fingerprint(a.doc)
	if err != nil {
		return nil, fmt.Errorf("billing: huella del comprobante: %w", err)
	}
	existing, reserved, err := uc.ledger.Reserve(ctx, companyID, fp)
	if err != nil {
		return nil, fmt.Errorf("billing: reservar huella: %w", err)
	}
	if !reserved {
		dup := &domain.DuplicateSubmissionError{Fingerprint: fp}
		if existing != nil {
			dup.Status = existing.Status
			dup.UUID = existing.UUID
		}
		uc.log.Warn().Str("company_id", companyID).Str("fingerprint", fp).Str("status", dup.Status).
			Msg("envío duplicado bloqueado")
		return nil, dup
	}

	stamped, err := uc.stamper.Stamp(ctx, a.doc)
	// El resultado se registra aunque el cliente haya cancelado la solicitud.
	ledgerCtx := context.WithoutCancel(ctx)
	if err != nil {
		uc.recordFailure(ledgerCtx, companyID, fp, err)
		return nil, err
	}
	if err := uc.ledger.MarkStamped(ledgerCtx, fp, stamped.UUID); err != nil {
		uc.log.Error().Err(err).Str("fingerprint", fp).Str("uuid", stamped.UUID).
			Msg("no se pudo registrar el timbrado en el ledger")
	}
	uc.log.Info().Str("company_id", companyID).Str("fingerprint", fp).Str("uuid", stamped.UUID).
		Str("total", a.doc.Total.StringFixed(2)).Msg("CFDI timbrado")

	return &dto.StampResponse{
		UUID:             stamped.UUID,
		FechaTimbrado:    stamped.FechaTimbrado.Format(FechaLayout),
		NoCertificadoSAT: stamped.NoCertificadoSAT,
		SelloSAT:         stamped.SelloSAT,
		Fingerprint:      fp,
		SubTotal:         a.doc.SubTotal.StringFixed(2),
		Total:            a.doc.Total.StringFixed(2),
	}, nil
}

// recordFailure un rechazo es definitivo; transporte y saldo liberan la reserva.
func (uc *IssueCFDIUseCase) recordFailure(ctx context.Context, companyID, fp string, err error) {
	var se *domain.StampingError
	if errors.As(err, &se) && se.Kind == domain.StampingRejected {
		uc.log.Warn().Str("company_id", companyID).Str("fingerprint", fp).Str("code", se.Code).
			Str("message", se.Message).Msg("CFDI rechazado por el PAC")
		if lerr := uc.ledger.MarkRejected(ctx, fp, se.Code); lerr != nil {
			uc.log.Error().Err(lerr).Str("fingerprint", fp).Msg("no se pudo registrar el rechazo en el ledger")
		}
		return
	}
	uc.log.Error().Err(err).Str("company_id", companyID).Str("fingerprint", fp).Msg("timbrado fallido")
	if lerr := uc.ledger.Release(ctx, fp); lerr != nil {
		uc.log.Error().Err(lerr).Str("fingerprint", fp).Msg("no se pudo liberar la reserva")
	}
}
