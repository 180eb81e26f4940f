package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/application/ports"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	infracfdi "github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
)

func newPreviewCmd(opts *options) *cobra.Command {
	var enforcePPD bool

	c := &cobra.Command{
		Use:   "preview <solicitud.json | ->",
		Short: "Arma y valida un comprobante sin timbrarlo",
		Long: `Lee una solicitud (el mismo JSON que POST /api/cfdi/preview), arma el
comprobante y lo imprime en JSON o XML. Las violaciones y avisos van a stderr;
si hay violaciones el comando termina con error.

Ejemplos:
  cfdi preview solicitud.json
  cat solicitud.json | cfdi preview - --format xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var req dto.CFDIRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("solicitud inválida: %w", err)
			}

			var enc ports.DocumentEncoder
			switch opts.format {
			case "json":
				enc = infracfdi.NewJSONEncoder()
			case "xml":
				enc = infracfdi.NewXMLEncoder()
			default:
				return fmt.Errorf("formato no soportado para preview: %q", opts.format)
			}

			doc, result, drift, err := billing.Assemble(req, opts.issuer,
				cfdi.ValidationOptions{EnforcePPDFormaPago: enforcePPD}, time.Now())
			if err != nil {
				return err
			}
			payload, err := enc.Encode(doc)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				var pretty bytes.Buffer
				if err := json.Indent(&pretty, payload, "", "  "); err == nil {
					payload = pretty.Bytes()
				}
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(payload); err != nil {
				return err
			}
			fmt.Fprintln(out)

			errOut := cmd.ErrOrStderr()
			if drift != nil {
				fmt.Fprintf(errOut, "⚠ %s\n", drift.Error())
			}
			for _, v := range result.Violations {
				fmt.Fprintf(errOut, "✗ [%s] %s: %s\n", v.Code, v.Field, v.Message)
			}
			if !result.Valid {
				return fmt.Errorf("el comprobante tiene %d violaciones", len(result.Violations))
			}
			return nil
		},
	}

	c.Flags().StringVar(&opts.issuer.Rfc, "issuer-rfc", "", "RFC del emisor (env: ISSUER_RFC)")
	c.Flags().StringVar(&opts.issuer.Nombre, "issuer-nombre", "", "Nombre del emisor (env: ISSUER_NOMBRE)")
	c.Flags().StringVar(&opts.issuer.RegimenFiscal, "issuer-regimen", "", "Régimen fiscal del emisor (env: ISSUER_REGIMEN_FISCAL)")
	c.Flags().StringVar(&opts.issuer.CodigoPostal, "issuer-cp", "", "Código postal de expedición (env: ISSUER_CODIGO_POSTAL)")
	c.Flags().BoolVar(&enforcePPD, "enforce-ppd", false, "Exigir FormaPago 99 con MetodoPago PPD")
	return c
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", path, err)
	}
	return raw, nil
}
