// Package cmd comandos de la CLI fuera de línea: cálculo de impuestos y vista previa
// de comprobantes. La CLI nunca timbra.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
)

var version = "1.0.0"

// options flags globales.
type options struct {
	format string
	issuer billing.IssuerSettings
}

// NewRootCmd construye el árbol de comandos.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "cfdi",
		Short: "Cálculo de impuestos y armado de CFDI 4.0 sin conexión",
		Long: `cfdi calcula importes de partidas y arma comprobantes CFDI 4.0 de ingreso
para revisarlos antes de timbrar. No se comunica con el PAC.

Ejemplos:
  # Importes de una partida con IVA 16 % y retención de ISR 10 %
  cfdi compute --cantidad 2 --valor-unitario 150 --ret-isr 10

  # Vista previa en XML de una solicitud
  cfdi preview solicitud.json --format xml --issuer-rfc EKU9003173C9`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			opts.loadEnv()
		},
	}

	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "json", "Formato de salida (compute: json, table; preview: json, xml)")

	root.AddCommand(newComputeCmd(opts), newPreviewCmd(opts))
	return root
}

// Execute ejecuta la CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadEnv completa con variables de entorno lo que no llegó por flags.
func (o *options) loadEnv() {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&o.issuer.Rfc, "ISSUER_RFC")
	fill(&o.issuer.Nombre, "ISSUER_NOMBRE")
	fill(&o.issuer.RegimenFiscal, "ISSUER_REGIMEN_FISCAL")
	fill(&o.issuer.CodigoPostal, "ISSUER_CODIGO_POSTAL")
}
