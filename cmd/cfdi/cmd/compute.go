package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
)

func newComputeCmd(opts *options) *cobra.Command {
	var cantidad, valor, iva, retISR, retIVA string
	var incluido bool

	c := &cobra.Command{
		Use:   "compute",
		Short: "Calcula subtotal, IVA, retenciones y total de una partida",
		Long: `Calcula los importes de una partida. Las tasas van en porcentaje.

Ejemplos:
  cfdi compute --cantidad 1 --valor-unitario 448 --iva-incluido
  cfdi compute --cantidad 10 --valor-unitario 1520 --ret-isr 10 --ret-iva 66.6667 -f table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := dto.TaxRequest{IVAIncluido: incluido}
			fields := []struct {
				name string
				raw  string
				dst  *decimal.Decimal
			}{
				{"cantidad", cantidad, &req.Cantidad},
				{"valor-unitario", valor, &req.ValorUnitario},
				{"iva", iva, &req.TasaIVA},
				{"ret-isr", retISR, &req.TasaRetencionISR},
				{"ret-iva", retIVA, &req.TasaRetencionIVA},
			}
			for _, f := range fields {
				d, err := decimal.NewFromString(f.raw)
				if err != nil {
					return fmt.Errorf("--%s: número inválido %q", f.name, f.raw)
				}
				*f.dst = d
			}

			out, err := billing.ComputeTaxes(req)
			if err != nil {
				return err
			}
			return printAmounts(cmd, opts.format, out)
		},
	}

	c.Flags().StringVar(&cantidad, "cantidad", "1", "Cantidad")
	c.Flags().StringVar(&valor, "valor-unitario", "", "Precio unitario")
	c.Flags().StringVar(&iva, "iva", "16", "Tasa de IVA en porcentaje")
	c.Flags().StringVar(&retISR, "ret-isr", "0", "Retención de ISR en porcentaje del subtotal")
	c.Flags().StringVar(&retIVA, "ret-iva", "0", "Retención de IVA en porcentaje del IVA trasladado")
	c.Flags().BoolVar(&incluido, "iva-incluido", false, "El precio ya incluye IVA")
	_ = c.MarkFlagRequired("valor-unitario")
	return c
}

func printAmounts(cmd *cobra.Command, format string, out *dto.TaxResponse) error {
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "table":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(w, "Subtotal\t%s\t\n", out.Subtotal)
		fmt.Fprintf(w, "IVA trasladado\t%s\t\n", out.IVA)
		fmt.Fprintf(w, "Retención ISR\t%s\t\n", out.RetencionISR)
		fmt.Fprintf(w, "Retención IVA\t%s\t\n", out.RetencionIVA)
		fmt.Fprintf(w, "Total\t%s\t\n", out.Total)
		return w.Flush()
	default:
		return fmt.Errorf("formato no soportado para compute: %q", format)
	}
}
