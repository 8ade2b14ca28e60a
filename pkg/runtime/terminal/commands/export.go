package commands

import (
	"fmt"
	"os"

	"github.com/de-tools/sales-atlas/pkg/services/dashboard"
	"github.com/dustin/go-humanize"

	"github.com/spf13/cobra"
)

type ExportCmd struct {
	criteriaFlags
	out     string
	service ServiceFunc
}

func NewExportCmd(service ServiceFunc) *cobra.Command {
	ec := &ExportCmd{service: service}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered rows as CSV",
		Args:  cobra.NoArgs,
		RunE:  ec.run,
	}

	ec.register(cmd)
	cmd.Flags().StringVarP(&ec.out, "out", "o", dashboard.ExportFileName, "Output file, or - for stdout")

	return cmd
}

func (ec *ExportCmd) run(cmd *cobra.Command, _ []string) error {
	criteria, err := ec.criteria(cmd)
	if err != nil {
		return err
	}

	out, err := ec.service().Export(cmd.Context(), ec.dataset, criteria)
	if err != nil {
		return fmt.Errorf("failed to export dataset %s: %w", ec.dataset, err)
	}

	if ec.out == "-" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	if err := os.WriteFile(ec.out, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ec.out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", humanize.Bytes(uint64(len(out))), ec.out)
	return nil
}
