package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

type DatasetsCmd struct {
	service ServiceFunc
}

func NewDatasetsCmd(service ServiceFunc) *cobra.Command {
	dc := &DatasetsCmd{service: service}
	return &cobra.Command{
		Use:   "datasets",
		Short: "List configured datasets",
		Args:  cobra.NoArgs,
		RunE:  dc.run,
	}
}

func (dc *DatasetsCmd) run(cmd *cobra.Command, _ []string) error {
	profiles, err := dc.service().Datasets(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	if len(profiles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No datasets configured")
		return nil
	}

	for _, p := range profiles {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.Name, p.Title, p.Path)
	}
	return nil
}
