package commands

import (
	"fmt"
	"slices"

	"github.com/de-tools/sales-atlas/pkg/adapters"
	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/de-tools/sales-atlas/pkg/services/config"
	"github.com/de-tools/sales-atlas/pkg/services/dashboard"
	"github.com/de-tools/sales-atlas/pkg/services/filter"

	"github.com/spf13/cobra"
)

const (
	FormatTable = "table"
	FormatPlain = "plain"
)

// Reporter renders a report to the terminal.
type Reporter interface {
	Handle(report *domain.Report) error
}

// ServiceFunc returns the dashboard service once the root command has set it up.
type ServiceFunc func() dashboard.Service

// criteriaFlags are the filter flags shared by report and export.
type criteriaFlags struct {
	dataset    string
	from       string
	to         string
	regions    []string
	categories []string
	shipModes  []string
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dataset, "dataset", config.DefaultDataset, "Dataset profile name")
	cmd.Flags().StringVar(&f.from, "from", "", "First order date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last order date to include (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&f.regions, "region", nil, "Region to include; repeat or comma separate")
	cmd.Flags().StringArrayVar(&f.categories, "category", nil, "Category to include; repeat or comma separate")
	cmd.Flags().StringArrayVar(&f.shipModes, "ship-mode", nil, "Ship mode to include; repeat or comma separate")
}

// criteria treats a flag given with an empty value as an empty selection.
func (f *criteriaFlags) criteria(cmd *cobra.Command) (domain.Criteria, error) {
	in := filter.Input{From: f.from, To: f.to}
	for _, sel := range []struct {
		flag   string
		values []string
		dst    *[]string
	}{
		{"region", f.regions, &in.Regions},
		{"category", f.categories, &in.Categories},
		{"ship-mode", f.shipModes, &in.ShipModes},
	} {
		if cmd.Flags().Changed(sel.flag) {
			*sel.dst = append([]string{}, sel.values...)
		}
	}
	return filter.ParseCriteria(in)
}

type ReportCmd struct {
	criteriaFlags
	top       int
	format    string
	service   ServiceFunc
	reporters map[string]Reporter
}

func NewReportCmd(service ServiceFunc, reporters map[string]Reporter) *cobra.Command {
	rc := &ReportCmd{service: service, reporters: reporters}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard KPIs and grouped sales",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	rc.register(cmd)
	cmd.Flags().IntVar(&rc.top, "top", 0, "Number of top products (0 uses the configured default, negative lists all)")
	cmd.Flags().StringVar(&rc.format, "format", FormatTable, "Output format: table or plain")

	return cmd
}

func (rc *ReportCmd) run(cmd *cobra.Command, _ []string) error {
	reporter, ok := rc.reporters[rc.format]
	if !ok {
		formats := make([]string, 0, len(rc.reporters))
		for name := range rc.reporters {
			formats = append(formats, name)
		}
		slices.Sort(formats)
		return fmt.Errorf("unsupported format %q. Supported formats: %v", rc.format, formats)
	}

	criteria, err := rc.criteria(cmd)
	if err != nil {
		return err
	}

	d, err := rc.service().Dashboard(cmd.Context(), rc.dataset, dashboard.Request{
		Criteria: criteria,
		TopN:     rc.top,
	})
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}

	report := adapters.MapDashboardToReport(d)
	return reporter.Handle(&report)
}
