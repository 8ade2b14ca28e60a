package terminal

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/de-tools/sales-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/sales-atlas/pkg/runtime/terminal/table"
	"github.com/de-tools/sales-atlas/pkg/services/config"
	"github.com/de-tools/sales-atlas/pkg/services/dashboard"

	"github.com/spf13/cobra"
)

// SetupFunc builds the dashboard service from the configuration file at path.
type SetupFunc func(ctx context.Context, path string) (dashboard.Service, error)

// CLI represents the command-line interface
type CLI struct {
	setup      SetupFunc
	configPath string
	service    dashboard.Service
	reporters  map[string]commands.Reporter
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Setup  SetupFunc
	Output io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		setup: opts.Setup,
		reporters: map[string]commands.Reporter{
			commands.FormatTable: table.NewReporter(opts.Output),
			commands.FormatPlain: NewReporter(opts.Output),
		},
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides the process arguments, mostly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sales-atlas",
		Short:         "Sales dashboard reports and extracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cli.setup == nil {
				return errors.New("no service setup configured")
			}
			svc, err := cli.setup(cmd.Context(), cli.configPath)
			if err != nil {
				return err
			}
			cli.service = svc
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "",
		"Path to the configuration file (env "+config.EnvPrefix+"_* overrides it)")

	cmd.AddCommand(commands.NewReportCmd(cli.dashboard, cli.reporters))
	cmd.AddCommand(commands.NewExportCmd(cli.dashboard))
	cmd.AddCommand(commands.NewDatasetsCmd(cli.dashboard))

	return cmd
}

func (cli *CLI) dashboard() dashboard.Service {
	return cli.service
}
