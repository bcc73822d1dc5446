package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "propsim",
		Short:         "Annual fuel, emissions and cost simulator for ship propulsion configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: propsim.{yaml,toml,json} in . or the user config dir)")
	pf.String("profile", "", "operating profile to run (default: the project's first profile)")
	pf.Float64("discount-rate", 0, "discount rate for capital annualisation (overrides the project)")
	pf.Int("lifetime-years", 0, "asset lifetime in years (overrides the project)")
	pf.Int("workers", 0, "configurations evaluated in parallel (default: GOMAXPROCS)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("database-url", "", "Postgres URL; runs are stored when set")
	pf.String("nats-url", "", "NATS URL; run summaries are published when set")

	rootCmd.AddCommand(validateCmd(a))
	rootCmd.AddCommand(simulateCmd(a))
	rootCmd.AddCommand(compareCmd(a))
	rootCmd.AddCommand(costCmd(a))
	rootCmd.AddCommand(sensitivityCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a project without producing results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runValidate(a.projectPath(args))
		},
	}
}

func simulateCmd(a *app) *cobra.Command {
	var (
		configuration string
		asJSON        bool
		store         bool
	)
	cmd := &cobra.Command{
		Use:   "simulate [project-path]",
		Short: "Simulate configurations over a profile and show per-mode results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulate(cmd.Context(), a.projectPath(args), configuration, asJSON, store)
		},
	}
	cmd.Flags().StringVarP(&configuration, "configuration", "c", "", "simulate only this configuration")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write results as JSON")
	cmd.Flags().BoolVar(&store, "store", true, "save runs to the configured sinks")
	return cmd
}

func compareCmd(a *app) *cobra.Command {
	var (
		baseline string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "compare [project-path]",
		Short: "Rank configurations by total annual cost",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(cmd.Context(), a.projectPath(args), baseline, asJSON)
		},
	}
	cmd.Flags().StringVar(&baseline, "baseline", "", "baseline configuration (default: the project's)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the comparison as JSON")
	return cmd
}

func costCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cost [project-path]",
		Short: "Compute and display annualised costs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCost(cmd.Context(), a.projectPath(args))
		},
	}
}

func sensitivityCmd(a *app) *cobra.Command {
	var opts sensitivityOptions
	cmd := &cobra.Command{
		Use:   "sensitivity [project-path]",
		Short: "Sweep one fuel price and show annual cost per configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSensitivity(cmd.Context(), a.projectPath(args), opts)
		},
	}
	cmd.Flags().StringVar(&opts.fuel, "fuel", "MDO", "fuel type to sweep: MDO, HFO, LNG, ELECTRIC")
	cmd.Flags().Float64Var(&opts.low, "low", 300, "lowest price (USD/t, or USD/kWh for ELECTRIC)")
	cmd.Flags().Float64Var(&opts.high, "high", 1200, "highest price (USD/t, or USD/kWh for ELECTRIC)")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "number of prices in the sweep (default 11)")
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the local HTTP API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context(), a.projectPath(args))
		},
	}
	cmd.Flags().IntP("port", "p", 0, "HTTP server port (default 3000)")
	return cmd
}
