package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AhlamBCoding/marine-propulsion-simulator/internal/config"
	"github.com/AhlamBCoding/marine-propulsion-simulator/internal/metrics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/internal/server"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/analytics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/spec"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/store"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/validation"
)

// errInvalid is returned after an invalid project's report has been printed.
var errInvalid = errors.New("project has validation errors")

// app carries what every command needs once flags are parsed.
type app struct {
	configFile string

	v        *viper.Viper
	cmd      *cobra.Command
	settings *config.Settings
	logger   *slog.Logger
}

func (a *app) init(cmd *cobra.Command) error {
	a.v = config.New()
	a.cmd = cmd
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	s, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.settings = s
	a.logger = s.Logger(os.Stderr)
	return nil
}

func (a *app) projectPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.settings.Project
}

// economics returns the project's economic assumptions with any value the
// user set explicitly taking precedence.
func (a *app) economics(cat *spec.Catalog) spec.Economics {
	e := cat.Economics
	if config.Explicit(a.v, a.cmd.Flags(), "discount_rate") {
		e.DiscountRate = a.settings.DiscountRate
	}
	if config.Explicit(a.v, a.cmd.Flags(), "lifetime_years") {
		e.LifetimeYears = a.settings.LifetimeYears
	}
	return e
}

// loadAndValidate loads the project and runs schema validation.
func loadAndValidate(projectPath string) (*spec.Project, *validation.Report, error) {
	p, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading spec: %w", err)
	}
	return p, validation.ValidateSchema(p), nil
}

// loadCatalog loads, validates and builds the project. An invalid project
// has its report printed and yields errInvalid.
func loadCatalog(projectPath string) (*spec.Catalog, *validation.Report, error) {
	p, report, err := loadAndValidate(projectPath)
	if err != nil {
		return nil, nil, err
	}
	if !report.Valid {
		printValidationReport(report)
		return nil, nil, errInvalid
	}
	cat, err := p.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building project: %w", err)
	}
	return cat, report, nil
}

func (a *app) runValidate(projectPath string) error {
	p, report, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	if report.Valid {
		cat, err := p.Build()
		if err != nil {
			report.AddError(validation.FromError(err, validation.LevelSchema, ""))
		} else {
			report.Merge(validation.ValidateCapacity(cat))
		}
	}

	printValidationReport(report)
	if !report.Valid {
		return errInvalid
	}
	return nil
}

func (a *app) runSimulate(ctx context.Context, projectPath, configuration string, asJSON, save bool) error {
	cat, _, err := loadCatalog(projectPath)
	if err != nil {
		return err
	}
	cfgs := cat.Configurations
	if configuration != "" {
		cfg, ok := cat.Configuration(configuration)
		if !ok {
			return fmt.Errorf("unknown configuration %q", configuration)
		}
		cfgs = []*propulsion.Configuration{cfg}
	}

	cmp, err := a.compare(ctx, cat, cfgs, a.economics(cat))
	if err != nil {
		return err
	}
	rows := inDeclaredOrder(cmp, cfgs)

	var storeErr error
	if save && len(rows) > 0 {
		storeErr = a.saveRuns(ctx, rows)
	}

	if asJSON {
		results := make([]*simulate.Result, len(rows))
		for i, r := range rows {
			results[i] = r.Result
		}
		if err := writeJSON(map[string]any{"results": results, "failures": cmp.Failures}); err != nil {
			return err
		}
	} else {
		for i, r := range rows {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			printSimulation(r.Result)
		}
		printFailures(cmp.Failures, len(rows) > 0)
	}
	if storeErr != nil {
		return storeErr
	}
	return allFailed(cmp)
}

// saveRuns stores every row as a run. Every row is attempted; storage errors
// are joined.
func (a *app) saveRuns(ctx context.Context, rows []analytics.Row) error {
	sink, err := a.openSink(ctx)
	if err != nil || sink == nil {
		return err
	}
	defer sink.Close()

	var errList []error
	for _, r := range rows {
		cost := r.Cost
		run := store.NewRun(r.Result, &cost)
		err := sink.Save(ctx, run)
		metrics.ObserveStore(err)
		if err != nil {
			errList = append(errList, fmt.Errorf("storing run for %q: %w", r.Configuration, err))
			continue
		}
		a.logger.Info("run stored", "run_id", run.ID, "configuration", r.Configuration)
	}
	return errors.Join(errList...)
}

// compare evaluates cfgs over the selected profile. Each configuration
// succeeds or fails on its own; see allFailed.
func (a *app) compare(ctx context.Context, cat *spec.Catalog, cfgs []*propulsion.Configuration, econ spec.Economics) (*analytics.Comparison, error) {
	prof, ok := cat.Profile(a.settings.Profile)
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", a.settings.Profile)
	}
	sim := simulate.New(cat.Registry, simulate.WithLogger(a.logger))
	c := analytics.NewComparer(sim,
		analytics.WithWorkers(a.settings.Workers),
		analytics.WithLogger(a.logger),
		analytics.WithObserver(metrics.Evaluations{}),
	)
	return c.Compare(ctx, cfgs, prof, analytics.Economics{
		DiscountRate:  econ.DiscountRate,
		LifetimeYears: econ.LifetimeYears,
	})
}

// allFailed turns a comparison with no successful configuration into an
// error so the command exits non-zero. Partial failures are only reported.
func allFailed(cmp *analytics.Comparison) error {
	if len(cmp.Rows) > 0 || len(cmp.Failures) == 0 {
		return nil
	}
	if len(cmp.Failures) == 1 {
		return fmt.Errorf("configuration %q failed: %s", cmp.Failures[0].Configuration, cmp.Failures[0].Error)
	}
	return fmt.Errorf("all %d configurations failed", len(cmp.Failures))
}

// inDeclaredOrder returns the successful rows in project order rather than
// by rank.
func inDeclaredOrder(cmp *analytics.Comparison, cfgs []*propulsion.Configuration) []analytics.Row {
	rows := make([]analytics.Row, 0, len(cmp.Rows))
	for _, cfg := range cfgs {
		if r, ok := cmp.Row(cfg.Name()); ok {
			rows = append(rows, r)
		}
	}
	return rows
}

func (a *app) runCompare(ctx context.Context, projectPath, baseline string, asJSON bool) error {
	cat, _, err := loadCatalog(projectPath)
	if err != nil {
		return err
	}
	econ := a.economics(cat)
	if baseline == "" {
		baseline = econ.Baseline
	}

	cmp, err := a.compare(ctx, cat, cat.Configurations, econ)
	if err != nil {
		return err
	}

	var (
		relative []analytics.Relative
		values   []analytics.Value
	)
	if base, ok := cmp.Row(baseline); ok {
		relative, _ = analytics.RelativeTo(cmp.Rows, baseline)
		for _, row := range cmp.Rows {
			if row.Configuration != baseline {
				values = append(values, analytics.ValueProposition(row, base, econ.LifetimeYears))
			}
		}
	} else if baseline != "" {
		a.logger.Warn("baseline not evaluated; relative figures omitted", "baseline", baseline)
	}

	if asJSON {
		if err := writeJSON(map[string]any{
			"comparison":         cmp,
			"baseline":           baseline,
			"relative":           relative,
			"value_propositions": values,
		}); err != nil {
			return err
		}
		return allFailed(cmp)
	}
	printComparison(cmp)
	if len(relative) > 0 {
		fmt.Fprintln(stdout)
		printRelative(baseline, relative)
		fmt.Fprintln(stdout)
		printValues(values)
	}
	return allFailed(cmp)
}

func (a *app) runCost(ctx context.Context, projectPath string) error {
	cat, _, err := loadCatalog(projectPath)
	if err != nil {
		return err
	}
	cmp, err := a.compare(ctx, cat, cat.Configurations, a.economics(cat))
	if err != nil {
		return err
	}

	rows := inDeclaredOrder(cmp, cat.Configurations)
	costs := make([]economics.AnnualCost, len(rows))
	for i, r := range rows {
		costs[i] = r.Cost
	}
	printCostReport(cmp.Profile, costs)
	printFailures(cmp.Failures, true)
	return allFailed(cmp)
}

type sensitivityOptions struct {
	fuel      string
	low, high float64
	steps     int
}

func (a *app) runSensitivity(ctx context.Context, projectPath string, opts sensitivityOptions) error {
	t, err := fuel.ParseType(opts.fuel)
	if err != nil {
		return err
	}
	// Flags take per-tonne prices for combustible fuels; the registry is per kg.
	lo, hi := opts.low, opts.high
	if t.Combustible() {
		lo, hi = lo/1000, hi/1000
	}
	steps := opts.steps
	if steps == 0 {
		steps = economics.DefaultSensitivitySteps
	}

	cat, _, err := loadCatalog(projectPath)
	if err != nil {
		return err
	}
	econ := a.economics(cat)
	cmp, err := a.compare(ctx, cat, cat.Configurations, econ)
	if err != nil {
		return err
	}

	var series []sensitivitySeries
	for _, r := range inDeclaredOrder(cmp, cat.Configurations) {
		pts, err := economics.Sensitivity(r.Result, r.Cost.CapitalAnnual, t, lo, hi, steps)
		if err != nil {
			return err
		}
		series = append(series, sensitivitySeries{name: r.Configuration, result: r.Result, cost: r.Cost, points: pts})
	}

	printSensitivity(t, series)

	if base := findSeries(series, econ.Baseline); base != nil {
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "Break-even %s price vs %s\n", t, base.name)
		for _, s := range series {
			if s.name == base.name {
				continue
			}
			p, ok := economics.BreakEvenPrice(s.result, base.result, s.cost.CapitalAnnual, base.cost.CapitalAnnual, t)
			if !ok {
				fmt.Fprintf(stdout, "  %-26s  none (same %s use)\n", s.name, t)
				continue
			}
			fmt.Fprintf(stdout, "  %-26s  %s\n", s.name, formatPrice(t, p))
		}
	}
	printFailures(cmp.Failures, true)
	return allFailed(cmp)
}

type sensitivitySeries struct {
	name   string
	result *simulate.Result
	cost   economics.AnnualCost
	points []economics.SensitivityPoint
}

func findSeries(series []sensitivitySeries, name string) *sensitivitySeries {
	for i := range series {
		if series[i].name == name {
			return &series[i]
		}
	}
	return nil
}

func (a *app) runServe(ctx context.Context, projectPath string) error {
	if _, err := spec.LoadProject(projectPath); err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}
	sink, err := a.openSink(ctx)
	if err != nil {
		return err
	}

	srv, err := server.New(projectPath, server.Options{
		Port:      a.settings.Server.Port,
		RPS:       a.settings.Server.RPS,
		Burst:     a.settings.Server.Burst,
		CacheSize: a.settings.Server.CacheSize,
		Workers:   a.settings.Workers,
		Logger:    a.logger,
		Sink:      sink,
	})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

// openSink connects the configured run sinks. It returns nil when none are
// configured.
func (a *app) openSink(ctx context.Context) (store.Sink, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var sinks store.MultiSink
	if url := a.settings.Database.URL; url != "" {
		db, err := store.OpenPostgres(ctx, url)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgresSink(db, a.logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		sinks = append(sinks, pg)
	}
	if url := a.settings.NATS.URL; url != "" {
		ns, err := store.ConnectNATS(url, a.settings.NATS.Subject, a.logger)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, ns)
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	a.logger.Debug("run sinks configured", "count", len(sinks))
	return sinks, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPrice renders a per-unit registry price in the unit prices are
// usually quoted in.
func formatPrice(t fuel.Type, perUnit float64) string {
	if t.Combustible() {
		return fmt.Sprintf("$%.0f/t", perUnit*1000)
	}
	return fmt.Sprintf("$%.3f/kWh", perUnit)
}
