// Package analytics evaluates candidate configurations side by side. It is
// the only part of the system that runs simulations concurrently; each
// configuration is independent, so one failing does not stop the others.
package analytics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/economics"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/errs"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/fuel"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/profile"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/propulsion"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/simulate"
	"github.com/AhlamBCoding/marine-propulsion-simulator/pkg/units"
)

const tracerName = "github.com/AhlamBCoding/marine-propulsion-simulator/pkg/analytics"

// Economics are the assumptions capital costs are annualised under.
type Economics struct {
	DiscountRate  float64 `json:"discount_rate"`
	LifetimeYears int     `json:"lifetime_years"`
}

// Observer receives one call per evaluated configuration.
type Observer interface {
	ObserveEvaluation(configuration string, elapsed time.Duration, err error)
}

// Row is one successfully evaluated configuration.
type Row struct {
	Rank          int                   `json:"rank"`
	Configuration string                `json:"configuration"`
	Fuel          map[fuel.Type]float64 `json:"fuel"`
	FuelMass      units.Mass            `json:"fuel_mass_kg"`
	CO2           units.Mass            `json:"co2_kg"`
	CO2e          units.Mass            `json:"co2e_kg"`
	SOx           units.Mass            `json:"sox_kg"`
	Cost          economics.AnnualCost  `json:"cost"`

	Result *simulate.Result `json:"-"`
}

// Failure is a configuration that could not be evaluated.
type Failure struct {
	Configuration string `json:"configuration"`
	Error         string `json:"error"`
}

// Comparison is the ranked outcome of Compare.
type Comparison struct {
	Profile   string    `json:"profile"`
	Economics Economics `json:"economics"`
	Rows      []Row     `json:"rows"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Row returns the row of the named configuration.
func (c *Comparison) Row(name string) (Row, bool) {
	for _, r := range c.Rows {
		if r.Configuration == name {
			return r, true
		}
	}
	return Row{}, false
}

// Comparer runs configurations through a simulator on a bounded pool of
// goroutines.
type Comparer struct {
	sim      *simulate.Simulator
	workers  int
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithWorkers bounds the number of configurations evaluated at once.
func WithWorkers(n int) Option {
	return func(c *Comparer) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Comparer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers an observer for per-configuration timings.
func WithObserver(o Observer) Option {
	return func(c *Comparer) { c.observer = o }
}

// NewComparer creates a Comparer over sim.
func NewComparer(sim *simulate.Simulator, opts ...Option) *Comparer {
	c := &Comparer{
		sim:     sim,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare evaluates every configuration against p and ranks the successful
// ones by total annual cost, cheapest first, ties broken by name. A
// configuration that fails is reported in Failures with its specific error.
// Only a missing profile or cancellation of ctx makes Compare itself fail.
func (c *Comparer) Compare(ctx context.Context, cfgs []*propulsion.Configuration, p *profile.Profile, econ Economics) (*Comparison, error) {
	if p == nil {
		return nil, errs.Invalid("profile", nil, "profile is required")
	}
	ctx, span := c.tracer.Start(ctx, "analytics.Compare", trace.WithAttributes(
		attribute.String("profile", p.Name()),
		attribute.Int("configurations", len(cfgs)),
	))
	defer span.End()

	type outcome struct {
		row Row
		err error
	}
	outcomes := make([]outcome, len(cfgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := c.evaluate(gctx, configName(i, cfg), cfg, p, econ)
			outcomes[i] = outcome{row: row, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "comparison cancelled")
		return nil, err
	}

	cmp := &Comparison{Profile: p.Name(), Economics: econ}
	for i, o := range outcomes {
		if o.err != nil {
			cmp.Failures = append(cmp.Failures, Failure{Configuration: configName(i, cfgs[i]), Error: o.err.Error()})
			continue
		}
		cmp.Rows = append(cmp.Rows, o.row)
	}
	Rank(cmp.Rows)

	span.SetAttributes(attribute.Int("failures", len(cmp.Failures)))
	c.logger.Info("comparison complete",
		"profile", p.Name(),
		"ranked", len(cmp.Rows),
		"failed", len(cmp.Failures),
	)
	return cmp, nil
}

// configName names a configuration in failures and spans; nil entries are
// named by their position.
func configName(i int, cfg *propulsion.Configuration) string {
	if cfg == nil {
		return fmt.Sprintf("configurations[%d]", i)
	}
	return cfg.Name()
}

func (c *Comparer) evaluate(ctx context.Context, name string, cfg *propulsion.Configuration, p *profile.Profile, econ Economics) (row Row, err error) {
	_, span := c.tracer.Start(ctx, "analytics.evaluate", trace.WithAttributes(
		attribute.String("configuration", name),
	))
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveEvaluation(name, time.Since(start), err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Warn("configuration failed", "configuration", name, "error", err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	if cfg == nil {
		return Row{}, errs.Invalid(name, nil, "configuration is nil")
	}
	res, err := c.sim.Simulate(cfg, p)
	if err != nil {
		return Row{}, err
	}
	cost, err := economics.Annualize(cfg, res, econ.DiscountRate, econ.LifetimeYears)
	if err != nil {
		return Row{}, err
	}
	tot := res.Totals()
	return Row{
		Configuration: cfg.Name(),
		Fuel:          tot.Fuel,
		FuelMass:      tot.FuelMass(),
		CO2:           tot.CO2,
		CO2e:          tot.CO2e,
		SOx:           tot.SOx,
		Cost:          cost,
		Result:        res,
	}, nil
}

// Rank orders rows by total annual cost, then name, and numbers them from 1.
func Rank(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Cost.Total != rows[j].Cost.Total {
			return rows[i].Cost.Total < rows[j].Cost.Total
		}
		return rows[i].Configuration < rows[j].Configuration
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}
