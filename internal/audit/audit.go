// Package audit periodically checks that the balance of every import item
// matches its entitlement minus its allotment lines.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/licensedesk/backend/internal/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var driftingItems = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "balance_audit_drifting_items",
		Help: "Number of import items whose balance did not match their allotment lines in the last audit.",
	},
)

var runs = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "balance_audit_runs_total",
		Help: "How many balance audits ran, partitioned by result.",
	},
	[]string{"result"},
)

// Collectors returns the Prometheus collectors of the audit.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{driftingItems, runs}
}

// Run audits all import items once, updates the metrics and logs every drift.
func Run(ctx context.Context, db *gorm.DB) ([]ledger.Drift, error) {
	drifts, err := ledger.Audit(ctx, db)
	if err != nil {
		runs.WithLabelValues("error").Inc()
		return nil, err
	}

	driftingItems.Set(float64(len(drifts)))

	if len(drifts) == 0 {
		runs.WithLabelValues("consistent").Inc()
		return drifts, nil
	}

	runs.WithLabelValues("drift").Inc()
	for _, d := range drifts {
		log.Warn().
			Str("item", d.ItemID.String()).
			Str("license", d.LicenseID.String()).
			Str("balanceQuantity", d.BalanceQuantity.String()).
			Str("expectedBalanceQuantity", d.ExpectedBalanceQuantity.String()).
			Str("balanceCifValue", d.BalanceCIFValue.String()).
			Str("expectedBalanceCifValue", d.ExpectedBalanceCIFValue.String()).
			Msg("balance drift")
	}

	return drifts, nil
}

// Scheduler runs the audit on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// NewScheduler returns a scheduler that audits db on the schedule, which is
// any spec that robfig/cron accepts, e.g. "@every 1h" or "0 2 * * *".
func NewScheduler(db *gorm.DB, schedule string, location *time.Location) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(location)),
		timeout: 10 * time.Minute,
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		drifts, err := Run(ctx, db)
		if err != nil {
			log.Error().Err(err).Msg("balance audit failed")
			return
		}

		log.Info().Int("drifts", len(drifts)).Dur("duration", time.Since(start)).Msg("balance audit finished")
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule the balance audit with %q: %w", schedule, err)
	}

	return s, nil
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done when a running audit has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
