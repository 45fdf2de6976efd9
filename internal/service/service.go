package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/calc"
	"github.com/muniwatch/debt-service/internal/models"
)

// RateResolver produces one benchmark yield observation per run.
type RateResolver interface {
	Resolve(ctx context.Context) (models.Observation, error)
}

// LedgerWriter durably records one ImpactRecord.
type LedgerWriter interface {
	Write(rec models.ImpactRecord) error
}

// Mirror receives a copy of every successfully written record.
type Mirror interface {
	Upsert(rec models.ImpactRecord) error
}

// Notifier is told when resolution fell through to the static fallback.
type Notifier interface {
	SendFallbackAlert(obs models.Observation, date string) error
}

// Service runs one resolve -> compute -> write cycle per invocation.
type Service struct {
	resolver   RateResolver
	writer     LedgerWriter
	mirror     Mirror   // optional
	notifier   Notifier // optional
	spread     float64
	households int
	projects   []models.ProjectDebt
	portfolio  bool
	log        *logrus.Logger
}

// NewService initializes a new service. mirror and notifier may be nil.
func NewService(resolver RateResolver, writer LedgerWriter, mirror Mirror, notifier Notifier,
	spread float64, households int, projects []models.ProjectDebt, portfolio bool, log *logrus.Logger) *Service {
	return &Service{
		resolver:   resolver,
		writer:     writer,
		mirror:     mirror,
		notifier:   notifier,
		spread:     spread,
		households: households,
		projects:   projects,
		portfolio:  portfolio,
		log:        log,
	}
}

// Run performs one full cycle. A resolution failure is only possible under
// the strict policy; a persistence failure always propagates. Notification
// failures are logged, never fatal.
func (s *Service) Run(ctx context.Context) (models.ImpactRecord, error) {
	runLog := s.log.WithField("run_id", uuid.NewString())

	obs, err := s.resolver.Resolve(ctx)
	if err != nil {
		return models.ImpactRecord{}, fmt.Errorf("rate resolution failed: %w", err)
	}
	runLog.Infof("Bond yield %.3f%% (source %s)", obs.Value, obs.Source)

	rec := s.buildRecord(obs)

	if err := s.writer.Write(rec); err != nil {
		return models.ImpactRecord{}, err
	}
	if s.mirror != nil {
		if err := s.mirror.Upsert(rec); err != nil {
			return models.ImpactRecord{}, err
		}
	}
	runLog.Infof("Ledger updated for %s, total rate %.3f%%", rec.Date, rec.TotalRate)

	if obs.Source == "fallback" && s.notifier != nil {
		if err := s.notifier.SendFallbackAlert(obs, rec.Date); err != nil {
			runLog.Errorf("Fallback alert failed: %v", err)
		}
	}

	return rec, nil
}

// buildRecord computes the amortization snapshot for obs. Intermediate math
// stays at full precision; rounding happens only here, on the fields that
// get persisted.
func (s *Service) buildRecord(obs models.Observation) models.ImpactRecord {
	rec := models.ImpactRecord{
		Date:      time.Now().Format("2006-01-02"),
		BondYield: calc.Round(obs.Value, 3),
		Source:    obs.Source,
	}

	if s.portfolio {
		agg := calc.ComputePortfolio(obs.Value, s.spread, s.projects)
		rec.TotalRate = calc.Round(agg.TotalRate, 3)
		rec.GrandAnnual = calc.Round(agg.GrandAnnual, 2)
		rec.GrandInterest = calc.Round(agg.GrandInterest, 2)
		return rec
	}

	p := s.projects[0]
	res := calc.Compute(obs.Value, s.spread, p.Principal, p.TermYears)
	rec.TotalRate = calc.Round(res.TotalRate, 3)
	rec.AnnualPayment = calc.Round(res.AnnualPayment, 2)
	rec.TotalInterest = calc.Round(res.TotalInterest, 2)
	rec.HouseholdImpact = calc.Round(res.AnnualPayment/float64(s.households), 2)
	return rec
}
