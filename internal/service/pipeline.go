package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"manualexec/internal/artifacts"
	"manualexec/internal/config"
	"manualexec/internal/docstore"
	"manualexec/internal/models"
	"manualexec/internal/planlock"
)

type Options struct {
	Store     docstore.Store
	Artifacts artifacts.Store
	Locks     planlock.Locker
	Settings  *SettingsService
	Clock     *Clock
	Logger    *zap.Logger
	Pipeline  config.PipelineConfig
	Publisher Publisher
}

// Pipeline wires the components around one document store.
type Pipeline struct {
	Plans    *PlanSource
	Exports  *ExportGenerator
	Preps    *PrepValidator
	Tickets  *TicketGenerator
	Records  *RecordSubmitter
	DryRuns  *DryRunRecorder
	Ops      *OpsStageDeriver
	Settings *SettingsService

	store       docstore.Store
	logger      *zap.Logger
	autoRefresh bool
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if opts.Artifacts == nil {
		return nil, fmt.Errorf("artifact store required")
	}
	if opts.Locks == nil {
		opts.Locks = planlock.NewLocal(0)
	}
	if opts.Clock == nil {
		clock, err := NewClock(opts.Pipeline.Timezone)
		if err != nil {
			return nil, err
		}
		opts.Clock = clock
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Settings == nil {
		opts.Settings = &SettingsService{}
	}

	base := Base{Store: opts.Store, Clock: opts.Clock, Logger: opts.Logger}
	plans := &PlanSource{Base: base}
	ratio := decimal.Zero
	if opts.Pipeline.MaxSingleOrderRatio > 0 {
		ratio = decimal.NewFromFloat(opts.Pipeline.MaxSingleOrderRatio)
	}
	return &Pipeline{
		Plans:   plans,
		Exports: &ExportGenerator{Base: base, Plans: plans},
		Preps: &PrepValidator{
			Base:                base,
			MaxOrdersAllowed:    opts.Pipeline.MaxOrdersAllowed,
			MaxSingleOrderRatio: ratio,
		},
		Tickets:  &TicketGenerator{Base: base, Artifacts: opts.Artifacts, Currency: opts.Pipeline.Currency},
		Records:  &RecordSubmitter{Base: base, Locks: opts.Locks},
		DryRuns:  &DryRunRecorder{Base: base, Settings: opts.Settings, DefaultPolicy: opts.Pipeline.DryRunPolicy},
		Ops:      &OpsStageDeriver{Base: base, Publisher: opts.Publisher},
		Settings: opts.Settings,

		store:       opts.Store,
		logger:      opts.Logger,
		autoRefresh: opts.Pipeline.AutoRefreshSummary,
	}, nil
}

// AutoRefresh rebuilds the ops summary after a successful mutation when the
// feature is on. Failures are logged; the summary is derived state.
func (p *Pipeline) AutoRefresh(ctx context.Context) {
	if p == nil || !p.autoRefresh {
		return
	}
	if !p.Settings.IsEnabled(ctx, FeatureAutoRefreshSummary, true) {
		return
	}
	if _, err := p.Ops.refresh(ctx); err != nil {
		p.logger.Warn("ops summary auto refresh failed", zap.Error(err))
	}
}

func (p *Pipeline) ListSnapshots(ctx context.Context, docType models.DocType, limit int) ([]docstore.SnapshotInfo, error) {
	items, err := p.store.ListSnapshots(ctx, docType, limit)
	if err != nil {
		return nil, newError(CodeIO, fmt.Sprintf("list %s snapshots", docType), err)
	}
	return items, nil
}

// Purge deletes every document of a derived type. Authoritative types are
// refused.
func (p *Pipeline) Purge(ctx context.Context, c Confirm, docType models.DocType) error {
	if err := requireConfirm(c, "purge"); err != nil {
		return err
	}
	if !docType.Disposable() {
		return newError(CodeValidation, fmt.Sprintf("%s is not a derived document type", docType), nil)
	}
	if err := p.store.Purge(ctx, docType); err != nil {
		return newError(CodeIO, fmt.Sprintf("purge %s", docType), err)
	}
	p.logger.Info("derived documents purged", zap.String("doc_type", string(docType)))
	return nil
}
