package apply

import (
	"context"

	"go.uber.org/zap"

	"playprice/core/plan"
	"playprice/internal/errors"
	"playprice/internal/logging"
)

// DefaultIncreaseType is used when a migration run does not specify
// how subscribers experience the price change.
const DefaultIncreaseType = "PRICE_INCREASE_TYPE_OPT_IN"

// Platform is the write surface of the billing platform.
type Platform interface {
	// PatchRegionalConfigs replaces the base plan's regional configs
	// with the given set. A platform rejection surfaces as a
	// TypeValidation error carrying the raw server message.
	PatchRegionalConfigs(ctx context.Context, configs plan.MergedConfigSet, regionsVersion string) error

	// MigratePrices moves legacy subscriber cohorts in the given
	// regions onto the newly applied price.
	MigratePrices(ctx context.Context, regionCodes []string, regionsVersion, cutoffTime, increaseType string) error
}

// Options configures an apply run.
type Options struct {
	// RegionsVersion is the version token the write is based on.
	RegionsVersion string

	// BatchSize splits the merged set into chunks of this size,
	// each sent as an independent call. 0 sends a single request.
	BatchSize int

	// MigrateExisting submits legacy cohort migrations after a
	// successful apply.
	MigrateExisting bool

	// MigrateCutoff is the oldest allowed price version time
	// (ISO 8601), required when MigrateExisting is set.
	MigrateCutoff string

	// MigrateIncreaseType selects opt-in vs opt-out migration.
	MigrateIncreaseType string
}

// Orchestrator drives the apply attempt and its single permitted
// recovery retry.
type Orchestrator struct {
	platform Platform
	opts     Options
}

// NewOrchestrator creates an apply orchestrator.
func NewOrchestrator(platform Platform, opts Options) *Orchestrator {
	return &Orchestrator{platform: platform, opts: opts}
}

// Apply sends the merged set, recovering from at most one platform
// rejection by clamping an out-of-range price or dropping an
// unsupported region, then retrying the whole set exactly once. A
// second rejection, or an unrecognized one, is fatal. The set is
// mutated in place by recovery.
func (o *Orchestrator) Apply(ctx context.Context, set *plan.MergedConfigSet) error {
	if err := o.send(ctx, *set); err != nil {
		if !errors.IsType(err, errors.TypeValidation) {
			return err
		}

		if !o.recover(errors.MessageOf(err), set) {
			return err
		}

		if err := o.send(ctx, *set); err != nil {
			return err
		}
	}

	if o.opts.MigrateExisting {
		o.migrateLegacyCohorts(ctx, *set)
	}
	return nil
}

// recover performs exactly one recovery action against the merged set.
// Reports whether anything was adjusted and a retry is warranted.
func (o *Orchestrator) recover(message string, set *plan.MergedConfigSet) bool {
	c := ClassifyError(message)
	switch c.Kind {
	case OutOfBounds:
		if !clampPrice(*set, c) {
			return false
		}
		logging.Warn("clamped region price to platform bound, retrying once",
			zap.String("region", c.Region),
			zap.String("min", c.Min.String()),
			zap.String("max", c.Max.String()),
			zap.String("found", c.Found.String()))
		return true

	case UnsupportedRegion:
		if !set.Remove(c.Region) {
			return false
		}
		logging.Warn("removed unsupported region, retrying once",
			zap.String("region", c.Region))
		return true

	default:
		return false
	}
}

func (o *Orchestrator) send(ctx context.Context, set plan.MergedConfigSet) error {
	chunks := set.Chunks(o.opts.BatchSize)
	if len(chunks) > 1 {
		logging.Info("applying in batches",
			zap.Int("batch_size", o.opts.BatchSize),
			zap.Int("total", len(set)))
	}

	sent := 0
	for _, chunk := range chunks {
		if len(chunks) > 1 {
			logging.Info("applying chunk",
				zap.Int("from", sent+1),
				zap.Int("to", sent+len(chunk)))
		}
		if err := o.platform.PatchRegionalConfigs(ctx, chunk, o.opts.RegionsVersion); err != nil {
			return err
		}
		sent += len(chunk)
	}
	return nil
}

// migrateLegacyCohorts is a post-success side effect: failures are
// warnings and never roll back the applied price change.
func (o *Orchestrator) migrateLegacyCohorts(ctx context.Context, set plan.MergedConfigSet) {
	if o.opts.MigrateCutoff == "" {
		logging.Warn("legacy cohort migration skipped: cutoff timestamp is required")
		return
	}

	increaseType := o.opts.MigrateIncreaseType
	if increaseType == "" {
		increaseType = DefaultIncreaseType
	}

	regions := set.RegionCodes()
	logging.Info("migrating legacy cohorts", zap.Int("regions", len(regions)))
	if err := o.platform.MigratePrices(ctx, regions, o.opts.RegionsVersion, o.opts.MigrateCutoff, increaseType); err != nil {
		logging.Warn("legacy cohort migration failed", zap.Error(err))
		return
	}
	logging.Info("migration requests submitted")
}
