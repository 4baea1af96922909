package poller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"evlogger/internal/models"
	"evlogger/internal/vehicle"
)

// Decision is the handling verdict for a classified remote-call failure.
// Halt means no further remote calls may be made this cycle.
type Decision struct {
	Kind vehicle.FailureKind
	Halt bool
}

// classifyFailure maps a remote-call error to a handling decision, logs it
// and writes the audit record. It never fails: an audit write error is
// logged and swallowed so the abort path stays deterministic.
func (o *Orchestrator) classifyFailure(ctx context.Context, stage string, err error) Decision {
	kind := vehicle.KindOf(err)
	decision := Decision{Kind: kind, Halt: kind == vehicle.KindRateLimited}

	switch kind {
	case vehicle.KindRateLimited:
		o.logger.Error("rate limited, stopping all remaining calls for this cycle",
			zap.String("stage", stage), zap.Error(err))
	case vehicle.KindTimeout:
		o.logger.Warn("vehicle did not respond, aborting to avoid compounding requests",
			zap.String("stage", stage), zap.Error(err))
	case vehicle.KindAPIError:
		o.logger.Warn("vendor api error", zap.String("stage", stage), zap.Error(err))
	default:
		o.logger.Warn("unclassified remote failure", zap.String("stage", stage), zap.Error(err))
	}

	record := &models.ErrorRecord{
		OccurredAt: o.now(),
		Kind:       string(kind),
		Detail:     fmt.Sprintf("%s: %v", stage, err),
	}
	if auditErr := o.store.InsertErrorRecord(ctx, record); auditErr != nil {
		o.logger.Error("failed to write error audit record", zap.Error(auditErr))
	}

	return decision
}

func (o *Orchestrator) recordAnomaly(ctx context.Context, kind string, detail string) {
	record := &models.ErrorRecord{
		OccurredAt: o.now(),
		Kind:       kind,
		Detail:     detail,
	}
	if err := o.store.InsertErrorRecord(ctx, record); err != nil {
		o.logger.Error("failed to write error audit record", zap.Error(err))
	}
}
