package jobs

import (
	"context"
	"time"

	"github.com/coderr/marketplace-api/internal/domain"
	"go.uber.org/zap"
)

// NormalizerJobName is the scheduler name of the offer detail normalization job
const NormalizerJobName = "offer_detail_normalizer"

// DetailNormalizer rewrites legacy offer detail rows into canonical form.
type DetailNormalizer interface {
	NormalizeAll(ctx context.Context, dryRun bool) (*domain.NormalizationReport, error)
}

// NormalizerJob periodically normalizes offer details written by older clients.
type NormalizerJob struct {
	normalizer DetailNormalizer
	logger     *zap.Logger
	timeout    time.Duration
}

func NewNormalizerJob(normalizer DetailNormalizer, logger *zap.Logger, timeout time.Duration) *NormalizerJob {
	return &NormalizerJob{
		normalizer: normalizer,
		logger:     logger,
		timeout:    timeout,
	}
}

// Run executes one normalization pass. Errors are logged, never returned,
// since the scheduler has nobody to return them to.
func (j *NormalizerJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	report, err := j.normalizer.NormalizeAll(ctx, false)
	if err != nil {
		j.logger.Error("offer detail normalization failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("offer detail normalization completed",
		zap.Int("scanned", report.Scanned),
		zap.Int("changed", report.Changed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterNormalizerJob adds the normalization job to the scheduler.
func RegisterNormalizerJob(scheduler *Scheduler, normalizer DetailNormalizer, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewNormalizerJob(normalizer, logger, timeout)
	return scheduler.AddJob(NormalizerJobName, cronExpr, job.Run)
}
