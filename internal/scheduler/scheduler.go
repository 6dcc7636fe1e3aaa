package scheduler

import (
	"context"
	"log/slog"
	"time"

	"newsdesk/internal/articles"

	"github.com/robfig/cron/v3"
)

const backfillTimeout = 10 * time.Minute

// Scheduler periodically re-attempts summaries for articles that were
// persisted without one. Ingestion itself never runs here.
type Scheduler struct {
	ctx  context.Context
	cron *cron.Cron
	svc  *articles.Service
	spec string
	log  *slog.Logger
}

func New(ctx context.Context, svc *articles.Service, spec string, log *slog.Logger) *Scheduler {
	return &Scheduler{
		ctx:  ctx,
		cron: cron.New(cron.WithLocation(time.UTC)),
		svc:  svc,
		spec: spec,
		log:  log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.backfillSummaries); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) backfillSummaries() {
	ctx, cancel := context.WithTimeout(s.ctx, backfillTimeout)
	defer cancel()

	filled, err := s.svc.BackfillSummaries(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Summary backfill finished with errors",
			"error", err,
			"filled", filled)

		return
	}

	if filled > 0 {
		s.log.InfoContext(ctx, "Summary backfill is finished",
			"filled", filled)
	}
}
