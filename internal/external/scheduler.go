package external

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs a sync of every source on a cron spec such as "@every 6h".
type Scheduler struct {
	cron   *cron.Cron
	syncer *Syncer
	spec   string
	log    zerolog.Logger
}

func NewScheduler(syncer *Syncer, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		syncer: syncer,
		spec:   spec,
		log:    log,
	}
}

// Start registers the sync job, starts the cron loop and kicks off one sync
// straight away in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return errors.Wrapf(err, "invalid external sync schedule %q", s.spec)
	}
	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Msg("external sync scheduler started")
	go s.run(ctx)
	return nil
}

// Stop halts the cron loop and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("external sync scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("external sync panicked")
		}
	}()
	results := s.syncer.SyncAll(ctx)
	s.log.Info().Int("sources", len(results)).Msg("external sync cycle complete")
}
