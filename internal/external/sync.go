package external

import (
	"context"
	"strings"
	"time"

	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/metrics"
	"github.com/rs/zerolog"
)

type JobStore interface {
	SaveExternal(j *job.Job) (bool, error)
	GetByID(id string) (*job.Job, error)
}

// Notifier is told about every job a sync inserts.
type Notifier interface {
	NotifyAsync(j *job.Job)
}

type SyncLog interface {
	SetLastExternalSync(sourceKey string, at time.Time) error
}

type SyncResult struct {
	Source  string    `json:"source"`
	Synced  int       `json:"synced"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
	At      time.Time `json:"synced_at"`
}

type Syncer struct {
	registry *Registry
	fetcher  *Fetcher
	jobs     JobStore
	notifier Notifier
	syncLog  SyncLog
	log      zerolog.Logger
}

func NewSyncer(registry *Registry, fetcher *Fetcher, jobs JobStore, notifier Notifier, syncLog SyncLog, log zerolog.Logger) *Syncer {
	return &Syncer{
		registry: registry,
		fetcher:  fetcher,
		jobs:     jobs,
		notifier: notifier,
		syncLog:  syncLog,
		log:      log,
	}
}

func (s *Syncer) Registry() *Registry {
	return s.registry
}

// Preview returns what a source currently publishes without storing anything.
func (s *Syncer) Preview(ctx context.Context, key string) ([]*job.Job, error) {
	src, ok := s.registry.Get(key)
	if !ok {
		return nil, ErrUnknownSource
	}
	return s.fetcher.Fetch(ctx, src)
}

// Sync downloads a source and stores the jobs not seen before. Subscribers
// are notified about each inserted job. A job that cannot be stored is
// counted and logged and the rest of the batch carries on.
func (s *Syncer) Sync(ctx context.Context, key string) (SyncResult, error) {
	res := SyncResult{Source: key}
	src, ok := s.registry.Get(key)
	if !ok {
		return res, ErrUnknownSource
	}
	jobs, err := s.fetcher.Refresh(ctx, src)
	if err != nil {
		s.log.Error().Err(err).Str("source", key).Msgf("failed to sync jobs from %s", src.Name)
		return res, err
	}
	for _, j := range jobs {
		inserted, err := s.jobs.SaveExternal(j)
		switch {
		case err != nil:
			res.Failed++
			metrics.ExternalJobsSynced.WithLabelValues(key, metrics.ResultFailed).Inc()
			s.log.Error().Err(err).Str("source", key).Msg("failed to sync individual job")
		case inserted:
			res.Synced++
			metrics.ExternalJobsSynced.WithLabelValues(key, metrics.ResultInserted).Inc()
			if s.notifier != nil {
				s.notifier.NotifyAsync(j)
			}
		default:
			res.Skipped++
			metrics.ExternalJobsSynced.WithLabelValues(key, metrics.ResultSkipped).Inc()
		}
	}
	res.At = time.Now().UTC()
	if s.syncLog != nil {
		if err := s.syncLog.SetLastExternalSync(key, res.At); err != nil {
			s.log.Error().Err(err).Str("source", key).Msg("unable to record last external sync")
		}
	}
	s.log.Info().
		Str("source", key).
		Int("synced", res.Synced).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msgf("synced %d jobs from %s, %d failed", res.Synced, src.Name, res.Failed)
	return res, nil
}

// SyncAll syncs every registered source in turn.
func (s *Syncer) SyncAll(ctx context.Context) []SyncResult {
	results := []SyncResult{}
	for _, src := range s.registry.Sources() {
		res, err := s.Sync(ctx, src.Key)
		if err != nil {
			continue
		}
		results = append(results, res)
	}
	return results
}

// Find looks an external id up in the sources it may belong to. Nothing is
// stored.
func (s *Syncer) Find(ctx context.Context, id string) (*job.Job, error) {
	j, _, err := s.find(ctx, id)
	return j, err
}

func (s *Syncer) find(ctx context.Context, id string) (*job.Job, string, error) {
	if !strings.HasPrefix(id, "ext-") {
		return nil, "", job.ErrNotFound
	}
	for _, src := range s.registry.Sources() {
		if !strings.HasPrefix(id, "ext-"+src.Key+"-") {
			continue
		}
		jobs, err := s.fetcher.Fetch(ctx, src)
		if err != nil {
			s.log.Error().Err(err).Str("source", src.Key).Msg("unable to look up external job")
			continue
		}
		for _, j := range jobs {
			if j.ID == id {
				return j, src.Key, nil
			}
		}
	}
	return nil, "", job.ErrNotFound
}

// FindAndPersist stores the external job with the given id so it can be
// referenced like any other job, for instance by an application.
func (s *Syncer) FindAndPersist(ctx context.Context, id string) (*job.Job, error) {
	j, key, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	inserted, err := s.jobs.SaveExternal(j)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.jobs.GetByID(id)
	}
	metrics.ExternalJobsSynced.WithLabelValues(key, metrics.ResultInserted).Inc()
	if s.notifier != nil {
		s.notifier.NotifyAsync(j)
	}
	return j, nil
}
