package external

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	FetchTimeout = 10 * time.Second

	// bodies larger than cacheMaxSizeMB/cacheShards MB are fetched but not cached
	cacheShards    = 16
	cacheMaxSizeMB = 64
)

var ErrUnknownSource = errors.New("external job source not found")

// Source is a remote job feed. Parse turns a raw response body into jobs
// without ids; ids are assigned by the fetcher.
type Source struct {
	Key   string                                `json:"key"`
	Name  string                                `json:"name"`
	URL   string                                `json:"url"`
	Parse func(body []byte) ([]*job.Job, error) `json:"-"`
}

type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds s, replacing any source already registered under the same key.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[s.Key]; !ok {
		r.order = append(r.order, s.Key)
	}
	r.sources[s.Key] = s
}

func (r *Registry) Get(key string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[key]
	return s, ok
}

// Sources lists the registered sources in registration order.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.sources[k])
	}
	return out
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ExternalID derives a stable id for the index-th job of a source from its
// title, company and location.
func ExternalID(sourceKey string, j *job.Job, index int) string {
	content := fmt.Sprintf("%s-%s-%s-%s", sourceKey, j.Title, j.Company, j.Location)
	hash := nonAlnum.ReplaceAllString(base64.StdEncoding.EncodeToString([]byte(content)), "")
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return fmt.Sprintf("ext-%s-%s-%d", sourceKey, hash, index)
}

// Fetcher downloads and parses source feeds. Raw bodies are kept in an
// in-memory cache so previews do not hit the remote service every time.
type Fetcher struct {
	client *http.Client
	cache  *bigcache.BigCache
	log    zerolog.Logger
}

func NewFetcher(cacheTTL time.Duration, log zerolog.Logger) (*Fetcher, error) {
	cfg := bigcache.DefaultConfig(cacheTTL)
	cfg.Shards = cacheShards
	cfg.MaxEntriesInWindow = 64
	cfg.MaxEntrySize = 64 * 1024
	cfg.HardMaxCacheSize = cacheMaxSizeMB
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialise external jobs cache")
	}
	return &Fetcher{
		client: &http.Client{Timeout: FetchTimeout},
		cache:  cache,
		log:    log,
	}, nil
}

// Fetch returns the jobs currently published by src, using a cached body
// when one is available.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]*job.Job, error) {
	body, err := f.cache.Get(src.Key)
	if err != nil {
		body, err = f.download(ctx, src)
		if err != nil {
			return nil, err
		}
	}
	return f.parse(src, body)
}

// Refresh always downloads src and replaces the cached body.
func (f *Fetcher) Refresh(ctx context.Context, src Source) ([]*job.Job, error) {
	body, err := f.download(ctx, src)
	if err != nil {
		return nil, err
	}
	return f.parse(src, body)
}

func (f *Fetcher) Close() error {
	return f.cache.Close()
}

func (f *Fetcher) download(ctx context.Context, src Source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build request for %s", src.Name)
	}
	req.Header.Set("Accept", "application/json")
	res, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fetch jobs from %s", src.Name)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status code error: %d %s", src.URL, res.StatusCode, res.Status)
	}
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read response from %s", src.Name)
	}
	if err := f.cache.Set(src.Key, body); err != nil {
		f.log.Warn().Err(err).Str("source", src.Key).Int("bytes", len(body)).Msg("unable to cache external jobs response")
	}
	return body, nil
}

func (f *Fetcher) parse(src Source, body []byte) ([]*job.Job, error) {
	jobs, err := src.Parse(body)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse jobs from %s", src.Name)
	}
	for i, j := range jobs {
		id := ExternalID(src.Key, j, i)
		j.ID = id
		j.ExternalID = &id
		j.IsExternal = true
	}
	return jobs, nil
}
