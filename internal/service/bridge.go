// Package service coordinates the mux pipeline: parse the configuration,
// build the model, resolve bearers and aggregate bridges.
package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/edirooss/dabdns-bridge/internal/boostinfo"
	"github.com/edirooss/dabdns-bridge/internal/bridge"
	"github.com/edirooss/dabdns-bridge/internal/mux"
	"github.com/edirooss/dabdns-bridge/internal/radiodns"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BridgeOptions tune the resolution pipeline and the snapshot cache.
type BridgeOptions struct {
	// LookupParallelism bounds concurrent directory lookups; default 4.
	LookupParallelism int
	// SnapshotTTL controls how long a resolved snapshot is served before the
	// next request re-runs the pipeline; default 30s.
	SnapshotTTL time.Duration
}

func (o *BridgeOptions) setDefaults() {
	if o.LookupParallelism <= 0 {
		o.LookupParallelism = 4
	}
	if o.SnapshotTTL <= 0 {
		o.SnapshotTTL = 30 * time.Second
	}
}

// Snapshot is one full pipeline run. Immutable once built.
type Snapshot struct {
	Ensemble    *mux.Ensemble
	Services    []mux.Service
	Result      bridge.Result
	GeneratedAt time.Time
}

// BridgeService runs the parse → build → resolve → aggregate pipeline over a
// mux configuration file and caches the latest snapshot. Handlers call
// Snapshot(); concurrent refreshes collapse into one run.
type BridgeService struct {
	log  *zap.Logger
	path string
	agg  *bridge.Aggregator

	builder *mux.Builder
	opts    BridgeOptions
	now     func() time.Time

	mu      sync.RWMutex
	cache   *Snapshot
	expires time.Time

	sg singleflight.Group
}

// NewBridgeService wires the pipeline for the mux configuration at path.
func NewBridgeService(log *zap.Logger, path string, resolver radiodns.Resolver, opts BridgeOptions) *BridgeService {
	opts.setDefaults()
	log = log.Named("bridge_service")
	return &BridgeService{
		log:     log,
		path:    path,
		agg:     bridge.NewAggregator(log, resolver, opts.LookupParallelism),
		builder: mux.NewBuilder(log),
		opts:    opts,
		now:     time.Now,
	}
}

// Load parses the configuration file and builds the mux model without
// resolving anything.
func (s *BridgeService) Load() (*mux.Ensemble, []mux.Service, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open mux config: %w", err)
	}
	defer f.Close()

	tree, err := boostinfo.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return s.builder.Build(tree.Root())
}

// Snapshot returns the cached pipeline result, re-running the pipeline when
// the cache has expired.
func (s *BridgeService) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	if s.cache != nil && s.now().Before(s.expires) {
		snap := s.cache
		s.mu.RUnlock()
		return snap, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.sg.Do("snapshot", func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *BridgeService) refresh(ctx context.Context) (*Snapshot, error) {
	start := s.now()
	ens, services, err := s.Load()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Ensemble:    ens,
		Services:    services,
		Result:      s.agg.Resolve(ctx, services),
		GeneratedAt: start,
	}

	s.mu.Lock()
	s.cache = snap
	s.expires = start.Add(s.opts.SnapshotTTL)
	s.mu.Unlock()

	s.log.Info("snapshot refreshed",
		zap.Int("services", len(services)),
		zap.Int("slideshow_bridges", len(snap.Result.Slideshow)),
		zap.Int("epg_bridges", len(snap.Result.EPG)),
		zap.Int("warnings", len(snap.Result.Warnings)),
		zap.Duration("took", s.now().Sub(start)),
	)
	return snap, nil
}
