// Package bridge reconciles built mux services against directory lookups and
// folds them into deduplicated slideshow and programme-guide bridge lists.
package bridge

import (
	"context"
	"fmt"

	"github.com/edirooss/dabdns-bridge/internal/mux"
	"github.com/edirooss/dabdns-bridge/internal/radiodns"
	"github.com/edirooss/dabdns-bridge/internal/spi"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SlideshowBridge is one service whose slideshow component is backed by an
// advertised visual application.
type SlideshowBridge struct {
	FQDN     string     `json:"fqdn"`
	Bearer   spi.Bearer `json:"bearer"`
	Variants []string   `json:"variants"`
}

// EPGBridge is one authoritative host serving a guide application,
// accumulated over every contributing service. Entries are keyed by fqdn:
// the first contributing service creates the entry, later contributors with
// the same winning application add their bearer and overwrite the server
// list (the list is defined per-fqdn, not per-service).
type EPGBridge struct {
	FQDN    string       `json:"fqdn"`
	Bearers []spi.Bearer `json:"bearers"`
	Servers []string     `json:"servers"`
	App     string       `json:"application"`
}

// Result is the full aggregation output.
type Result struct {
	Slideshow []SlideshowBridge `json:"slideshow"`
	EPG       []EPGBridge       `json:"epg"`
	Warnings  []Warning         `json:"warnings"`
}

// Aggregator resolves services and folds them into bridge lists.
//
// Lookups fan out with bounded parallelism; the fold always applies services
// in declaration order, so output ordering and first-seen-wins dedup are
// deterministic regardless of lookup interleaving.
type Aggregator struct {
	log         *zap.Logger
	resolver    radiodns.Resolver
	parallelism int
}

// NewAggregator builds an Aggregator. parallelism < 1 means sequential.
func NewAggregator(log *zap.Logger, resolver radiodns.Resolver, parallelism int) *Aggregator {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Aggregator{
		log:         log.Named("bridge"),
		resolver:    resolver,
		parallelism: parallelism,
	}
}

// Resolve looks up every service and aggregates bridges and warnings.
// Lookup failures degrade the affected service to "no record" and are never
// fatal.
func (a *Aggregator) Resolve(ctx context.Context, services []mux.Service) Result {
	records := a.lookupAll(ctx, services)

	return Result{
		Slideshow: a.foldSlideshow(services, records),
		EPG:       a.foldEPG(services, records),
		Warnings:  a.collectWarnings(services, records),
	}
}

// lookupAll resolves all services concurrently; records[i] belongs to
// services[i]. Failed lookups leave a nil record.
func (a *Aggregator) lookupAll(ctx context.Context, services []mux.Service) []*radiodns.Record {
	records := make([]*radiodns.Record, len(services))

	g := new(errgroup.Group)
	g.SetLimit(a.parallelism)
	for i := range services {
		g.Go(func() error {
			svc := &services[i]
			b := svc.Bearer
			rec, err := a.resolver.Lookup(ctx,
				fmt.Sprintf("%X", b.GCC()),
				fmt.Sprintf("%X", b.EId),
				fmt.Sprintf("%X", b.SId),
				fmt.Sprintf("%X", b.SCIdS),
			)
			if err != nil {
				a.log.Warn("lookup failed",
					zap.String("service", svc.Name),
					zap.String("bearer", b.String()),
					zap.Error(err),
				)
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	g.Wait() // goroutines never return errors; failures degrade to nil records
	return records
}

func (a *Aggregator) foldSlideshow(services []mux.Service, records []*radiodns.Record) []SlideshowBridge {
	var out []SlideshowBridge
	for i, svc := range services {
		rec := records[i]

		var variants []string
		for _, app := range radiodns.VisualApps {
			if rec.Supports(app) {
				variants = append(variants, app)
			}
		}
		if svc.HasSlideshow && len(variants) > 0 {
			out = append(out, SlideshowBridge{
				FQDN:     rec.AuthoritativeFQDN,
				Bearer:   svc.Bearer,
				Variants: variants,
			})
		}
	}
	return out
}

func (a *Aggregator) foldEPG(services []mux.Service, records []*radiodns.Record) []EPGBridge {
	var out []EPGBridge
	// fqdn -> index into out, and the bearer strings already accumulated per fqdn.
	byFQDN := make(map[string]int)
	seen := make(map[string]map[string]bool)

	for i, svc := range services {
		rec := records[i]
		if rec == nil || rec.AuthoritativeFQDN == "" {
			continue
		}
		app := ""
		for _, candidate := range radiodns.GuideApps {
			if rec.Supports(candidate) {
				app = candidate
				break
			}
		}
		if app == "" {
			continue
		}

		fqdn := rec.AuthoritativeFQDN
		idx, ok := byFQDN[fqdn]
		if !ok {
			idx = len(out)
			out = append(out, EPGBridge{FQDN: fqdn, App: app})
			byFQDN[fqdn] = idx
			seen[fqdn] = make(map[string]bool)
		}
		entry := &out[idx]
		if entry.App != app {
			continue
		}
		if uri := svc.Bearer.String(); !seen[fqdn][uri] {
			seen[fqdn][uri] = true
			entry.Bearers = append(entry.Bearers, svc.Bearer)
		}
		// Last contributor wins; the server list is a per-fqdn property.
		if srv, ok := rec.Application(app); ok {
			entry.Servers = srv.Servers
		}
	}
	return out
}

func (a *Aggregator) collectWarnings(services []mux.Service, records []*radiodns.Record) []Warning {
	var out []Warning

	var epgURIs []string
	epgSeen := make(map[string]bool)

	for i, svc := range services {
		rec := records[i]
		visual := rec.SupportsAny(radiodns.VisualApps...)

		if visual && !svc.HasSlideshow {
			out = append(out, Warning{Kind: OrphanVisualService, Service: svc.Name, Label: svc.Label})
		}
		if svc.HasSlideshow && !visual {
			out = append(out, Warning{Kind: OrphanSlideshowComponent, Service: svc.Name, Label: svc.Label})
		}
		if svc.HasEPG {
			// A carousel without resolved packet parameters contributes an
			// empty URI, which still counts as a distinct source.
			uri := ""
			if svc.EPG != nil {
				uri = svc.EPG.InputURI
			}
			if !epgSeen[uri] {
				epgSeen[uri] = true
				epgURIs = append(epgURIs, uri)
			}
		}
	}

	if len(epgURIs) > 1 {
		out = append(out, Warning{Kind: MultipleEPGInputSources, InputURIs: epgURIs})
	}
	return out
}
