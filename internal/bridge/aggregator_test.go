package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/edirooss/dabdns-bridge/internal/mux"
	"github.com/edirooss/dabdns-bridge/internal/radiodns"
	"github.com/edirooss/dabdns-bridge/internal/spi"
	"go.uber.org/zap"
)

// mockResolver answers by service id (uppercase hex, as passed to Lookup).
type mockResolver struct {
	records map[string]*radiodns.Record
	errs    map[string]error
}

func (m *mockResolver) Lookup(_ context.Context, _, _, sid, _ string) (*radiodns.Record, error) {
	if err, ok := m.errs[sid]; ok {
		return nil, err
	}
	return m.records[sid], nil
}

func svc(name string, sid int, opts ...func(*mux.Service)) mux.Service {
	s := mux.Service{
		Name:   name,
		Label:  name + " label",
		Bearer: spi.NewDABBearer(0xE1, 0xCE15, sid),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func withSlideshow() func(*mux.Service) {
	return func(s *mux.Service) { s.HasSlideshow = true }
}

func withEPG(inputURI string) func(*mux.Service) {
	return func(s *mux.Service) {
		s.HasEPG = true
		s.EPG = &mux.EPGCarousel{PacketSize: 24, InputURI: inputURI, PacketAddress: 1}
	}
}

func record(fqdn string, apps map[string]radiodns.Application) *radiodns.Record {
	return &radiodns.Record{AuthoritativeFQDN: fqdn, Applications: apps}
}

func resolve(t *testing.T, r radiodns.Resolver, parallelism int, services ...mux.Service) Result {
	t.Helper()
	return NewAggregator(zap.NewNop(), r, parallelism).Resolve(context.Background(), services)
}

func TestSlideshowBridge(t *testing.T) {
	r := &mockResolver{records: map[string]*radiodns.Record{
		"4001": record("radio1.example.com", map[string]radiodns.Application{
			radiodns.AppRadioVIS: {Supported: true, Servers: []string{"vis.example.com:61613"}},
		}),
	}}
	res := resolve(t, r, 1, svc("srv1", 0x4001, withSlideshow()))

	if len(res.Slideshow) != 1 {
		t.Fatalf("got %d slideshow bridges, want 1", len(res.Slideshow))
	}
	sb := res.Slideshow[0]
	if sb.FQDN != "radio1.example.com" {
		t.Errorf("fqdn = %q", sb.FQDN)
	}
	if len(sb.Variants) != 1 || sb.Variants[0] != radiodns.AppRadioVIS {
		t.Errorf("variants = %v, want [radiovis]", sb.Variants)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestOrphanSlideshowComponent(t *testing.T) {
	// Scenario: figtype 2 declared, but DNS advertises no visual app.
	r := &mockResolver{records: map[string]*radiodns.Record{
		"4001": record("radio1.example.com", map[string]radiodns.Application{
			radiodns.AppRadioEPG: {Supported: true, Servers: []string{"epg.example.com:80"}},
		}),
	}}
	res := resolve(t, r, 1, svc("srv1", 0x4001, withSlideshow()))

	if len(res.Slideshow) != 0 {
		t.Errorf("got %d slideshow bridges, want 0", len(res.Slideshow))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != OrphanSlideshowComponent {
		t.Fatalf("warnings = %v, want one OrphanSlideshowComponent", res.Warnings)
	}
	if res.Warnings[0].Service != "srv1" {
		t.Errorf("warning service = %q", res.Warnings[0].Service)
	}
}

func TestOrphanVisualService(t *testing.T) {
	r := &mockResolver{records: map[string]*radiodns.Record{
		"4001": record("radio1.example.com", map[string]radiodns.Application{
			radiodns.AppRadioVISHTTP: {Supported: true},
		}),
	}}
	res := resolve(t, r, 1, svc("srv1", 0x4001)) // no slideshow component

	if len(res.Warnings) != 1 || res.Warnings[0].Kind != OrphanVisualService {
		t.Fatalf("warnings = %v, want one OrphanVisualService", res.Warnings)
	}
}

func TestEPGDeduplicationByFQDN(t *testing.T) {
	apps1 := map[string]radiodns.Application{
		radiodns.AppRadioEPG: {Supported: true, Servers: []string{"one.example.com:80"}},
	}
	apps2 := map[string]radiodns.Application{
		radiodns.AppRadioEPG: {Supported: true, Servers: []string{"two.example.com:80"}},
	}
	r := &mockResolver{records: map[string]*radiodns.Record{
		"4001": record("epg.example.com", apps1),
		"4002": record("epg.example.com", apps2),
	}}
	res := resolve(t, r, 1,
		svc("srv1", 0x4001, withEPG("epg.dat")),
		svc("srv2", 0x4002, withEPG("epg.dat")),
	)

	if len(res.EPG) != 1 {
		t.Fatalf("got %d EPG bridges, want 1 (deduplicated by fqdn)", len(res.EPG))
	}
	eb := res.EPG[0]
	if eb.App != radiodns.AppRadioEPG {
		t.Errorf("app = %q", eb.App)
	}
	if len(eb.Bearers) != 2 {
		t.Fatalf("bearer set size = %d, want 2", len(eb.Bearers))
	}
	if eb.Bearers[0].String() != "dab:ce1.ce15.4001.0" || eb.Bearers[1].String() != "dab:ce1.ce15.4002.0" {
		t.Errorf("bearers = %v", eb.Bearers)
	}
	// Last contributing service's server list wins.
	if len(eb.Servers) != 1 || eb.Servers[0] != "two.example.com:80" {
		t.Errorf("servers = %v, want the last contributor's list", eb.Servers)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestGuideAppPreference(t *testing.T) {
	// Both guide applications advertised: the first in preference order wins.
	r := &mockResolver{records: map[string]*radiodns.Record{
		"4001": record("epg.example.com", map[string]radiodns.Application{
			radiodns.AppRadioSPI: {Supported: true, Servers: []string{"spi.example.com:80"}},
			radiodns.AppRadioEPG: {Supported: true, Servers: []string{"epg.example.com:80"}},
		}),
	}}
	res := resolve(t, r, 1, svc("srv1", 0x4001))

	if len(res.EPG) != 1 || res.EPG[0].App != radiodns.AppRadioEPG {
		t.Fatalf("EPG = %v, want one radioepg entry", res.EPG)
	}
}

func TestMultipleEPGInputSources(t *testing.T) {
	r := &mockResolver{}
	res := resolve(t, r, 1,
		svc("srv1", 0x4001, withEPG("epg-a.dat")),
		svc("srv2", 0x4002, withEPG("epg-b.dat")),
	)

	var found *Warning
	for i := range res.Warnings {
		if res.Warnings[i].Kind == MultipleEPGInputSources {
			found = &res.Warnings[i]
		}
	}
	if found == nil {
		t.Fatalf("warnings = %v, want MultipleEPGInputSources", res.Warnings)
	}
	if len(found.InputURIs) != 2 {
		t.Errorf("input URIs = %v, want both sources", found.InputURIs)
	}
}

func TestSingleEPGInputSourceNoWarning(t *testing.T) {
	r := &mockResolver{}
	res := resolve(t, r, 1,
		svc("srv1", 0x4001, withEPG("epg.dat")),
		svc("srv2", 0x4002, withEPG("epg.dat")),
	)
	for _, w := range res.Warnings {
		if w.Kind == MultipleEPGInputSources {
			t.Fatalf("unexpected warning: %v", w)
		}
	}
}

func TestLookupFailureDegradesToNoRecord(t *testing.T) {
	// Scenario: simulated timeout for one service; the run completes and the
	// service is excluded from both bridge lists.
	r := &mockResolver{
		records: map[string]*radiodns.Record{
			"4002": record("radio2.example.com", map[string]radiodns.Application{
				radiodns.AppRadioVIS: {Supported: true},
			}),
		},
		errs: map[string]error{"4001": errors.New("i/o timeout")},
	}
	res := resolve(t, r, 1,
		svc("srv1", 0x4001, withSlideshow()),
		svc("srv2", 0x4002, withSlideshow()),
	)

	if len(res.Slideshow) != 1 || res.Slideshow[0].FQDN != "radio2.example.com" {
		t.Fatalf("slideshow = %v, want only srv2's bridge", res.Slideshow)
	}
	if len(res.EPG) != 0 {
		t.Errorf("EPG = %v, want none", res.EPG)
	}
	// srv1 still warns: it declares a slideshow component with no visual
	// source resolvable.
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != OrphanSlideshowComponent {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestDeterministicOrderUnderParallelLookups(t *testing.T) {
	records := make(map[string]*radiodns.Record)
	var services []mux.Service
	for i := 0; i < 32; i++ {
		sid := 0x4000 + i
		name := fmt.Sprintf("srv%02d", i)
		fqdn := fmt.Sprintf("radio%02d.example.com", i)
		records[fmt.Sprintf("%X", sid)] = record(fqdn, map[string]radiodns.Application{
			radiodns.AppRadioVIS: {Supported: true},
			radiodns.AppRadioEPG: {Supported: true, Servers: []string{fqdn + ":80"}},
		})
		services = append(services, svc(name, sid, withSlideshow()))
	}

	res := resolve(t, &mockResolver{records: records}, 8, services...)

	if len(res.Slideshow) != len(services) {
		t.Fatalf("got %d slideshow bridges, want %d", len(res.Slideshow), len(services))
	}
	for i, sb := range res.Slideshow {
		want := fmt.Sprintf("radio%02d.example.com", i)
		if sb.FQDN != want {
			t.Fatalf("slideshow[%d].FQDN = %q, want %q (declaration order)", i, sb.FQDN, want)
		}
	}
	for i, eb := range res.EPG {
		want := fmt.Sprintf("radio%02d.example.com", i)
		if eb.FQDN != want {
			t.Fatalf("epg[%d].FQDN = %q, want %q (declaration order)", i, eb.FQDN, want)
		}
	}
}

func TestEPGContributionDoesNotRequireHasEPG(t *testing.T) {
	// A service contributes to the EPG bridge purely on what DNS advertises.
	r := &mockResolver{records: map[string]*radiodns.Record{
		"4001": record("epg.example.com", map[string]radiodns.Application{
			radiodns.AppRadioEPG: {Supported: true, Servers: []string{"s.example.com:80"}},
		}),
	}}
	res := resolve(t, r, 1, svc("srv1", 0x4001))
	if len(res.EPG) != 1 {
		t.Fatalf("EPG = %v, want one entry", res.EPG)
	}
}
