package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edirooss/dabdns-bridge/internal/radiodns"
	"go.uber.org/zap"
)

const muxConfig = `
ensemble {
    ecc 0xe1
    id 0xce15
    label "Test Mux"
    shortlabel Test
}
subchannels {
    sub-epg {
        type packet
        bitrate 8
        inputuri "epg.dat"
    }
}
components {
    comp-sls {
        service srv1
        figtype 0x2
    }
    comp-epg {
        service srv1
        subchannel sub-epg
        figtype 0x7
        type 60
        address 0x1
    }
}
services {
    srv1 {
        id 0x4001
        label "Radio One"
    }
}
`

func writeMux(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dabmux.info")
	if err := os.WriteFile(path, []byte(muxConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

type countingResolver struct {
	calls int
	rec   *radiodns.Record
}

func (r *countingResolver) Lookup(context.Context, string, string, string, string) (*radiodns.Record, error) {
	r.calls++
	return r.rec, nil
}

func TestSnapshotPipeline(t *testing.T) {
	resolver := &countingResolver{rec: &radiodns.Record{
		AuthoritativeFQDN: "radio1.example.com",
		Applications: map[string]radiodns.Application{
			radiodns.AppRadioVIS: {Supported: true, Servers: []string{"vis.example.com:61613"}},
			radiodns.AppRadioEPG: {Supported: true, Servers: []string{"epg.example.com:80"}},
		},
	}}
	svc := NewBridgeService(zap.NewNop(), writeMux(t), resolver, BridgeOptions{})

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Ensemble.Label != "Test Mux" {
		t.Errorf("ensemble label = %q", snap.Ensemble.Label)
	}
	if len(snap.Services) != 1 || snap.Services[0].EPG == nil || snap.Services[0].EPG.PacketSize != 24 {
		t.Fatalf("services = %+v", snap.Services)
	}
	if len(snap.Result.Slideshow) != 1 || len(snap.Result.EPG) != 1 {
		t.Fatalf("result = %+v", snap.Result)
	}
	if len(snap.Result.Warnings) != 0 {
		t.Errorf("warnings = %v", snap.Result.Warnings)
	}
}

func TestSnapshotIsCachedWithinTTL(t *testing.T) {
	resolver := &countingResolver{}
	svc := NewBridgeService(zap.NewNop(), writeMux(t), resolver, BridgeOptions{SnapshotTTL: time.Hour})

	first, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	callsAfterFirst := resolver.calls

	second, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if second != first {
		t.Error("second snapshot should be served from cache")
	}
	if resolver.calls != callsAfterFirst {
		t.Errorf("resolver called %d more times after cached read", resolver.calls-callsAfterFirst)
	}
}

func TestLoadMissingFile(t *testing.T) {
	svc := NewBridgeService(zap.NewNop(), filepath.Join(t.TempDir(), "nope.info"), &countingResolver{}, BridgeOptions{})
	if _, _, err := svc.Load(); err == nil {
		t.Fatal("Load on a missing file should fail")
	}
}
