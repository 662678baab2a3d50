package mux

import (
	"errors"
	"testing"

	"github.com/edirooss/dabdns-bridge/internal/boostinfo"
	"go.uber.org/zap"
)

const testConfig = `
ensemble {
    ecc 0xe1
    id 0xce15
    label "Test Mux"
    shortlabel Test
}
subchannels {
    sub-audio {
        type audio
    }
    sub-epg {
        type packet
        bitrate 8
        inputuri "epg.dat"
    }
}
components {
    comp-audio {
        service srv1
        subchannel sub-audio
    }
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
    srv2 {
        id 0x4002
        label "Radio Two"
        ecc 0xd0
    }
}
`

func buildFrom(t *testing.T, text string) (*Ensemble, []Service, error) {
	t.Helper()
	tree, err := boostinfo.ParseString(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return NewBuilder(zap.NewNop()).Build(tree.Root())
}

func TestBuild(t *testing.T) {
	ens, services, err := buildFrom(t, testConfig)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if ens.ECC != 0xE1 || ens.EId != 0xCE15 {
		t.Errorf("ensemble = ecc %#x eid %#x, want 0xe1 0xce15", ens.ECC, ens.EId)
	}
	if ens.Label != "Test Mux" || ens.ShortLabel != "Test" {
		t.Errorf("ensemble labels = %q/%q", ens.Label, ens.ShortLabel)
	}

	if len(services) != 2 {
		t.Fatalf("got %d services, want 2 (declaration order)", len(services))
	}
	if services[0].Name != "srv1" || services[1].Name != "srv2" {
		t.Fatalf("service order = %s, %s", services[0].Name, services[1].Name)
	}

	srv1 := services[0]
	if !srv1.HasSlideshow {
		t.Error("srv1 should carry a slideshow component")
	}
	if !srv1.HasEPG {
		t.Fatal("srv1 should carry an EPG component")
	}
	if srv1.EPG == nil {
		t.Fatal("srv1 EPG parameters unset")
	}
	if srv1.EPG.PacketSize != 24 {
		t.Errorf("EPG packet size = %d, want 24 (bitrate 8 * 3)", srv1.EPG.PacketSize)
	}
	if srv1.EPG.InputURI != "epg.dat" {
		t.Errorf("EPG input URI = %q, want epg.dat", srv1.EPG.InputURI)
	}
	if srv1.EPG.PacketAddress != 1 {
		t.Errorf("EPG packet address = %d, want 1", srv1.EPG.PacketAddress)
	}
	if got, want := srv1.Bearer.String(), "dab:ce1.ce15.4001.0"; got != want {
		t.Errorf("srv1 bearer = %q, want %q", got, want)
	}

	// srv2 has no components and a per-service ecc override.
	srv2 := services[1]
	if srv2.HasEPG || srv2.HasSlideshow || srv2.EPG != nil {
		t.Error("srv2 should carry no data applications")
	}
	if srv2.Bearer.ECC != 0xD0 {
		t.Errorf("srv2 ecc = %#x, want override 0xd0", srv2.Bearer.ECC)
	}
}

func TestLongSIdDerivesECCFromId(t *testing.T) {
	_, services, err := buildFrom(t, `
ensemble {
    ecc 0xe1
    id 0xce15
}
services {
    srv1 {
        id 0xd0c04001
        label "Long"
        ecc 0x99 ; override must be ignored for long SIds
    }
}
`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := services[0].Bearer.ECC; got != 0xD0 {
		t.Errorf("long SId ecc = %#x, want 0xd0 (top byte of the SId)", got)
	}
}

func TestShortSIdFallsBackToEnsembleECC(t *testing.T) {
	_, services, err := buildFrom(t, `
ensemble {
    ecc 0xe1
    id 0xce15
}
services {
    srv1 {
        id 0x4001
        label "Short"
    }
}
`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := services[0].Bearer.ECC; got != 0xE1 {
		t.Errorf("short SId ecc = %#x, want ensemble 0xe1", got)
	}
}

func TestEPGWithIneligibleSubchannel(t *testing.T) {
	_, services, err := buildFrom(t, `
ensemble {
    ecc 0xe1
    id 0xce15
}
subchannels {
    sub-audio {
        type audio
    }
}
components {
    comp-epg {
        service srv1
        subchannel sub-audio
        figtype 0x7
        type 60
        address 0x1
    }
}
services {
    srv1 {
        id 0x4001
        label "One"
    }
}
`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	svc := services[0]
	if !svc.HasEPG {
		t.Error("hasEPG must remain true even when the subchannel is not eligible")
	}
	if svc.EPG != nil {
		t.Error("EPG parameters must stay unset for an ineligible subchannel")
	}
}

func TestFigtype7NonCarouselIgnored(t *testing.T) {
	_, services, err := buildFrom(t, `
ensemble {
    ecc 0xe1
    id 0xce15
}
components {
    comp {
        service srv1
        figtype 0x7
        type 59
    }
}
services {
    srv1 {
        id 0x4001
        label "One"
    }
}
`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if services[0].HasEPG {
		t.Error("figtype 7 with inner type != 60 must not set hasEPG")
	}
}

func TestMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		in   string
		path string
	}{
		{
			"ensemble ecc",
			"ensemble {\n    id 0xce15\n}",
			"ensemble/ecc",
		},
		{
			"ensemble id",
			"ensemble {\n    ecc 0xe1\n}",
			"ensemble/id",
		},
		{
			"subchannel bitrate",
			"ensemble {\n    ecc 0xe1\n    id 0xce15\n}\nsubchannels {\n    s {\n        type packet\n        inputuri x\n    }\n}",
			"subchannels/s/bitrate",
		},
		{
			"service label",
			"ensemble {\n    ecc 0xe1\n    id 0xce15\n}\nservices {\n    srv1 {\n        id 0x4001\n    }\n}",
			"services/srv1/label",
		},
		{
			"service id",
			"ensemble {\n    ecc 0xe1\n    id 0xce15\n}\nservices {\n    srv1 {\n        label L\n    }\n}",
			"services/srv1/id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildFrom(t, tt.in)
			var mfe *MissingFieldError
			if !errors.As(err, &mfe) {
				t.Fatalf("err = %v, want MissingFieldError", err)
			}
			if mfe.Path != tt.path {
				t.Errorf("path = %q, want %q", mfe.Path, tt.path)
			}
		})
	}
}
