package mux

import (
	"fmt"
	"strconv"

	"github.com/edirooss/dabdns-bridge/internal/boostinfo"
	"github.com/edirooss/dabdns-bridge/internal/spi"
	"go.uber.org/zap"
)

// MissingFieldError reports a mandatory configuration key that is absent,
// identified by its full path.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Path
}

// Builder extracts the ensemble and service records from a parsed tree.
type Builder struct {
	log *zap.Logger
}

// NewBuilder returns a Builder logging through log.
func NewBuilder(log *zap.Logger) *Builder {
	return &Builder{log: log.Named("mux")}
}

// Build walks the fixed sections (ensemble, subchannels, components,
// services) and emits one Service per declared service, in declaration
// order. Sections other than ensemble may be absent entirely; a missing
// mandatory key inside a present block is a MissingFieldError.
func (b *Builder) Build(root boostinfo.Node) (*Ensemble, []Service, error) {
	ens, err := b.buildEnsemble(root)
	if err != nil {
		return nil, nil, err
	}
	subchannels, err := b.buildSubchannels(root)
	if err != nil {
		return nil, nil, err
	}
	components, err := b.buildComponents(root)
	if err != nil {
		return nil, nil, err
	}
	services, err := b.buildServices(root, ens, subchannels, components)
	if err != nil {
		return nil, nil, err
	}

	b.log.Debug("model built",
		zap.Int("subchannels", len(subchannels)),
		zap.Int("components", len(components)),
		zap.Int("services", len(services)),
	)
	return ens, services, nil
}

func (b *Builder) buildEnsemble(root boostinfo.Node) (*Ensemble, error) {
	ecc, err := requireHex(root, "ensemble/ecc")
	if err != nil {
		return nil, err
	}
	eid, err := requireHex(root, "ensemble/id")
	if err != nil {
		return nil, err
	}
	ens := &Ensemble{ECC: ecc, EId: eid}
	// Labels are carried for the summary surface; the original tooling reads
	// them alongside ecc/id.
	if n, ok := root.First("ensemble/label"); ok {
		ens.Label = n.Value()
	}
	if n, ok := root.First("ensemble/shortlabel"); ok {
		ens.ShortLabel = n.Value()
	}
	return ens, nil
}

// buildSubchannels keeps only packet and enhanced-packet entries; every kept
// entry must declare bitrate and inputuri.
func (b *Builder) buildSubchannels(root boostinfo.Node) ([]Subchannel, error) {
	section, ok := root.First("subchannels")
	if !ok {
		return nil, nil
	}

	var out []Subchannel
	for _, name := range section.Keys() {
		block := section.Children(name)[0]
		kind, err := requireValue(block, "type", "subchannels/"+name+"/type")
		if err != nil {
			return nil, err
		}
		sk := SubchannelKind(kind)
		if sk != SubchannelPacket && sk != SubchannelEnhancedPacket {
			continue
		}

		rate, err := requireValue(block, "bitrate", "subchannels/"+name+"/bitrate")
		if err != nil {
			return nil, err
		}
		bitrate, err := strconv.Atoi(rate)
		if err != nil {
			return nil, fmt.Errorf("subchannel %s: bad bitrate %q: %w", name, rate, err)
		}
		inputURI, err := requireValue(block, "inputuri", "subchannels/"+name+"/inputuri")
		if err != nil {
			return nil, err
		}
		out = append(out, Subchannel{Name: name, Kind: sk, Bitrate: bitrate, InputURI: inputURI})
	}
	return out, nil
}

// buildComponents classifies component blocks by figtype. Blocks without a
// figtype are skipped; figtype 2 is a slideshow component, figtype 7 is a
// data application and only its type 60 (data carousel) form is kept.
func (b *Builder) buildComponents(root boostinfo.Node) ([]Component, error) {
	section, ok := root.First("components")
	if !ok {
		return nil, nil
	}

	var out []Component
	for _, name := range section.Keys() {
		block := section.Children(name)[0]
		ftNode, ok := block.First("figtype")
		if !ok {
			continue
		}
		figtype, err := parseHex(ftNode.Value())
		if err != nil {
			return nil, fmt.Errorf("component %s: bad figtype %q: %w", name, ftNode.Value(), err)
		}

		switch figtype {
		case 2:
			svc, err := requireValue(block, "service", "components/"+name+"/service")
			if err != nil {
				return nil, err
			}
			out = append(out, Component{Service: svc, FigType: figtype})

		case 7:
			typ, err := requireValue(block, "type", "components/"+name+"/type")
			if err != nil {
				return nil, err
			}
			inner, err := strconv.Atoi(typ)
			if err != nil {
				return nil, fmt.Errorf("component %s: bad type %q: %w", name, typ, err)
			}
			if inner != 60 {
				continue
			}
			svc, err := requireValue(block, "service", "components/"+name+"/service")
			if err != nil {
				return nil, err
			}
			sub, err := requireValue(block, "subchannel", "components/"+name+"/subchannel")
			if err != nil {
				return nil, err
			}
			addr, err := requireValue(block, "address", "components/"+name+"/address")
			if err != nil {
				return nil, err
			}
			address, err := parseHex(addr)
			if err != nil {
				return nil, fmt.Errorf("component %s: bad address %q: %w", name, addr, err)
			}
			out = append(out, Component{Service: svc, FigType: figtype, Subchannel: sub, Address: address})

		default:
			b.log.Debug("ignoring component figtype", zap.String("component", name), zap.Int("figtype", figtype))
		}
	}
	return out, nil
}

func (b *Builder) buildServices(root boostinfo.Node, ens *Ensemble, subchannels []Subchannel, components []Component) ([]Service, error) {
	section, ok := root.First("services")
	if !ok {
		return nil, nil
	}

	var out []Service
	for _, name := range section.Keys() {
		block := section.Children(name)[0]

		idValue, err := requireValue(block, "id", "services/"+name+"/id")
		if err != nil {
			return nil, err
		}
		sid, err := parseHex(idValue)
		if err != nil {
			return nil, fmt.Errorf("service %s: bad id %q: %w", name, idValue, err)
		}
		label, err := requireValue(block, "label", "services/"+name+"/label")
		if err != nil {
			return nil, err
		}

		// Long SIds (first two nibbles) carry their own ECC; short SIds use
		// an explicit per-service override, else the ensemble ECC.
		var ecc int
		if sid > 0xFFFF {
			ecc = sid >> 24
		} else if n, ok := block.First("ecc"); ok {
			ecc, err = parseHex(n.Value())
			if err != nil {
				return nil, fmt.Errorf("service %s: bad ecc %q: %w", name, n.Value(), err)
			}
		} else {
			ecc = ens.ECC
		}

		svc := Service{
			Name:   name,
			Label:  label,
			Bearer: spi.NewDABBearer(ecc, ens.EId, sid),
		}

		for _, comp := range components {
			if comp.Service != name {
				continue
			}
			switch comp.FigType {
			case 2:
				svc.HasSlideshow = true
			case 7:
				svc.HasEPG = true
				// Packet parameters only resolve against an eligible
				// subchannel; a dangling reference leaves them unset.
				for _, sub := range subchannels {
					if sub.Name == comp.Subchannel {
						svc.EPG = &EPGCarousel{
							PacketSize:    sub.Bitrate * 3,
							InputURI:      sub.InputURI,
							PacketAddress: comp.Address,
						}
					}
				}
			}
		}

		out = append(out, svc)
	}
	return out, nil
}

func requireValue(block boostinfo.Node, key, path string) (string, error) {
	n, ok := block.First(key)
	if !ok {
		return "", &MissingFieldError{Path: path}
	}
	return n.Value(), nil
}

func requireHex(root boostinfo.Node, path string) (int, error) {
	n, ok := root.First(path)
	if !ok {
		return 0, &MissingFieldError{Path: path}
	}
	v, err := parseHex(n.Value())
	if err != nil {
		return 0, fmt.Errorf("%s: bad hex value %q: %w", path, n.Value(), err)
	}
	return v, nil
}

// parseHex accepts dabmux-style hex with or without the 0x prefix.
func parseHex(s string) (int, error) {
	s = trimHexPrefix(s)
	v, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
