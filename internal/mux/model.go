// Package mux builds the multiplex domain model from a parsed odr-dabmux
// configuration tree.
package mux

import "github.com/edirooss/dabdns-bridge/internal/spi"

// SubchannelKind classifies a subchannel's declared type. Only packet and
// enhanced-packet subchannels are eligible data carriers.
type SubchannelKind string

const (
	SubchannelPacket         SubchannelKind = "packet"
	SubchannelEnhancedPacket SubchannelKind = "enhancedpacket"
)

// Ensemble is the single per-file ensemble record.
type Ensemble struct {
	ECC        int    `json:"ecc"`
	EId        int    `json:"eid"`
	Label      string `json:"label"`
	ShortLabel string `json:"shortlabel"`
}

// Subchannel is an eligible (packet or enhanced-packet) data subchannel.
type Subchannel struct {
	Name     string
	Kind     SubchannelKind
	Bitrate  int // kbps
	InputURI string
}

// Component is a service component carrying a recognized data application.
// FigType 2 marks a slideshow component; figtype 7 with inner type 60 marks
// a data carousel, which additionally references its subchannel and packet
// address.
type Component struct {
	Service    string
	FigType    int
	Subchannel string
	Address    int
}

// EPGCarousel holds the programme-guide packet parameters of a service.
// The three fields are populated together or not at all.
type EPGCarousel struct {
	PacketSize    int    `json:"packet_size"` // bytes, subchannel bitrate * 3
	InputURI      string `json:"input_uri"`
	PacketAddress int    `json:"packet_address"`
}

// Service is one declared service with its derived bearer identity and data
// application flags. HasEPG may be true while EPG is nil: a carousel
// component whose subchannel is not an eligible data carrier leaves the
// packet parameters unset by definition.
type Service struct {
	Name   string     `json:"name"`
	Label  string     `json:"label"`
	Bearer spi.Bearer `json:"bearer"`

	HasEPG       bool         `json:"has_epg"`
	HasSlideshow bool         `json:"has_slideshow"`
	EPG          *EPGCarousel `json:"epg,omitempty"`
}
