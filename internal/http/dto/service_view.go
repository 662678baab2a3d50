// Package dto holds the HTTP response shapes.
package dto

import "github.com/edirooss/dabdns-bridge/internal/mux"

// ServiceView is the API projection of a built mux service.
type ServiceView struct {
	Name         string           `json:"name"`
	Label        string           `json:"label"`
	Bearer       string           `json:"bearer"`
	HasEPG       bool             `json:"has_epg"`
	HasSlideshow bool             `json:"has_slideshow"`
	EPG          *EPGCarouselView `json:"epg,omitempty"`
}

// EPGCarouselView mirrors mux.EPGCarousel.
type EPGCarouselView struct {
	PacketSize    int    `json:"packet_size"`
	InputURI      string `json:"input_uri"`
	PacketAddress int    `json:"packet_address"`
}

// FromService converts a mux.Service.
func FromService(s mux.Service) ServiceView {
	v := ServiceView{
		Name:         s.Name,
		Label:        s.Label,
		Bearer:       s.Bearer.String(),
		HasEPG:       s.HasEPG,
		HasSlideshow: s.HasSlideshow,
	}
	if s.EPG != nil {
		v.EPG = &EPGCarouselView{
			PacketSize:    s.EPG.PacketSize,
			InputURI:      s.EPG.InputURI,
			PacketAddress: s.EPG.PacketAddress,
		}
	}
	return v
}

// FromServices converts a service list, preserving order.
func FromServices(services []mux.Service) []ServiceView {
	out := make([]ServiceView, len(services))
	for i, s := range services {
		out[i] = FromService(s)
	}
	return out
}
