package bridge

import (
	"fmt"
	"strings"
)

// WarningKind enumerates the consistency warnings.
type WarningKind string

const (
	// OrphanVisualService: DNS advertises a visual application but the mux
	// declares no slideshow component for the service.
	OrphanVisualService WarningKind = "orphan_visual_service"
	// OrphanSlideshowComponent: the mux declares a slideshow component but
	// DNS advertises no visual application.
	OrphanSlideshowComponent WarningKind = "orphan_slideshow_component"
	// MultipleEPGInputSources: the EPG-carrying services reference more than
	// one distinct carousel input URI.
	MultipleEPGInputSources WarningKind = "multiple_epg_input_sources"
)

// Warning is an advisory finding. Warnings never abort a run and are
// independent of resolver success.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Service   string      `json:"service,omitempty"`
	Label     string      `json:"label,omitempty"`
	InputURIs []string    `json:"input_uris,omitempty"`
}

func (w Warning) String() string {
	switch w.Kind {
	case OrphanVisualService:
		return fmt.Sprintf("%s %q has a hybrid visual slideshow service but no figtype 0x02 component definition", w.Service, w.Label)
	case OrphanSlideshowComponent:
		return fmt.Sprintf("%s %q is configured to send DAB Slideshow (figtype 0x02 component) but has no hybrid visual source available", w.Service, w.Label)
	case MultipleEPGInputSources:
		return "more than one EPG subchannel input source is defined: " + strings.Join(w.InputURIs, ", ")
	}
	return string(w.Kind)
}
