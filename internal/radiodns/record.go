// Package radiodns models directory-lookup records and resolves DAB bearer
// identities against the RadioDNS service-following hierarchy.
package radiodns

// Recognized application names.
const (
	AppRadioVIS     = "radiovis"
	AppRadioVISHTTP = "radiovis-http"
	AppRadioEPG     = "radioepg"
	AppRadioSPI     = "radiospi"
	AppRadioTAG     = "radiotag"
)

// VisualApps are the slideshow-capable application variants.
var VisualApps = []string{AppRadioVIS, AppRadioVISHTTP}

// GuideApps are the programme-guide applications, in preference order;
// the first supported one wins per service.
var GuideApps = []string{AppRadioEPG, AppRadioSPI}

// Application is one advertised application of an authoritative host.
type Application struct {
	Supported bool     `json:"supported"`
	Servers   []string `json:"servers,omitempty"`
}

// Record is the directory answer for one bearer identity. Absent
// applications simply have no map entry; callers use the accessors below
// instead of raising on missing fields.
type Record struct {
	AuthoritativeFQDN string                 `json:"authoritative_fqdn"`
	Applications      map[string]Application `json:"applications,omitempty"`
}

// Application returns the named application entry, nil-safe.
func (r *Record) Application(name string) (Application, bool) {
	if r == nil || r.Applications == nil {
		return Application{}, false
	}
	app, ok := r.Applications[name]
	return app, ok
}

// Supports reports whether the record advertises the named application.
func (r *Record) Supports(name string) bool {
	app, ok := r.Application(name)
	return ok && app.Supported
}

// SupportsAny reports whether any of the named applications is advertised.
func (r *Record) SupportsAny(names ...string) bool {
	for _, name := range names {
		if r.Supports(name) {
			return true
		}
	}
	return false
}
