package radiodns

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK       = "ok"
	outcomeNXDomain = "nxdomain"
	outcomeError    = "error"
)

var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dabdns",
		Subsystem: "radiodns",
		Name:      "lookups_total",
		Help:      "Directory lookups by outcome.",
	}, []string{"outcome"})

	cacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dabdns",
		Subsystem: "radiodns",
		Name:      "cache_requests_total",
		Help:      "Record cache requests by result.",
	}, []string{"result"})
)
