package radiodns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// DefaultRootDomain is the apex of the RadioDNS service-following hierarchy.
const DefaultRootDomain = "radiodns.org"

// Client is the live directory resolver. A bearer identity maps to the name
// <scids>.<sid>.<eid>.<gcc>.dab.<root>; its CNAME is the authoritative fqdn,
// and each recognized application is probed with an SRV query under it.
type Client struct {
	log        *zap.Logger
	dns        *dns.Client
	servers    []string
	rootDomain string
}

// ClientOptions tune the live resolver.
type ClientOptions struct {
	// Timeout bounds each DNS exchange. A timed-out lookup is reported as an
	// error and treated like any failed lookup upstream.
	Timeout time.Duration
	// RootDomain overrides DefaultRootDomain (useful against test zones).
	RootDomain string
	// Servers overrides the nameservers read from /etc/resolv.conf,
	// as "host:port".
	Servers []string
}

// NewClient builds a live resolver using the system nameserver configuration
// unless opts.Servers is given.
func NewClient(log *zap.Logger, opts ClientOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RootDomain == "" {
		opts.RootDomain = DefaultRootDomain
	}

	servers := opts.Servers
	if len(servers) == 0 {
		cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			return nil, fmt.Errorf("read resolv.conf: %w", err)
		}
		for _, s := range cfg.Servers {
			servers = append(servers, s+":"+cfg.Port)
		}
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no nameservers configured")
	}

	return &Client{
		log:        log.Named("radiodns"),
		dns:        &dns.Client{Timeout: opts.Timeout},
		servers:    servers,
		rootDomain: opts.RootDomain,
	}, nil
}

// Lookup implements Resolver.
func (c *Client) Lookup(ctx context.Context, gcc, eid, sid, scids string) (*Record, error) {
	name := strings.ToLower(fmt.Sprintf("%s.%s.%s.%s.dab.%s", scids, sid, eid, gcc, c.rootDomain))

	fqdn, err := c.queryCNAME(ctx, dns.Fqdn(name))
	if err != nil {
		lookupsTotal.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("cname %s: %w", name, err)
	}
	if fqdn == "" {
		lookupsTotal.WithLabelValues(outcomeNXDomain).Inc()
		c.log.Debug("no directory entry", zap.String("name", name))
		return nil, nil
	}

	rec := &Record{
		AuthoritativeFQDN: strings.TrimSuffix(fqdn, "."),
		Applications:      make(map[string]Application),
	}
	for _, app := range []string{AppRadioVIS, AppRadioVISHTTP, AppRadioEPG, AppRadioSPI, AppRadioTAG} {
		servers, err := c.querySRV(ctx, fmt.Sprintf("_%s._tcp.%s", app, fqdn))
		if err != nil {
			// One failed application probe does not void the record.
			c.log.Warn("srv probe failed", zap.String("app", app), zap.String("fqdn", fqdn), zap.Error(err))
			continue
		}
		if len(servers) > 0 {
			rec.Applications[app] = Application{Supported: true, Servers: servers}
		}
	}

	lookupsTotal.WithLabelValues(outcomeOK).Inc()
	return rec, nil
}

func (c *Client) queryCNAME(ctx context.Context, name string) (string, error) {
	m := new(dns.Msg)
	m.SetQuestion(name, dns.TypeCNAME)
	in, err := c.exchange(ctx, m)
	if err != nil {
		return "", err
	}
	if in.Rcode == dns.RcodeNameError {
		return "", nil
	}
	if in.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("rcode %s", dns.RcodeToString[in.Rcode])
	}
	for _, ans := range in.Answer {
		if cname, ok := ans.(*dns.CNAME); ok {
			return cname.Target, nil
		}
	}
	return "", nil
}

func (c *Client) querySRV(ctx context.Context, name string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeSRV)
	in, err := c.exchange(ctx, m)
	if err != nil {
		return nil, err
	}
	if in.Rcode == dns.RcodeNameError {
		return nil, nil
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("rcode %s", dns.RcodeToString[in.Rcode])
	}
	var servers []string
	for _, ans := range in.Answer {
		if srv, ok := ans.(*dns.SRV); ok {
			servers = append(servers, fmt.Sprintf("%s:%d", strings.TrimSuffix(srv.Target, "."), srv.Port))
		}
	}
	return servers, nil
}

// exchange tries each configured nameserver in order and returns the first
// response.
func (c *Client) exchange(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
	var lastErr error
	for _, server := range c.servers {
		in, _, err := c.dns.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = err
			continue
		}
		return in, nil
	}
	return nil, lastErr
}
