package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

var dnsQueryTypes = map[string]uint16{
	"A":     dns.TypeA,
	"AAAA":  dns.TypeAAAA,
	"CNAME": dns.TypeCNAME,
	"MX":    dns.TypeMX,
	"TXT":   dns.TypeTXT,
	"NS":    dns.TypeNS,
	"SOA":   dns.TypeSOA,
}

func probeDNS(ctx context.Context, spec Spec) Result {
	qtype, ok := dnsQueryTypes[strings.ToUpper(spec.DNSQueryType)]
	if !ok {
		return Result{Status: StatusDead, Err: fmt.Errorf("unsupported dns query type: %q", spec.DNSQueryType)}
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(spec.Host), qtype)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: time.Duration(spec.TimeoutSec) * time.Second}

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	server := "8.8.8.8:53"
	if err == nil && len(conf.Servers) > 0 {
		server = conf.Servers[0] + ":53"
	}

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("dns query failed: %w", err)}
	}
	if resp.Rcode != dns.RcodeSuccess {
		return Result{Status: StatusDead, Err: fmt.Errorf("dns rcode %s", dns.RcodeToString[resp.Rcode])}
	}

	if spec.DNSExpectedResult == "" {
		if len(resp.Answer) == 0 {
			return Result{Status: StatusDead, Err: fmt.Errorf("no answer records")}
		}
		return Result{Status: StatusAlive}
	}

	for _, rr := range resp.Answer {
		if matchesExpected(rr, qtype, spec.DNSExpectedResult) {
			return Result{Status: StatusAlive}
		}
	}
	return Result{Status: StatusDead, Err: fmt.Errorf("expected result %q not found in answer", spec.DNSExpectedResult)}
}

func matchesExpected(rr dns.RR, qtype uint16, expected string) bool {
	switch v := rr.(type) {
	case *dns.A:
		return qtype == dns.TypeA && v.A.String() == expected
	case *dns.AAAA:
		return qtype == dns.TypeAAAA && v.AAAA.String() == expected
	case *dns.CNAME:
		return qtype == dns.TypeCNAME && strings.TrimSuffix(v.Target, ".") == strings.TrimSuffix(expected, ".")
	case *dns.MX:
		return qtype == dns.TypeMX && strings.TrimSuffix(v.Mx, ".") == strings.TrimSuffix(expected, ".")
	case *dns.NS:
		return qtype == dns.TypeNS && strings.TrimSuffix(v.Ns, ".") == strings.TrimSuffix(expected, ".")
	case *dns.TXT:
		if qtype != dns.TypeTXT {
			return false
		}
		for _, txt := range v.Txt {
			if strings.Contains(txt, expected) {
				return true
			}
		}
		return false
	case *dns.SOA:
		return qtype == dns.TypeSOA && strings.TrimSuffix(v.Ns, ".") == strings.TrimSuffix(expected, ".")
	default:
		return false
	}
}
