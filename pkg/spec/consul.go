package spec

import (
	"context"
	"fmt"
	"strconv"
	"time"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/service-weaver/probe-engine/pkg/probe"
)

// ConsulStore is an alternative ServiceSpecStore that sources ServiceSpecs from a Consul
// service catalog instead of sqlite rows. The probe method, polling interval, and path are
// read from service meta so existing Consul-registered services can be probed without a
// separate spec table. Latest-status updates are written back as a plain Consul KV entry
// purely for operational visibility; the engine itself never reads it back.
type ConsulStore struct {
	client *consulapi.Client
}

// NewConsulStore dials the Consul agent at addr (empty uses the default local agent address).
func NewConsulStore(addr string) (*ConsulStore, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &ConsulStore{client: client}, nil
}

// ListAll builds ServiceSpecs from every service in the Consul catalog except Consul's own
// "consul" service. The service meta keys "probe-method" (e.g. "http"), "probe-path" (e.g.
// "/healthz") and "probe-interval" (e.g. "30") configure the probe; tags are not read. A
// missing probe-method falls back to a TCP liveness check against the registered port.
func (c *ConsulStore) ListAll(ctx context.Context) ([]probe.Spec, error) {
	services, _, err := c.client.Catalog().Services(&consulapi.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("consul catalog services: %w", err)
	}

	var specs []probe.Spec
	for name := range services {
		if name == "consul" {
			continue
		}
		entries, _, err := c.client.Catalog().Service(name, "", &consulapi.QueryOptions{})
		if err != nil {
			return nil, fmt.Errorf("consul catalog service %s: %w", name, err)
		}
		for _, entry := range entries {
			specs = append(specs, specFromCatalogEntry(entry))
		}
	}
	return specs, nil
}

func specFromCatalogEntry(entry *consulapi.CatalogService) probe.Spec {
	meta := entry.ServiceMeta
	method := probe.Method(meta["probe-method"])
	if method == "" {
		method = probe.MethodTCP
	}

	interval := 30
	if v, err := strconv.Atoi(meta["probe-interval"]); err == nil && v > 0 {
		interval = v
	}

	return probe.Spec{
		ServiceID:          consulServiceID(entry.ServiceID),
		Host:                entry.ServiceAddress,
		Port:                entry.ServicePort,
		Method:              method,
		PollingIntervalSec:  interval,
		TimeoutSec:          5,
		HealthcheckPath:     meta["probe-path"],
		ExpectedStatus:      200,
	}
}

// consulServiceID hashes the Consul string service ID into the engine's stable integer ID
// space. A real deployment could instead keep an explicit id<->ServiceID mapping table; the
// hash keeps this reference implementation self-contained.
func consulServiceID(id string) int64 {
	var h uint64 = 14695981039346656037
	for _, c := range id {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return int64(h >> 1)
}

// UpdateLatest writes the latest status into Consul's KV store under
// "service-weaver/latest/<serviceID>" for operational visibility.
func (c *ConsulStore) UpdateLatest(ctx context.Context, serviceID int64, status probe.Status, checkedAt time.Time) error {
	key := fmt.Sprintf("service-weaver/latest/%d", serviceID)
	value := fmt.Sprintf("%s@%s", status, checkedAt.UTC().Format(time.RFC3339))
	_, err := c.client.KV().Put(&consulapi.KVPair{Key: key, Value: []byte(value)}, &consulapi.WriteOptions{})
	if err != nil {
		return fmt.Errorf("consul kv put: %w", err)
	}
	return nil
}
