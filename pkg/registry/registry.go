// Package registry registers services with Consul and looks up their healthy instances.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"GameStore/pkg/config"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

var ErrNoInstances = errors.New("registry: no healthy instances")

// Instance is one healthy, addressable copy of a service.
type Instance struct {
	ID          string   `json:"id"`
	ServiceName string   `json:"serviceName"`
	Address     string   `json:"address"`
	Port        int      `json:"port"`
	Tags        []string `json:"tags,omitempty"`
}

// HostPort is the dialable address of the instance.
func (i Instance) HostPort() string {
	return i.Address + ":" + strconv.Itoa(i.Port)
}

// Discovery returns the currently healthy instances of a service.
type Discovery interface {
	HealthyInstances(ctx context.Context, service string) ([]Instance, error)
}

// Descriptor describes the running process when it registers itself.
type Descriptor struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Version string
}

type Client struct {
	api           *consulapi.Client
	checkInterval time.Duration
	checkTimeout  time.Duration
	tags          []string
}

type jsonRoundTripper struct {
	rt http.RoundTripper
}

func (h *jsonRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	return h.rt.RoundTrip(req)
}

// New builds a Consul client for the agent at cfg.Host:cfg.Port. No request is made.
func New(cfg *config.RegistryConfig) (*Client, error) {
	consulCfg := consulapi.DefaultConfig()
	consulCfg.Address = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	consulCfg.HttpClient = &http.Client{
		Transport: &jsonRoundTripper{rt: http.DefaultTransport},
		Timeout:   10 * time.Second,
	}
	api, err := consulapi.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	c := &Client{
		api:           api,
		checkInterval: cfg.CheckInterval,
		checkTimeout:  cfg.CheckTimeout,
		tags:          cfg.Tags,
	}
	if c.checkInterval <= 0 {
		c.checkInterval = 10 * time.Second
	}
	if c.checkTimeout <= 0 {
		c.checkTimeout = 5 * time.Second
	}
	return c, nil
}

// Register announces the service with an HTTP health check on its /health endpoint.
func (c *Client) Register(d Descriptor) error {
	tags := append(append([]string{}, c.tags...), d.Tags...)
	reg := &consulapi.AgentServiceRegistration{
		ID:      d.ID,
		Name:    d.Name,
		Address: d.Address,
		Port:    d.Port,
		Tags:    tags,
		Meta:    map[string]string{"version": d.Version},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", d.Address, d.Port),
			Method:                         http.MethodGet,
			Interval:                       c.checkInterval.String(),
			Timeout:                        c.checkTimeout.String(),
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := c.api.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("register %s: %w", d.ID, err)
	}
	zap.L().Info("Service registered",
		zap.String("service", d.Name),
		zap.String("id", d.ID),
		zap.String("address", d.Address),
		zap.Int("port", d.Port))
	return nil
}

func (c *Client) Deregister(id string) error {
	if err := c.api.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("deregister %s: %w", id, err)
	}
	zap.L().Info("Service deregistered", zap.String("id", id))
	return nil
}

// HealthyInstances returns the passing instances of service sorted by ID, so repeated
// lookups over an unchanged set yield the same order.
func (c *Client) HealthyInstances(ctx context.Context, service string) ([]Instance, error) {
	opts := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.api.Health().Service(service, "", true, opts)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", service, err)
	}

	instances := make([]Instance, 0, len(entries))
	for _, e := range entries {
		if e.Service == nil {
			continue
		}
		addr := e.Service.Address
		if addr == "" && e.Node != nil {
			addr = e.Node.Address
		}
		if addr == "" {
			continue
		}
		instances = append(instances, Instance{
			ID:          e.Service.ID,
			ServiceName: e.Service.Service,
			Address:     addr,
			Port:        e.Service.Port,
			Tags:        e.Service.Tags,
		})
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].ID < instances[j].ID })
	return instances, nil
}

// Static is a fixed instance table, used where no Consul agent is available.
type Static map[string][]Instance

func (s Static) HealthyInstances(_ context.Context, service string) ([]Instance, error) {
	return append([]Instance(nil), s[service]...), nil
}
