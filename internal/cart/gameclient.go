package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"GameStore/pkg/balancer"
	"GameStore/pkg/registry"

	"go.uber.org/zap"
)

const defaultGameTimeout = 5 * time.Second

// GameCatalog looks up games the cart refers to.
type GameCatalog interface {
	GetGame(ctx context.Context, id int64) (*GameInfo, error)
}

// GameClient resolves game-service instances through discovery and calls them in turn.
type GameClient struct {
	service   string
	discovery registry.Discovery
	balancer  *balancer.RoundRobin
	http      *http.Client
}

func NewGameClient(service string, d registry.Discovery, b *balancer.RoundRobin, timeout time.Duration) *GameClient {
	if service == "" {
		service = "game-service"
	}
	if b == nil {
		b = balancer.NewRoundRobin()
	}
	if timeout <= 0 {
		timeout = defaultGameTimeout
	}
	return &GameClient{
		service:   service,
		discovery: d,
		balancer:  b,
		http:      &http.Client{Timeout: timeout},
	}
}

type gameEnvelope struct {
	Success bool      `json:"success"`
	Data    *GameInfo `json:"data"`
}

func (gc *GameClient) GetGame(ctx context.Context, id int64) (*GameInfo, error) {
	instances, err := gc.discovery.HealthyInstances(ctx, gc.service)
	if err != nil {
		zap.L().Warn("game-service discovery failed", zap.String("service", gc.service), zap.Error(err))
		return nil, ErrGameUnavailable.Wrap(err)
	}
	inst, ok := gc.balancer.Pick(gc.service, instances)
	if !ok {
		gc.balancer.Reset(gc.service)
		return nil, ErrGameUnavailable.Wrap(registry.ErrNoInstances)
	}

	url := "http://" + inst.HostPort() + "/" + strconv.FormatInt(id, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build game request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := gc.http.Do(req)
	if err != nil {
		zap.L().Warn("game-service request failed", zap.String("instance", inst.ID), zap.Error(err))
		return nil, ErrGameUnavailable.Wrap(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrGameNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, ErrGameUnavailable.Wrap(fmt.Errorf("game-service %s answered %d", inst.ID, resp.StatusCode))
	}

	var env gameEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, ErrGameUnavailable.Wrap(fmt.Errorf("decode game %d: %w", id, err))
	}
	if env.Data == nil {
		return nil, ErrGameUnavailable.Wrap(fmt.Errorf("game %d: empty payload", id))
	}
	return env.Data, nil
}
