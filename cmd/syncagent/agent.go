package main

import (
	"context"
	"fmt"
	"time"

	"inspection-backend/internal/offline"
	"inspection-backend/internal/shared/config"
)

const requestTimeout = 30 * time.Second

type agent struct {
	store  offline.Store
	queue  *offline.Queue
	client *offline.Client
}

func openAgent(ctx context.Context, cfg config.AgentConfig, redisURL string) (*agent, error) {
	var (
		store  offline.Store
		locker offline.Locker
	)
	switch cfg.Store {
	case "memory":
		store = offline.NewMemoryStore()
	case "redis":
		rs, err := offline.NewRedisStore(redisURL, "")
		if err != nil {
			return nil, err
		}
		store = rs
		locker = offline.NewRedisLocker(rs.Client(), "", 0)
	case "sqlite", "":
		ss, err := offline.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = ss
	default:
		return nil, fmt.Errorf("unknown agent store %q", cfg.Store)
	}

	transport := offline.NewHTTPTransport(cfg.ServerURL, requestTimeout)
	queue := &offline.Queue{
		Store:     store,
		Transport: transport,
		Locker:    locker,
		Policy: offline.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseBackoff: cfg.BaseBackoff,
			MaxBackoff:  cfg.MaxBackoff,
		},
	}
	return &agent{
		store: store,
		queue: queue,
		client: &offline.Client{
			HTTP:   transport,
			Queue:  queue,
			Drafts: offline.NewDraftStore(store),
		},
	}, nil
}

func (a *agent) Close() error {
	return a.store.Close()
}
