package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lineupscout/festival-cli/internal/gateway"
	"github.com/lineupscout/festival-cli/internal/store"
	"github.com/lineupscout/festival-cli/pkg/exa"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "festival.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initGateway() (*gateway.Gateway, error) {
	if cfg.Exa.Key == "" {
		return nil, eris.New("exa API key is required (FESTIVAL_EXA_KEY)")
	}
	opts := []exa.Option{}
	if cfg.Exa.BaseURL != "" {
		opts = append(opts, exa.WithBaseURL(cfg.Exa.BaseURL))
	}
	if cfg.Exa.TimeoutSecs > 0 {
		opts = append(opts, exa.WithTimeout(time.Duration(cfg.Exa.TimeoutSecs)*time.Second))
	}
	client := exa.NewClient(cfg.Exa.Key, opts...)
	return gateway.New(client, cfg.Gateway), nil
}
