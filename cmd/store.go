package main

import (
	"context"

	"github.com/doutora-ia/questbank-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}
