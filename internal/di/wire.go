//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"zeus-backend/internal/config"

	"github.com/google/wire"
)

// InitializeContainer builds every dependency from cfg. The returned cleanup
// releases them in reverse order of construction.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
