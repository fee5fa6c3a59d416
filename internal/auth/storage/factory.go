package storage

import (
	"fmt"

	"github.com/backmeup/backmeup/internal/common/config"

	"go.uber.org/zap"
)

// NewStore creates a revoked-token store based on configuration
func NewStore(logger *zap.Logger, cfg *config.TokenStoreConfig) (Store, error) {
	logger.Info("initializing token store", zap.String("type", cfg.Type))
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	default:
		return nil, fmt.Errorf("unsupported token store type: %s", cfg.Type)
	}
}
