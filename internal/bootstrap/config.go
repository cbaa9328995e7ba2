package bootstrap

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/config"
	"github.com/warr-app/warr/internal/store"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateDatabaseConfig(cfg); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	warnExposedServer(cfg)
	return nil
}

// warnExposedServer flags a shell reachable from other hosts
func warnExposedServer(cfg *config.Config) {
	if cfg.ServerIsLoopback() {
		return
	}
	log.Warn().
		Str("addr", cfg.ServerAddr).
		Msg("web shell is not bound to loopback; other hosts can act as the signed-in member")
}

// validateDatabaseConfig checks the driver only when the database backs the token store
func validateDatabaseConfig(cfg *config.Config) error {
	if cfg.TokenStore != config.TokenStoreDatabase {
		return nil
	}
	switch cfg.DatabaseDriver {
	case store.DriverSQLite, store.DriverPostgres:
		return nil
	case "":
		return errors.New("DATABASE_DRIVER is required when TOKEN_STORE=database")
	default:
		return fmt.Errorf(
			"invalid DATABASE_DRIVER: %s (must be: %s, %s)",
			cfg.DatabaseDriver, store.DriverSQLite, store.DriverPostgres,
		)
	}
}
