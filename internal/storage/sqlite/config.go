package sqlite

import (
	"fmt"
)

type Config struct {
	DatabasePath string
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

func (c *Config) GetType() string {
	return "sqlite"
}

func (c *Config) GetConnectionString() string {
	return c.DatabasePath
}

func DefaultConfig() *Config {
	return &Config{
		DatabasePath: "./payment_router.db",
	}
}
