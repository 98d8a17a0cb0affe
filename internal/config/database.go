package config

import (
	"github.com/spf13/viper"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string
	URL    string
}

// NewDatabaseConfig creates a new database configuration using Viper
func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: viper.GetString(StorageDriver),
		URL:    viper.GetString(DBURL),
	}
}

// GetConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return c.URL
}

// UsesPostgres reports whether the durable store is selected
func (c *DatabaseConfig) UsesPostgres() bool {
	return c.Driver == DriverPostgres
}
