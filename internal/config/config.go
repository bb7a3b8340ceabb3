package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// UpstreamConfig holds the base URLs and HTTP behaviour for the external
// open-data providers the service aggregates.
type UpstreamConfig struct {
	PostcodesBaseURL    string
	LandRegistryBaseURL string
	PoliceBaseURL       string
	FloodZonesBaseURL   string
	FloodMonitorBaseURL string
	RequestTimeout      time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("POSTCODES_BASE_URL", "https://api.postcodes.io")
	v.SetDefault("LAND_REGISTRY_BASE_URL", "https://landregistry.data.gov.uk/landregistry/query")
	v.SetDefault("POLICE_BASE_URL", "https://data.police.uk/api")
	v.SetDefault("FLOOD_ZONES_BASE_URL", "https://environment.data.gov.uk/spatialdata/flood-map-for-planning-flood-zones/ogc/features/v1/collections/Flood_Zones_2_3_Rivers_and_Sea/items")
	v.SetDefault("FLOOD_MONITOR_BASE_URL", "https://environment.data.gov.uk/flood-monitoring")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 15)
	v.SetDefault("UPSTREAM_MAX_RETRIES", 3)
	v.SetDefault("UPSTREAM_RETRY_DELAY_SECONDS", 1)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Upstream: UpstreamConfig{
			PostcodesBaseURL:    v.GetString("POSTCODES_BASE_URL"),
			LandRegistryBaseURL: v.GetString("LAND_REGISTRY_BASE_URL"),
			PoliceBaseURL:       v.GetString("POLICE_BASE_URL"),
			FloodZonesBaseURL:   v.GetString("FLOOD_ZONES_BASE_URL"),
			FloodMonitorBaseURL: v.GetString("FLOOD_MONITOR_BASE_URL"),
			RequestTimeout:      time.Duration(v.GetInt("UPSTREAM_TIMEOUT_SECONDS")) * time.Second,
			MaxRetries:          v.GetInt("UPSTREAM_MAX_RETRIES"),
			RetryDelay:          time.Duration(v.GetInt("UPSTREAM_RETRY_DELAY_SECONDS")) * time.Second,
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate upstream config
	if c.Upstream.PostcodesBaseURL == "" {
		return fmt.Errorf("POSTCODES_BASE_URL is required")
	}
	if c.Upstream.LandRegistryBaseURL == "" {
		return fmt.Errorf("LAND_REGISTRY_BASE_URL is required")
	}
	if c.Upstream.PoliceBaseURL == "" {
		return fmt.Errorf("POLICE_BASE_URL is required")
	}
	if c.Upstream.FloodZonesBaseURL == "" {
		return fmt.Errorf("FLOOD_ZONES_BASE_URL is required")
	}
	if c.Upstream.FloodMonitorBaseURL == "" {
		return fmt.Errorf("FLOOD_MONITOR_BASE_URL is required")
	}
	if c.Upstream.RequestTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	if c.Upstream.MaxRetries < 1 {
		return fmt.Errorf("UPSTREAM_MAX_RETRIES must be at least 1")
	}
	if c.Upstream.RetryDelay < 0 {
		return fmt.Errorf("UPSTREAM_RETRY_DELAY_SECONDS must be non-negative")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
