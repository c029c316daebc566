// Package config handles configuration loading and shared settings.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default upstream endpoints.
const (
	DefaultOverpassURL  = "https://overpass-api.de/api/interpreter"
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent    = "geotoolbox/" + Version
)

// Version of the toolbox reported by commands and the user agent.
const Version = "1.0.21"

// Config represents the root configuration file structure.
type Config struct {
	Overpass    Overpass    `yaml:"overpass"`
	Nominatim   Nominatim   `yaml:"nominatim"`
	Cache       Cache       `yaml:"cache"`
	UKGeography UKGeography `yaml:"uk_geography"`
	Server      Server      `yaml:"server"`
	Preview     Preview     `yaml:"preview"`

	// GeohashPrecision controls how boundary nodes are grouped into hulls.
	GeohashPrecision int `yaml:"geohash_precision,omitempty"`
}

// Overpass configures the OpenStreetMap Overpass API client.
type Overpass struct {
	URL       string        `yaml:"url,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	RateLimit float64       `yaml:"rate_limit,omitempty"` // requests per second
}

// Nominatim configures the geocoding client.
type Nominatim struct {
	URL       string        `yaml:"url,omitempty"`
	UserAgent string        `yaml:"user_agent,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	RateLimit float64       `yaml:"rate_limit,omitempty"` // requests per second
}

// Cache configures the upstream response cache.
type Cache struct {
	Path     string        `yaml:"path,omitempty"` // empty keeps the cache in memory
	TTL      time.Duration `yaml:"ttl,omitempty"`
	Disabled bool          `yaml:"disabled,omitempty"`
}

// UKGeography points at the ONS boundary and lookup downloads.
type UKGeography struct {
	BoundariesPath string  `yaml:"boundaries,omitempty"` // LSOA boundaries as GeoJSON
	LookupPath     string  `yaml:"lookup,omitempty"`     // OA/LSOA/MSOA/LAD lookup as CSV
	Columns        Columns `yaml:"columns,omitempty"`
	Country        string  `yaml:"country,omitempty"`
	Concurrency    int     `yaml:"concurrency,omitempty"`
}

// Columns names the lookup columns, which change with each ONS release.
type Columns struct {
	LSOACode string `yaml:"lsoa_code,omitempty"`
	LSOAName string `yaml:"lsoa_name,omitempty"`
	MSOACode string `yaml:"msoa_code,omitempty"`
	MSOAName string `yaml:"msoa_name,omitempty"`
	LACode   string `yaml:"la_code,omitempty"`
	LAName   string `yaml:"la_name,omitempty"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string `yaml:"addr,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	RequestsPerMin int    `yaml:"requests_per_minute,omitempty"`
}

// Preview configures rendered boundary images.
type Preview struct {
	Size    int     `yaml:"size,omitempty"`
	Quality float32 `yaml:"quality,omitempty"` // 0 keeps the image lossless
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
// Missing values are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// LoadOptional loads path if it exists and falls back to defaults otherwise.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.GeohashPrecision <= 0 {
		c.GeohashPrecision = 3
	}

	if c.Overpass.URL == "" {
		c.Overpass.URL = DefaultOverpassURL
	}
	if c.Overpass.Timeout <= 0 {
		c.Overpass.Timeout = 3 * time.Minute
	}
	if c.Overpass.RateLimit <= 0 {
		c.Overpass.RateLimit = 1
	}

	if c.Nominatim.URL == "" {
		c.Nominatim.URL = DefaultNominatimURL
	}
	if c.Nominatim.UserAgent == "" {
		c.Nominatim.UserAgent = DefaultUserAgent
	}
	if c.Nominatim.Timeout <= 0 {
		c.Nominatim.Timeout = 15 * time.Second
	}
	if c.Nominatim.RateLimit <= 0 {
		c.Nominatim.RateLimit = 1
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 30 * 24 * time.Hour
	}

	if c.UKGeography.Country == "" {
		c.UKGeography.Country = "United Kingdom"
	}
	if c.UKGeography.Concurrency <= 0 {
		c.UKGeography.Concurrency = 2
	}
	col := &c.UKGeography.Columns
	setDefault(&col.LSOACode, "LSOA21CD")
	setDefault(&col.LSOAName, "LSOA21NM")
	setDefault(&col.MSOACode, "MSOA21CD")
	setDefault(&col.MSOAName, "MSOA21NM")
	setDefault(&col.LACode, "LAD22CD")
	setDefault(&col.LAName, "LAD22NM")

	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestsPerMin <= 0 {
		c.Server.RequestsPerMin = 60
	}

	if c.Preview.Size <= 0 {
		c.Preview.Size = 512
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
