// Package config loads the platepack configuration file.
//
// The file is TOML, read from --config or from
// $XDG_CONFIG_HOME/platepack/config.toml (~/.config/platepack/config.toml).
// A missing default file is not an error; every field has a default and CLI
// flags override whatever the file sets.
//
//	[solve]
//	strategy = "portfolio"
//	timeout_ms = 60000
//
//	[cache]
//	backend = "redis"
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/platepack/pkg/cache"
	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/pipeline"
	"github.com/matzehuels/platepack/pkg/store"
)

const appName = "platepack"

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the whole configuration file.
type Config struct {
	Solve  SolveConfig  `toml:"solve"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// SolveConfig holds defaults for pipeline.Options.
type SolveConfig struct {
	Strategy   string   `toml:"strategy"`
	TimeoutMS  int      `toml:"timeout_ms"`
	Domain     string   `toml:"domain"`
	MagW       int      `toml:"mag_w"`
	NoSymmetry bool     `toml:"no_symmetry"`
	Formats    []string `toml:"formats"`
	Style      string   `toml:"style"`
	Scale      int      `toml:"scale"`
	Labels     bool     `toml:"labels"`
	Grid       bool     `toml:"grid"`
}

// CacheConfig selects the outcome cache backend.
type CacheConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig mirrors cache.RedisConfig.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// StoreConfig selects the run archive backend.
type StoreConfig struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures `platepack serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// MaxTimeoutMS caps the budget a request may ask for.
	MaxTimeoutMS int `toml:"max_timeout_ms"`
	// MaxCircuits rejects larger instances.
	MaxCircuits int `toml:"max_circuits"`
	// MaxCells rejects instances whose width·max_length·n exceeds it.
	MaxCells int `toml:"max_cells"`
	// Concurrency bounds simultaneous solves.
	Concurrency int `toml:"concurrency"`
}

// Server defaults.
const (
	DefaultAddr         = ":8080"
	DefaultMaxTimeoutMS = 60000
	DefaultMaxCircuits  = 64
	DefaultMaxCells     = 50000
	DefaultConcurrency  = 2
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Solve: SolveConfig{
			Strategy:  pipeline.DefaultStrategy,
			TimeoutMS: pipeline.DefaultTimeoutMS,
			Domain:    pipeline.DefaultDomain,
			Style:     pipeline.DefaultStyle,
			Scale:     pipeline.DefaultScale,
		},
		Cache: CacheConfig{Backend: BackendFile},
		Store: StoreConfig{Backend: BackendFile},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			MaxTimeoutMS: DefaultMaxTimeoutMS,
			MaxCircuits:  DefaultMaxCircuits,
			MaxCells:     DefaultMaxCells,
			Concurrency:  DefaultConcurrency,
		},
	}
}

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path over the defaults. An empty path selects DefaultPath and
// tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if explicit {
			return cfg, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open %s", path)
	}
	defer f.Close()

	md, err := toml.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate checks backend names and solve options.
func (c Config) Validate() error {
	if err := errors.ValidateOneOf("cache.backend", c.Cache.Backend, BackendFile, BackendRedis, BackendNone); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid cache backend")
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis.addr is required for the redis backend")
	}
	if err := errors.ValidateOneOf("store.backend", c.Store.Backend, BackendFile, BackendMongo, BackendNone); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid store backend")
	}
	if c.Store.Backend == BackendMongo && c.Store.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
	}
	for field, v := range map[string]int{
		"server.max_timeout_ms": c.Server.MaxTimeoutMS,
		"server.max_circuits":   c.Server.MaxCircuits,
		"server.max_cells":      c.Server.MaxCells,
		"server.concurrency":    c.Server.Concurrency,
	} {
		if err := errors.ValidatePositive(field, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid server settings")
		}
	}
	opts := c.Solve.Options()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid [solve] section")
	}
	return nil
}

// Options converts the solve section into pipeline options.
func (s SolveConfig) Options() pipeline.Options {
	return pipeline.Options{
		Strategy:   s.Strategy,
		TimeoutMS:  s.TimeoutMS,
		Domain:     s.Domain,
		MagW:       s.MagW,
		NoSymmetry: s.NoSymmetry,
		Formats:    append([]string(nil), s.Formats...),
		Style:      s.Style,
		Scale:      s.Scale,
		Labels:     s.Labels,
		Grid:       s.Grid,
	}
}

// CacheDir returns the configured cache directory, defaulting to
// $XDG_CACHE_HOME/platepack (~/.cache/platepack).
func (c CacheConfig) CacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Open creates the configured cache. noCache forces the null cache.
func (c CacheConfig) Open(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		})
	}
	dir, err := c.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// Open creates the configured run store, or nil for the none backend.
func (s StoreConfig) Open(ctx context.Context) (store.Store, error) {
	switch s.Backend {
	case BackendNone:
		return nil, nil
	case BackendMongo:
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:        s.MongoURI,
			Database:   s.Database,
			Collection: s.Collection,
		})
	}
	return store.NewFileStore(s.Dir)
}
