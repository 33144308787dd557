package cli

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/matzehuels/flamecast/pkg/anneal"
	"github.com/matzehuels/flamecast/pkg/cache"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/pipeline"
	"github.com/matzehuels/flamecast/pkg/runstore"
	"github.com/matzehuels/flamecast/pkg/topology"
)

// Config is the TOML run configuration. Command-line flags override it.
//
//	[solve]
//	initial = "matching"
//	seed = 7
//
//	[solve.anneal]
//	max_iterations = 500
//	initial_temperature = 0.05
//	cooling_schedule = { kind = "fast", alpha = 0.1 }
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
type Config struct {
	Solve  SolveConfig  `toml:"solve"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// SolveConfig holds the defaults for solve and batch.
type SolveConfig struct {
	Initial topology.InitialSolution `toml:"initial"`
	Seed    uint64                   `toml:"seed"`
	Anneal  anneal.Options           `toml:"anneal"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Disabled    bool   `toml:"disabled"`
	RedisURL    string `toml:"redis_url"`
	RedisPrefix string `toml:"redis_prefix"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr     string               `toml:"addr"`
	RedisURL string               `toml:"redis_url"`
	Mongo    runstore.MongoConfig `toml:"mongo"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Solve: SolveConfig{
			Initial: pipeline.DefaultInitial,
			Seed:    pipeline.DefaultSeed,
			Anneal:  anneal.DefaultOptions(),
		},
		Cache:  CacheConfig{RedisPrefix: cache.DefaultRedisPrefix},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults. Unknown keys are rejected so that typos do not pass silently.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fcerrors.Wrap(fcerrors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fcerrors.Wrap(fcerrors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fcerrors.New(fcerrors.ErrCodeInvalidOptions, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Solve.Anneal.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
