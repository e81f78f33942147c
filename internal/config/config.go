// Package config reads owl.toml and the OWL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"owl/internal/cache"
	"owl/internal/frontend"
	"owl/internal/project"
)

const (
	EnvCache    = "OWL_CACHE"
	EnvCacheDir = "OWL_CACHE_DIR"
)

// ErrNoConfig is returned by LoadFile when the file does not exist.
var ErrNoConfig = errors.New("config: owl.toml not found")

// Config is the merged configuration of one project. Path is empty when no
// owl.toml was found and the defaults are in effect.
type Config struct {
	Path string `toml:"-"`
	Root string `toml:"-"`

	Cache    Cache    `toml:"cache"`
	Analysis Analysis `toml:"analysis"`
	Frontend Frontend `toml:"frontend"`
}

type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Dir      string `toml:"dir"`
	Backend  string `toml:"backend"`
	Compress bool   `toml:"compress"`
}

type Analysis struct {
	// Jobs bounds the per-function workers; 0 picks the default.
	Jobs        int  `toml:"jobs"`
	AllTargets  bool `toml:"all_targets"`
	AllFeatures bool `toml:"all_features"`
}

type Frontend struct {
	// Command runs the front end for a project directory. "{target}" is
	// replaced by the directory.
	Command     []string `toml:"command"`
	ChannelSize int      `toml:"channel_size"`
}

// Default returns the configuration used without owl.toml.
func Default(root string) Config {
	return Config{
		Root: root,
		Cache: Cache{
			Enabled:  true,
			Backend:  string(cache.BackendFile),
			Compress: true,
		},
		Analysis: Analysis{AllTargets: true},
		Frontend: Frontend{ChannelSize: frontend.DefaultChannelSize},
	}
}

// Load finds owl.toml by walking up from startDir. Without one the defaults
// rooted at startDir are returned.
func Load(startDir string) (Config, error) {
	path, ok, err := project.FindConfig(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		root, err := filepath.Abs(startDir)
		if err != nil {
			return Config{}, err
		}
		return Default(root), nil
	}
	return LoadFile(path)
}

// LoadFile parses one owl.toml. Unset keys keep their defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))
	cfg.Path = path
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if meta.IsDefined("frontend", "command") && len(cfg.Frontend.Command) == 0 {
		return Config{}, fmt.Errorf("%s: [frontend].command must not be empty", path)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch cache.BackendKind(c.Cache.Backend) {
	case cache.BackendFile, cache.BackendSQLite:
	default:
		return fmt.Errorf("[cache].backend must be %q or %q, got %q", cache.BackendFile, cache.BackendSQLite, c.Cache.Backend)
	}
	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("[analysis].jobs must not be negative")
	}
	if c.Frontend.ChannelSize < 0 {
		return fmt.Errorf("[frontend].channel_size must not be negative")
	}
	return nil
}

// ApplyEnv overrides the cache settings from OWL_CACHE and OWL_CACHE_DIR.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvCache)); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCache, err)
		}
		c.Cache.Enabled = enabled
	}
	if v := strings.TrimSpace(getenv(EnvCacheDir)); v != "" {
		c.Cache.Dir = v
	}
	return nil
}

func (c *Config) cacheDir() string {
	dir := c.Cache.Dir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Root, dir)
	}
	return dir
}

// CacheOptions resolves the cache settings. A relative directory is taken
// from the project root; an unset one defaults to owl under the user cache
// directory.
func (c *Config) CacheOptions() (cache.Options, error) {
	opts := cache.Options{
		Enabled:  c.Cache.Enabled,
		Dir:      c.cacheDir(),
		Backend:  cache.BackendKind(c.Cache.Backend),
		Compress: c.Cache.Compress,
	}
	if opts.Enabled && opts.Dir == "" {
		base, err := userCacheDir()
		if err != nil {
			return opts, fmt.Errorf("config: default cache dir: %w", err)
		}
		opts.Dir = filepath.Join(base, "owl")
	}
	return opts, nil
}

var userCacheDir = os.UserCacheDir

// Env returns the variables handed to spawned front ends so that child owl
// processes use the same cache.
func (c *Config) Env() []string {
	env := []string{EnvCache + "=" + strconv.FormatBool(c.Cache.Enabled)}
	if dir := c.cacheDir(); dir != "" {
		env = append(env, EnvCacheDir+"="+dir)
	}
	return env
}

// FrontendArgs returns the flags appended to the front-end command.
func (c *Config) FrontendArgs() []string {
	var args []string
	if c.Analysis.AllTargets {
		args = append(args, "--all-targets")
	}
	if c.Analysis.AllFeatures {
		args = append(args, "--all-features")
	}
	return args
}
