// Package config loads the session configuration.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader for YAML and TOML files.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the configuration at path layered over the defaults. With an
// empty path, lockres.yaml in the working directory is used when present.
func (l *Loader) Load(path string) (*domain.SessionConfig, error) {
	cfg := domain.DefaultSessionConfig()

	explicit := path != ""
	if !explicit {
		path = domain.ConfigFileName
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	file, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	if err := apply(cfg, file); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	if l.logger != nil {
		l.logger.Debug("loaded configuration from " + path)
	}
	return cfg, nil
}

func decode(path string, data []byte) (*File, error) {
	var file File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, zerr.With(zerr.With(
				zerr.Wrap(domain.ErrInvalidConfig, "unknown configuration key"),
				"field", undecoded[0].String()), "path", path)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path)
		}
	}
	return &file, nil
}

func invalid(field, msg string) error {
	return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, msg), "field", field)
}

func apply(cfg *domain.SessionConfig, file *File) error {
	cfg.Environment = cfg.Environment.Merge(file.Environment)
	for id, url := range file.Overrides {
		cfg.Overrides[id] = url
	}

	if file.Concurrency != nil {
		if *file.Concurrency < 1 {
			return invalid("concurrency", "concurrency must be at least 1")
		}
		cfg.Concurrency = *file.Concurrency
	}
	if file.DirectRelativeTo != "" {
		base, err := ParseDirectBase(file.DirectRelativeTo)
		if err != nil {
			return err
		}
		cfg.DirectRelativeTo = base
	}
	if file.AllowCompetingVariants != nil {
		cfg.AllowCompetingVariants = *file.AllowCompetingVariants
	}

	if err := applyCache(&cfg.Cache, file.Cache); err != nil {
		return err
	}

	if file.Index.Timeout != "" {
		d, err := parseDuration("index.timeout", file.Index.Timeout)
		if err != nil {
			return err
		}
		cfg.Index.Timeout = d
	}
	if file.Index.Retries != nil {
		if *file.Index.Retries < 0 {
			return invalid("index.retries", "retries must not be negative")
		}
		cfg.Index.Retries = *file.Index.Retries
	}

	if file.Installer.Python != "" {
		cfg.Installer.Python = file.Installer.Python
	}
	if len(file.Installer.ExtraArgs) > 0 {
		cfg.Installer.ExtraArgs = file.Installer.ExtraArgs
	}
	if file.Installer.StatePath != "" {
		cfg.Installer.StatePath = file.Installer.StatePath
	}
	return nil
}

func applyCache(cfg *domain.CacheConfig, dto CacheDTO) error {
	switch backend := domain.CacheBackend(strings.ToLower(dto.Backend)); backend {
	case "":
	case domain.CacheFile, domain.CacheRedis, domain.CacheNone:
		cfg.Backend = backend
	default:
		return invalid("cache.backend", "unknown cache backend "+dto.Backend)
	}
	if dto.Dir != "" {
		cfg.Dir = dto.Dir
	}
	if dto.RedisAddr != "" {
		cfg.RedisAddr = dto.RedisAddr
	}
	if cfg.Backend == domain.CacheRedis && cfg.RedisAddr == "" {
		return invalid("cache.redis_addr", "redis cache requires redis_addr")
	}
	if dto.TTL != "" {
		d, err := parseDuration("cache.ttl", dto.TTL)
		if err != nil {
			return err
		}
		cfg.TTL = d
	}
	return nil
}

// ParseDirectBase parses a direct_relative_to value.
func ParseDirectBase(s string) (domain.DirectBase, error) {
	switch base := domain.DirectBase(strings.ToLower(s)); base {
	case domain.DirectRelativeToLock, domain.DirectRelativeToCwd:
		return base, nil
	default:
		return "", invalid("direct_relative_to", "direct_relative_to must be lock or cwd")
	}
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, invalid(field, "invalid duration "+s)
	}
	return d, nil
}
