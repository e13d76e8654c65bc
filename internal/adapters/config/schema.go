package config

// File is the structure of the lockres.yaml (or .toml) session configuration file.
type File struct {
	Environment            map[string]string `yaml:"environment" toml:"environment"`
	Overrides              map[string]string `yaml:"overrides" toml:"overrides"`
	Concurrency            *int              `yaml:"concurrency" toml:"concurrency"`
	DirectRelativeTo       string            `yaml:"direct_relative_to" toml:"direct_relative_to"`
	AllowCompetingVariants *bool             `yaml:"allow_competing_variants" toml:"allow_competing_variants"`
	Cache                  CacheDTO          `yaml:"cache" toml:"cache"`
	Index                  IndexDTO          `yaml:"index" toml:"index"`
	Installer              InstallerDTO      `yaml:"installer" toml:"installer"`
}

// CacheDTO represents the cache section.
type CacheDTO struct {
	Backend   string `yaml:"backend" toml:"backend"`
	Dir       string `yaml:"dir" toml:"dir"`
	RedisAddr string `yaml:"redis_addr" toml:"redis_addr"`
	TTL       string `yaml:"ttl" toml:"ttl"`
}

// IndexDTO represents the index section.
type IndexDTO struct {
	Timeout string `yaml:"timeout" toml:"timeout"`
	Retries *int   `yaml:"retries" toml:"retries"`
}

// InstallerDTO represents the installer section.
type InstallerDTO struct {
	Python    string   `yaml:"python" toml:"python"`
	ExtraArgs []string `yaml:"extra_args" toml:"extra_args"`
	StatePath string   `yaml:"state_path" toml:"state_path"`
}
