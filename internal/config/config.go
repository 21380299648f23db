package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        Server        `yaml:"server" json:"server"`
	Storage       Storage       `yaml:"storage" json:"storage"`
	Balance       Balance       `yaml:"balance" json:"balance"`
	Notifications Notifications `yaml:"notifications" json:"notifications"`
}

type Server struct {
	Port            string   `yaml:"port" json:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" json:"allowed_origins"`
	ClicksPerSecond float64  `yaml:"clicks_per_second" json:"clicks_per_second"`
	ClickBurst      int      `yaml:"click_burst" json:"click_burst"`
}

type Storage struct {
	Backend string `yaml:"backend" json:"backend"` // "file" or "redis"
	DataDir string `yaml:"data_dir" json:"data_dir"`
	Redis   Redis  `yaml:"redis" json:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"-"`
	DB       int    `yaml:"db" json:"db"`
}

// Balance holds the accrual and economy tunables.
type Balance struct {
	CostGrowth      float64 `yaml:"cost_growth" json:"cost_growth"`
	BaseTickMS      int     `yaml:"base_tick_ms" json:"base_tick_ms"`
	MinTickMS       int     `yaml:"min_tick_ms" json:"min_tick_ms"`
	AutosaveSeconds int     `yaml:"autosave_seconds" json:"autosave_seconds"`
	RNGSeed         int64   `yaml:"rng_seed" json:"rng_seed"` // 0 = seed from time
}

// Notifications holds the on-screen display durations for transient events.
type Notifications struct {
	AchievementSeconds int `yaml:"achievement_seconds" json:"achievement_seconds"`
	CriticalSeconds    int `yaml:"critical_seconds" json:"critical_seconds"`
	TierSeconds        int `yaml:"tier_seconds" json:"tier_seconds"`
}

func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ClicksPerSecond <= 0 {
		c.Server.ClicksPerSecond = 30
	}
	if c.Server.ClickBurst <= 0 {
		c.Server.ClickBurst = 60
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = "localhost:6379"
	}
	if c.Balance.CostGrowth <= 0 {
		c.Balance.CostGrowth = 1.5
	}
	if c.Balance.BaseTickMS <= 0 {
		c.Balance.BaseTickMS = 1000
	}
	if c.Balance.MinTickMS <= 0 {
		c.Balance.MinTickMS = 100
	}
	if c.Balance.AutosaveSeconds <= 0 {
		c.Balance.AutosaveSeconds = 30
	}
	if c.Notifications.AchievementSeconds <= 0 {
		c.Notifications.AchievementSeconds = 5
	}
	if c.Notifications.CriticalSeconds <= 0 {
		c.Notifications.CriticalSeconds = 2
	}
	if c.Notifications.TierSeconds <= 0 {
		c.Notifications.TierSeconds = 3
	}
}

func (c *Config) BaseTick() time.Duration {
	return time.Duration(c.Balance.BaseTickMS) * time.Millisecond
}

func (c *Config) MinTick() time.Duration {
	return time.Duration(c.Balance.MinTickMS) * time.Millisecond
}

func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.Balance.AutosaveSeconds) * time.Second
}

func (n Notifications) AchievementDuration() time.Duration {
	return time.Duration(n.AchievementSeconds) * time.Second
}

func (n Notifications) CriticalDuration() time.Duration {
	return time.Duration(n.CriticalSeconds) * time.Second
}

func (n Notifications) TierDuration() time.Duration {
	return time.Duration(n.TierSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Load reads a YAML config file. A missing file yields the defaults so the
// server runs without any config on disk.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	return &c, nil
}
