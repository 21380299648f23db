package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overlays environment variables onto a loaded config. Unset or
// unparsable variables leave the config untouched.
func ApplyEnv(c *Config) {
	if v := strings.TrimSpace(os.Getenv("PIBBLE_PORT")); v != "" {
		c.Server.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("PIBBLE_ALLOWED_ORIGINS")); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v := strings.TrimSpace(os.Getenv("PIBBLE_STORAGE")); v != "" {
		c.Storage.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("PIBBLE_DATA_DIR")); v != "" {
		c.Storage.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("PIBBLE_REDIS_ADDR")); v != "" {
		c.Storage.Redis.Addr = v
	}
	if v := os.Getenv("PIBBLE_REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := getEnvInt("PIBBLE_REDIS_DB"); v > 0 {
		c.Storage.Redis.DB = v
	}
	if v := getEnvInt("PIBBLE_AUTOSAVE_SECONDS"); v > 0 {
		c.Balance.AutosaveSeconds = v
	}
	if v := getEnvInt("PIBBLE_RNG_SEED"); v != 0 {
		c.Balance.RNGSeed = int64(v)
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
