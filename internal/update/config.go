package update

import (
	"os"
	"strconv"
	"strings"
)

type RuntimeConfig struct {
	MaxCycles    int
	RingerBuffer int
	DatabasePath string
	LogPath      string
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		MaxCycles:    6,
		RingerBuffer: 64,
		DatabasePath: "mrsleep.db",
		LogPath:      "mrsleep.log",
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvInt("MRSLEEP_MAX_CYCLES"); ok && v > 0 {
		cfg.MaxCycles = v
	}
	if v, ok := getEnvInt("MRSLEEP_RINGER_BUFFER"); ok && v > 0 {
		cfg.RingerBuffer = v
	}
	if v, ok := getEnvString("MRSLEEP_DB_PATH"); ok {
		cfg.DatabasePath = v
	}
	if v, ok := getEnvString("MRSLEEP_LOG_PATH"); ok {
		cfg.LogPath = v
	}
	return cfg
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}
