package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the client needs to reach the marketplace API.
type Config struct {
	APIURL       string
	TokenFile    string
	Token        string // Set only through BASECAMP_TOKEN
	LogFile      string
	CacheTTL     time.Duration
	PollInterval time.Duration
}

const (
	defaultConfigPath = "~/.config/basecamp/config.toml"
	defaultAPIURL     = "http://127.0.0.1:8080/api"
	defaultTokenFile  = "~/.config/basecamp/token"
	defaultLogFile    = "~/.local/state/basecamp/basecamp.log"
	defaultCacheTTL   = 30 * time.Second
	defaultPoll       = 30 * time.Second

	defaultEnvFile = ".env"
)

// Environment overrides, applied after the TOML file.
const (
	EnvAPIURL  = "BASECAMP_API_URL"
	EnvToken   = "BASECAMP_TOKEN"
	EnvLogFile = "BASECAMP_LOG_FILE"
)

// Load parses the config file, falling back to defaults when it is missing,
// then applies overrides from ./.env and the process environment.
func Load(path string) (Config, error) {
	return load(path, defaultEnvFile, os.LookupEnv)
}

func load(path, envFile string, lookup func(string) (string, bool)) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIURL:       defaultAPIURL,
		TokenFile:    mustExpand(defaultTokenFile),
		LogFile:      mustExpand(defaultLogFile),
		CacheTTL:     defaultCacheTTL,
		PollInterval: defaultPoll,
	}

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.TokenFile); v != "" {
		cfg.TokenFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if raw.CacheTTLSeconds > 0 {
		cfg.CacheTTL = time.Duration(raw.CacheTTLSeconds) * time.Second
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}

	env, err := readEnvFile(envFile)
	if err != nil {
		return Config{}, err
	}
	get := func(key string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(env[key])
	}
	if v := get(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := get(EnvLogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.Token = get(EnvToken)

	return cfg, nil
}

type rawConfig struct {
	APIURL          string `toml:"api_url"`
	TokenFile       string `toml:"token_file"`
	LogFile         string `toml:"log_file"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
	PollSeconds     int    `toml:"poll_seconds"`
}

func readFile(path string) (rawConfig, error) {
	var raw rawConfig
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return env, nil
}

// String renders the config for logs without the token.
func (c Config) String() string {
	token := "unset"
	if c.Token != "" {
		token = "set (" + strconv.Itoa(len(c.Token)) + " bytes)"
	}
	return fmt.Sprintf("api=%s token_file=%s token=%s cache=%s poll=%s", c.APIURL, c.TokenFile, token, c.CacheTTL, c.PollInterval)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
