package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config stores all configuration of the collector. Cookies are only read from
// the environment.
type Config struct {
	GroupID          string `toml:"group_id"`
	AutoLogin        string `toml:"-"`
	OnlineJudge      string `toml:"-"`
	BaseURL          string `toml:"base_url"`
	RequestLimit     int    `toml:"request_limit"`
	ThrottleMillis   int    `toml:"throttle_ms"`
	SubmissionsFile  string `toml:"submissions_file"`
	ProblemsFile     string `toml:"problems_file"`
	CompetitionsFile string `toml:"competitions_file"`
	RedisAddr        string `toml:"redis_addr"`
	RedisPassword    string `toml:"-"`
	RedisPrefix      string `toml:"redis_prefix"`
	ArchiveRepo      string `toml:"archive_repo"`
	Schedule         string `toml:"schedule"`
}

func Default() *Config {
	return &Config{
		BaseURL:          "https://www.acmicpc.net",
		RequestLimit:     20,
		ThrottleMillis:   50,
		SubmissionsFile:  "submissions.json",
		ProblemsFile:     "problems.json",
		CompetitionsFile: "competitions.json",
		RedisPrefix:      "boj",
	}
}

// Load reads the optional TOML file at path, then the dotenv files (".env"
// when none are given), then the process environment. A missing dotenv file is
// not an error.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not open %s: %w", path, err)
		}
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env: %w", err)
	}
	if v := os.Getenv("GROUP_ID"); v != "" {
		cfg.GroupID = v
	}
	cfg.AutoLogin = os.Getenv("BOJ_AUTO_LOGIN")
	cfg.OnlineJudge = os.Getenv("ONLINE_JUDGE")
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	return cfg, nil
}

func (c *Config) Throttle() time.Duration {
	return time.Duration(c.ThrottleMillis) * time.Millisecond
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.GroupID == "" {
		missing = append(missing, "GROUP_ID")
	}
	if c.AutoLogin == "" {
		missing = append(missing, "BOJ_AUTO_LOGIN")
	}
	if c.OnlineJudge == "" {
		missing = append(missing, "ONLINE_JUDGE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	if c.RequestLimit < 0 {
		return fmt.Errorf("request_limit must not be negative: %d", c.RequestLimit)
	}
	if c.ThrottleMillis < 0 {
		return fmt.Errorf("throttle_ms must not be negative: %d", c.ThrottleMillis)
	}
	return nil
}
