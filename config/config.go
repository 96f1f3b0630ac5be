package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"homecrawl/models"
)

type Config struct {
	BatchRoot   string
	DBPath      string
	PostgresURL string
	LogLevel    string
	LogPath     string

	Scheduler SchedulerConfig
	Fetch     FetchConfig
	S3        S3Config

	ParseWorkers int

	Platforms map[string]*PlatformConfig
	Areas     []Area
}

type SchedulerConfig struct {
	Cron     string
	Interval time.Duration
}

type FetchConfig struct {
	TimeoutSec int
	SleepMinMS int
	SleepMaxMS int
	MaxRetries int
	UserAgent  string
	ProxyURL   string
	UseBrowser bool
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// PlatformConfig describes one listing site: how to recognize its URLs
// and how to build seed search pages. Field alias tables are not here
// on purpose; they are internal constants of the extractors.
type PlatformConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	URLPattern  string `yaml:"url_pattern"`
	ZipSearch   string `yaml:"zip_search"`
	RateLimitMS int    `yaml:"rate_limit_ms"`
}

// Area is one seed region: every ZIP gets a search page per platform.
type Area struct {
	City  string   `yaml:"city"`
	State string   `yaml:"state"`
	Zips  []string `yaml:"zips"`
}

type areasFile struct {
	Areas []Area `yaml:"areas"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BatchRoot:   getEnv("BATCH_ROOT", filepath.Join("data", "batches")),
		DBPath:      getEnv("DB_PATH", "homecrawl.db"),
		PostgresURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPath:     getEnv("LOG_PATH", "daemon.log"),
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Fetch: FetchConfig{
			TimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 30),
			SleepMinMS: getEnvInt("FETCH_SLEEP_MIN_MS", 1200),
			SleepMaxMS: getEnvInt("FETCH_SLEEP_MAX_MS", 2800),
			MaxRetries: getEnvInt("FETCH_MAX_RETRIES", 3),
			UserAgent:  getEnv("USER_AGENT", "Mozilla/5.0"),
			ProxyURL:   os.Getenv("PROXY_URL"),
			UseBrowser: os.Getenv("FETCH_USE_BROWSER") == "true",
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		ParseWorkers: getEnvInt("PARSE_WORKERS", 4),
		Platforms:    defaultPlatforms(),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadPlatformConfigs(); err != nil {
		return nil, err
	}
	if err := cfg.loadAreas(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PatternMap projects the platform configs into the classifier's
// url-substring table.
func (c *Config) PatternMap() map[models.Platform]string {
	out := make(map[models.Platform]string, len(c.Platforms))
	for id, p := range c.Platforms {
		out[models.Platform(id)] = p.URLPattern
	}
	return out
}

func defaultPlatforms() map[string]*PlatformConfig {
	return map[string]*PlatformConfig{
		"redfin": {
			ID:          "redfin",
			Name:        "Redfin",
			URLPattern:  "redfin.com",
			ZipSearch:   "https://www.redfin.com/zipcode/{ZIP}",
			RateLimitMS: 1500,
		},
		"zillow": {
			ID:          "zillow",
			Name:        "Zillow",
			URLPattern:  "zillow.com",
			ZipSearch:   "https://www.zillow.com/homes/{ZIP}_rb/",
			RateLimitMS: 1500,
		},
	}
}

func (c *Config) loadPlatformConfigs() error {
	configDir := filepath.Join("config", "platforms")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(configDir, entry.Name()))
		if err != nil {
			return err
		}

		var platform PlatformConfig
		if err := yaml.Unmarshal(data, &platform); err != nil {
			return err
		}

		c.Platforms[platform.ID] = &platform
	}

	return nil
}

func (c *Config) loadAreas() error {
	path := filepath.Join("config", "areas.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var f areasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	c.Areas = f.Areas
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
