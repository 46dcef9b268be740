package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Embedding   EmbeddingConfig
	Index       IndexConfig
	Recommender RecommenderConfig
	TMDB        TMDBConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	PosterTTL     time.Duration
}

type EmbeddingConfig struct {
	// Provider is one of "openai", "ollama" or "hash".
	Provider  string
	BaseURL   string
	Model     string
	APIKey    string
	Dimension int
	BatchSize int
	Workers   int
	Timeout   time.Duration
}

type IndexConfig struct {
	CatalogPath string
	BoltPath    string
}

type RecommenderConfig struct {
	Alpha               float64 `yaml:"alpha"`
	Epsilon             float64 `yaml:"epsilon"`
	TopK                int     `yaml:"top_k"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
	Neighbours          int     `yaml:"neighbours"`
	MinNeighbours       int     `yaml:"min_neighbours"`
	Similarity          string  `yaml:"similarity"`
	Seed                int64   `yaml:"seed"`
	ClampPersonalized   bool    `yaml:"clamp_personalized"`
}

type TMDBConfig struct {
	APIKey       string
	SearchURL    string
	ImageBaseURL string
	RatePerSec   float64
	MaxRetries   int
	Timeout      time.Duration
}

// Load reads the server configuration and fails on missing secrets.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

// Read loads the environment without the server-only checks, for the indexer CLI.
func Read() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Movie Recommendation API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "movie_reco"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", ""),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Embedding: EmbeddingConfig{
			Provider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			BaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			Model:    getEnv("EMBEDDING_MODEL", "all-minilm"),
			APIKey:   getEnv("EMBEDDING_API_KEY", ""),
		},
		Index: IndexConfig{
			CatalogPath: getEnv("CATALOG_PATH", "data/movies.json"),
			BoltPath:    getEnv("INDEX_PATH", "data/index.db"),
		},
		Recommender: DefaultRecommender(),
		TMDB: TMDBConfig{
			APIKey:       getEnv("TMDB_API_KEY", ""),
			SearchURL:    getEnv("TMDB_SEARCH_URL", "https://api.themoviedb.org/3/search/movie"),
			ImageBaseURL: getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		},
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"EMBEDDING_DIMENSION", 384, &cfg.Embedding.Dimension},
		{"EMBEDDING_BATCH_SIZE", 64, &cfg.Embedding.BatchSize},
		{"EMBEDDING_WORKERS", 4, &cfg.Embedding.Workers},
		{"TMDB_MAX_RETRIES", 3, &cfg.TMDB.MaxRetries},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, v.def); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"REQUEST_TIMEOUT", 10 * time.Second, &cfg.Server.RequestTimeout},
		{"JWT_TTL", 24 * time.Hour, &cfg.JWT.TTL},
		{"POSTER_CACHE_TTL", 24 * time.Hour, &cfg.Redis.PosterTTL},
		{"EMBEDDING_TIMEOUT", 30 * time.Second, &cfg.Embedding.Timeout},
		{"TMDB_TIMEOUT", 5 * time.Second, &cfg.TMDB.Timeout},
	}
	for _, v := range durations {
		if *v.dst, err = getEnvDuration(v.key, v.def); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", v.key, err)
		}
	}

	if cfg.TMDB.RatePerSec, err = getEnvFloat("TMDB_RATE_PER_SEC", 4); err != nil {
		return nil, fmt.Errorf("invalid TMDB_RATE_PER_SEC: %w", err)
	}

	if err := cfg.applyRecommenderEnv(); err != nil {
		return nil, err
	}

	if path := os.Getenv("RECOMMENDER_CONFIG"); path != "" {
		if err := cfg.Recommender.Overlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Recommender.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyRecommenderEnv() error {
	r := &c.Recommender
	var err error

	if r.Alpha, err = getEnvFloat("RECOMMENDER_ALPHA", r.Alpha); err != nil {
		return fmt.Errorf("invalid RECOMMENDER_ALPHA: %w", err)
	}
	if r.Epsilon, err = getEnvFloat("RECOMMENDER_EPSILON", r.Epsilon); err != nil {
		return fmt.Errorf("invalid RECOMMENDER_EPSILON: %w", err)
	}
	if r.TopK, err = getEnvInt("RECOMMENDER_TOP_K", r.TopK); err != nil {
		return fmt.Errorf("invalid RECOMMENDER_TOP_K: %w", err)
	}
	if r.Neighbours, err = getEnvInt("KNN_NEIGHBOURS", r.Neighbours); err != nil {
		return fmt.Errorf("invalid KNN_NEIGHBOURS: %w", err)
	}
	r.Similarity = getEnv("KNN_SIMILARITY", r.Similarity)

	if v := os.Getenv("RECOMMENDER_SEED"); v != "" {
		if r.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("invalid RECOMMENDER_SEED: %w", err)
		}
	}
	if v := os.Getenv("SEARCH_CLAMP_PERSONALIZED"); v != "" {
		if r.ClampPersonalized, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid SEARCH_CLAMP_PERSONALIZED: %w", err)
		}
	}

	return nil
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(val)
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(val, 64)
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(val)
}
