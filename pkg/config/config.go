package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Planner  PlannerConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PlannerConfig carries the default planning horizon and engine budgets.
// Per-run requests may override the horizon but not the budgets.
type PlannerConfig struct {
	Days                  []string
	PeriodsPerDay         int
	LessonDuration        time.Duration
	FirstLessonStart      string
	Seed                  int64
	RetryBudget           int
	ResolverMaxIterations int
	FridayName            string
	FridayTheoryCutoff    int
	FridayPracticalCutoff int
	ThesisDay             string
	ThesisSubjectCode     string
	MinSessionsPerDay     int
	HomeBuildings         map[int]string
	ProposalTTL           time.Duration
	AsyncWorkers          int
	AsyncRetries          int
}

// ExportsConfig governs timetable export rendering and download links.
type ExportsConfig struct {
	Enabled      bool
	Title        string
	Dir          string
	SigningKey   string
	DownloadTTL  time.Duration
	RetentionTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Enabled:  v.GetBool("ENABLE_REDIS"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Planner = PlannerConfig{
		Days:                  splitAndTrim(v.GetString("PLANNER_DAYS")),
		PeriodsPerDay:         v.GetInt("PLANNER_PERIODS_PER_DAY"),
		LessonDuration:        parseDuration(v.GetString("PLANNER_LESSON_DURATION"), 45*time.Minute),
		FirstLessonStart:      v.GetString("PLANNER_FIRST_LESSON_START"),
		Seed:                  v.GetInt64("PLANNER_SEED"),
		RetryBudget:           v.GetInt("PLANNER_RETRY_BUDGET"),
		ResolverMaxIterations: v.GetInt("PLANNER_RESOLVER_MAX_ITERATIONS"),
		FridayName:            v.GetString("PLANNER_FRIDAY_NAME"),
		FridayTheoryCutoff:    v.GetInt("PLANNER_FRIDAY_THEORY_CUTOFF"),
		FridayPracticalCutoff: v.GetInt("PLANNER_FRIDAY_PRACTICAL_CUTOFF"),
		ThesisDay:             v.GetString("PLANNER_THESIS_DAY"),
		ThesisSubjectCode:     v.GetString("PLANNER_THESIS_SUBJECT_CODE"),
		MinSessionsPerDay:     v.GetInt("PLANNER_MIN_SESSIONS_PER_DAY"),
		HomeBuildings:         parseRankMap(v.GetString("PLANNER_HOME_BUILDINGS")),
		ProposalTTL:           parseDuration(v.GetString("PLANNER_PROPOSAL_TTL"), 30*time.Minute),
		AsyncWorkers:          v.GetInt("PLANNER_ASYNC_WORKERS"),
		AsyncRetries:          v.GetInt("PLANNER_ASYNC_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:      v.GetBool("ENABLE_EXPORTS"),
		Title:        v.GetString("EXPORTS_TITLE"),
		Dir:          v.GetString("EXPORTS_DIR"),
		SigningKey:   v.GetString("EXPORTS_SIGNING_KEY"),
		DownloadTTL:  parseDuration(v.GetString("EXPORTS_DOWNLOAD_TTL"), 24*time.Hour),
		RetentionTTL: parseDuration(v.GetString("EXPORTS_RETENTION_TTL"), 7*24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_REDIS", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PLANNER_DAYS", "MONDAY,TUESDAY,WEDNESDAY,THURSDAY,FRIDAY")
	v.SetDefault("PLANNER_PERIODS_PER_DAY", 7)
	v.SetDefault("PLANNER_LESSON_DURATION", "45m")
	v.SetDefault("PLANNER_FIRST_LESSON_START", "08:00")
	v.SetDefault("PLANNER_SEED", 1)
	v.SetDefault("PLANNER_RETRY_BUDGET", 300)
	v.SetDefault("PLANNER_RESOLVER_MAX_ITERATIONS", 10)
	v.SetDefault("PLANNER_FRIDAY_NAME", "FRIDAY")
	v.SetDefault("PLANNER_FRIDAY_THEORY_CUTOFF", 6)
	v.SetDefault("PLANNER_FRIDAY_PRACTICAL_CUTOFF", 4)
	v.SetDefault("PLANNER_THESIS_DAY", "")
	v.SetDefault("PLANNER_THESIS_SUBJECT_CODE", "THESIS")
	v.SetDefault("PLANNER_MIN_SESSIONS_PER_DAY", 2)
	v.SetDefault("PLANNER_HOME_BUILDINGS", "")
	v.SetDefault("PLANNER_PROPOSAL_TTL", "30m")
	v.SetDefault("PLANNER_ASYNC_WORKERS", 1)
	v.SetDefault("PLANNER_ASYNC_RETRIES", 1)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_TITLE", "Weekly Timetable")
	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNING_KEY", "change-me")
	v.SetDefault("EXPORTS_DOWNLOAD_TTL", "24h")
	v.SetDefault("EXPORTS_RETENTION_TTL", "168h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseRankMap reads a "rank=building" comma list, e.g. "1=Science,2=Main".
func parseRankMap(raw string) map[int]string {
	if raw == "" {
		return nil
	}

	out := make(map[int]string)
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		rank, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil || rank < 1 {
			continue
		}
		if building := strings.TrimSpace(kv[1]); building != "" {
			out[rank] = building
		}
	}
	if len(out) == 0 {
		return nil
	}

	return out
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
