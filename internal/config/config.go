package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Cron   CronConfig   `mapstructure:"cron"`

	AlphaVantage AlphaVantageConfig `mapstructure:"alpha_vantage"`
	Reddit       RedditConfig       `mapstructure:"reddit"`
	Sentiment    SentimentConfig    `mapstructure:"sentiment"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Rating       RatingConfig       `mapstructure:"rating"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sync    string `mapstructure:"sync"`
}

type AlphaVantageConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	RequestsPerDay    int           `mapstructure:"requests_per_day"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
}

type RedditConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	AuthURL           string        `mapstructure:"auth_url"`
	ClientID          string        `mapstructure:"client_id"`
	ClientSecret      string        `mapstructure:"client_secret"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Subreddits        []string      `mapstructure:"subreddits"`
	PostLimit         int           `mapstructure:"post_limit"`
	MinScore          int           `mapstructure:"min_score"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
}

type SentimentConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	BatchSize         int           `mapstructure:"batch_size"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
}

// CacheConfig holds TTLs per data class: quotes short, ratings medium,
// raw social data longer.
type CacheConfig struct {
	QuoteTTL    time.Duration `mapstructure:"quote_ttl"`
	OverviewTTL time.Duration `mapstructure:"overview_ttl"`
	RatingTTL   time.Duration `mapstructure:"rating_ttl"`
	SocialTTL   time.Duration `mapstructure:"social_ttl"`
}

type SyncConfig struct {
	SymbolTimeout  time.Duration `mapstructure:"symbol_timeout"`
	InterCallDelay time.Duration `mapstructure:"inter_call_delay"`
	FetchOverview  bool          `mapstructure:"fetch_overview"`
}

type RatingConfig struct {
	BuyThreshold       float64       `mapstructure:"buy_threshold"`
	SellThreshold      float64       `mapstructure:"sell_threshold"`
	PositiveCutoff     float64       `mapstructure:"positive_cutoff"`
	NegativeCutoff     float64       `mapstructure:"negative_cutoff"`
	MinPopularPosts    int           `mapstructure:"min_popular_posts"`
	MinExpertRatings   int           `mapstructure:"min_expert_ratings"`
	ExpertWeight       float64       `mapstructure:"expert_weight"`
	PopularWeight      float64       `mapstructure:"popular_weight"`
	SummaryWindow      time.Duration `mapstructure:"summary_window"`
	ExpertRatingMaxAge time.Duration `mapstructure:"expert_rating_max_age"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.sync", "@every 15m")

	v.SetDefault("alpha_vantage.base_url", "https://www.alphavantage.co/query")
	v.SetDefault("alpha_vantage.timeout", "30s")
	v.SetDefault("alpha_vantage.requests_per_minute", 5)
	v.SetDefault("alpha_vantage.requests_per_day", 25)
	v.SetDefault("alpha_vantage.max_retries", 3)
	v.SetDefault("alpha_vantage.retry_base_delay", "500ms")

	v.SetDefault("reddit.base_url", "https://oauth.reddit.com")
	v.SetDefault("reddit.auth_url", "https://www.reddit.com/api/v1/access_token")
	v.SetDefault("reddit.user_agent", "rottenstocks/0.1")
	v.SetDefault("reddit.timeout", "15s")
	v.SetDefault("reddit.requests_per_minute", 55)
	v.SetDefault("reddit.subreddits", []string{"stocks", "investing", "wallstreetbets"})
	v.SetDefault("reddit.post_limit", 50)
	v.SetDefault("reddit.min_score", 10)
	v.SetDefault("reddit.max_retries", 3)
	v.SetDefault("reddit.retry_base_delay", "500ms")

	v.SetDefault("sentiment.model", "gpt-4o-mini")
	v.SetDefault("sentiment.timeout", "20s")
	v.SetDefault("sentiment.requests_per_minute", 1000)
	v.SetDefault("sentiment.batch_size", 50)
	v.SetDefault("sentiment.max_retries", 3)
	v.SetDefault("sentiment.retry_base_delay", "500ms")

	v.SetDefault("cache.quote_ttl", "5m")
	v.SetDefault("cache.overview_ttl", "168h")
	v.SetDefault("cache.rating_ttl", "30m")
	v.SetDefault("cache.social_ttl", "1h")

	v.SetDefault("sync.symbol_timeout", "30s")
	v.SetDefault("sync.inter_call_delay", "12s")
	v.SetDefault("sync.fetch_overview", false)

	v.SetDefault("rating.buy_threshold", 70)
	v.SetDefault("rating.sell_threshold", 40)
	v.SetDefault("rating.positive_cutoff", 0.2)
	v.SetDefault("rating.negative_cutoff", -0.2)
	v.SetDefault("rating.min_popular_posts", 20)
	v.SetDefault("rating.min_expert_ratings", 1)
	v.SetDefault("rating.expert_weight", 0.7)
	v.SetDefault("rating.popular_weight", 0.3)
	v.SetDefault("rating.summary_window", "24h")
	v.SetDefault("rating.expert_rating_max_age", "720h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
