package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Solve   SolveConfig   `mapstructure:"solve"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Render  RenderConfig  `mapstructure:"render"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// SolveConfig maps each chat mode to the solve endpoint the dispatcher
// calls. The mapping is data, not code: pointing a mode at a different
// URL requires no rebuild.
type SolveConfig struct {
	Timeout time.Duration                 `mapstructure:"timeout"`
	Modes   map[string]SolveEndpointConfig `mapstructure:"modes"`
}

type SolveEndpointConfig struct {
	URL          string `mapstructure:"url"`
	SystemPrompt string `mapstructure:"system_prompt"`
	Attachments  bool   `mapstructure:"attachments"`
	ThinkingMode bool   `mapstructure:"thinking_mode"`
}

// OpenAIConfig configures the upstream LLM used by the built-in solve
// endpoints. Prices are per 1K tokens and feed the cost estimate on
// assistant messages.
type OpenAIConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Model            string        `mapstructure:"model"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Timeout          time.Duration `mapstructure:"timeout"`
	InputPricePer1K  float64       `mapstructure:"input_price_per_1k"`
	OutputPricePer1K float64       `mapstructure:"output_price_per_1k"`
}

type RenderConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Type     string      `mapstructure:"type"`
	DataDir  string      `mapstructure:"data_dir"`
	SlotName string      `mapstructure:"slot_name"`
	Redis    RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TUTOR")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Config file wins; fall back to the environment for the API key.
	if cfg.OpenAI.APIKey == "" {
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			cfg.OpenAI.APIKey = apiKey
		}
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Solve.Timeout <= 0 {
		c.Solve.Timeout = 30 * time.Second
	}
	if c.OpenAI.Timeout <= 0 {
		c.OpenAI.Timeout = 60 * time.Second
	}
	if c.Render.PollInterval <= 0 {
		c.Render.PollInterval = 2 * time.Second
	}
	if c.Render.Timeout <= 0 {
		c.Render.Timeout = 30 * time.Second
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "disk"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "./data"
	}
	if c.Storage.SlotName == "" {
		c.Storage.SlotName = "chat_sessions"
	}
	if c.Storage.Redis.Key == "" {
		c.Storage.Redis.Key = "mathtutor:chat_sessions"
	}
}

func validate(c *Config) error {
	for mode, ep := range c.Solve.Modes {
		if ep.URL == "" {
			return fmt.Errorf("solve mode %q has no endpoint url", mode)
		}
	}
	return nil
}
