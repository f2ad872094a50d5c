package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once and treated
// as read-only after Load; components receive the sub-structs they need at
// construction time rather than reading viper themselves.
type Config struct {
	App       App       `mapstructure:"app"`
	AI        AI        `mapstructure:"ai"`
	Search    Search    `mapstructure:"search"`
	WordPress WordPress `mapstructure:"wordpress"`
	Post      Post      `mapstructure:"post"`
	Context   Context   `mapstructure:"context"`
	Logging   Logging   `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	LogLevel   string `mapstructure:"log_level"`
	ConfigFile string `mapstructure:"-"` // path of the config file actually read
}

// AI holds LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// Search holds news search provider configuration
type Search struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	MaxResults      int             `mapstructure:"max_results"`
	Timeout         string          `mapstructure:"timeout"`
	Providers       SearchProviders `mapstructure:"providers"`
}

// SearchProviders holds configuration for all search providers
type SearchProviders struct {
	Tavily TavilyConfig `mapstructure:"tavily"`
}

// TavilyConfig holds Tavily search API configuration
type TavilyConfig struct {
	APIKey      string `mapstructure:"api_key"`
	SearchDepth string `mapstructure:"search_depth"`
}

// WordPress holds target CMS configuration. URL, Username and Password are
// required for publishing; their absence is a fatal configuration error.
type WordPress struct {
	URL        string `mapstructure:"url"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	AuthMethod string `mapstructure:"auth_method"` // basic, jwt or application
}

// Post holds defaults for generated posts
type Post struct {
	DefaultCategoryID   int      `mapstructure:"default_category_id"`
	DefaultCategoryName string   `mapstructure:"default_category_name"`
	DefaultTags         []string `mapstructure:"default_tags"`
	DefaultStatus       string   `mapstructure:"default_status"`
	Keyphrases          int      `mapstructure:"keyphrases"`
	MinWords            int      `mapstructure:"min_words"`
	MaxWords            int      `mapstructure:"max_words"`
	HighlightTerms      []string `mapstructure:"highlight_terms"`
	LoopDelay           string   `mapstructure:"loop_delay"`
	ConflictPolicy      string   `mapstructure:"conflict_policy"` // auto-create, use-default or abort
}

// Context holds paths to the markdown documents interpolated into prompts
type Context struct {
	GoalFile      string `mapstructure:"goal_file"`
	KnowledgeFile string `mapstructure:"knowledge_file"`
	StyleFile     string `mapstructure:"style_file"`
	TopicsFile    string `mapstructure:"topics_file"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from .env, config file, environment and defaults.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".autopress")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.temperature", 0.7)

	viper.SetDefault("search.default_provider", "tavily")
	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.timeout", "15s")
	viper.SetDefault("search.providers.tavily.search_depth", "advanced")

	viper.SetDefault("wordpress.auth_method", "basic")

	viper.SetDefault("post.default_category_name", "Uncategorized")
	viper.SetDefault("post.default_tags", []string{"ai", "generated", "content"})
	viper.SetDefault("post.default_status", "draft")
	viper.SetDefault("post.keyphrases", 5)
	viper.SetDefault("post.min_words", 4000)
	viper.SetDefault("post.max_words", 6000)
	viper.SetDefault("post.highlight_terms", []string{})
	viper.SetDefault("post.loop_delay", "5s")
	viper.SetDefault("post.conflict_policy", "use-default")

	viper.SetDefault("context.goal_file", "Context_Goal.md")
	viper.SetDefault("context.knowledge_file", "Context_Knowledge.md")
	viper.SetDefault("context.style_file", "Context_Style.md")
	viper.SetDefault("context.topics_file", "Context_Topics.md")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("search.providers.tavily.api_key", []string{
		"TAVILY_API_KEY",
	})

	bindEnvKeys("wordpress.url", []string{"WP_URL", "WORDPRESS_URL"})
	bindEnvKeys("wordpress.username", []string{"WP_USERNAME", "WORDPRESS_USERNAME"})
	bindEnvKeys("wordpress.password", []string{"WP_PASSWORD", "WORDPRESS_PASSWORD"})
	bindEnvKeys("wordpress.auth_method", []string{"WP_AUTH_METHOD"})

	bindEnvKeys("post.default_category_id", []string{"DEFAULT_CATEGORY_ID"})
	bindEnvKeys("post.default_category_name", []string{"DEFAULT_CATEGORY_NAME"})
	bindEnvKeys("post.default_status", []string{"DEFAULT_STATUS"})

	bindEnvKeys("context.goal_file", []string{"CONTEXT_GOAL_FILE"})
	bindEnvKeys("context.knowledge_file", []string{"CONTEXT_KNOWLEDGE_FILE"})
	bindEnvKeys("context.style_file", []string{"CONTEXT_STYLE_FILE"})
	bindEnvKeys("context.topics_file", []string{"CONTEXT_TOPICS_FILE"})
}

// bindEnvKeys binds the first set environment variable from names to key
func bindEnvKeys(key string, names []string) {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			viper.Set(key, value)
			return
		}
	}
}

// validateConfig checks values that would otherwise fail deep inside a run
func validateConfig(config *Config) error {
	switch config.Post.DefaultStatus {
	case "draft", "publish", "pending", "private":
	default:
		return fmt.Errorf("invalid post.default_status %q: must be draft, publish, pending or private", config.Post.DefaultStatus)
	}

	switch config.WordPress.AuthMethod {
	case "", "basic", "jwt", "application":
	default:
		return fmt.Errorf("invalid wordpress.auth_method %q: must be basic, jwt or application", config.WordPress.AuthMethod)
	}

	if config.Post.MinWords > config.Post.MaxWords {
		return fmt.Errorf("post.min_words (%d) must not exceed post.max_words (%d)", config.Post.MinWords, config.Post.MaxWords)
	}

	return nil
}
