// Load envs from .env
// Load YAML config
// Override from environment
// Provide default values
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	JobSearch JobSearch `yaml:"job_search"`
	Sites     Sites     `yaml:"sites" validate:"required,min=1,dive"`

	// Contact answers the contact-information section, keyed by input name.
	Contact map[string]string `yaml:"contact"`
	// Experience is carried for the form driver but no section reads it yet.
	Experience map[string]any `yaml:"experience"`

	Email       EmailConfig       `yaml:"email_config"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	RecordStore RecordStoreConfig `yaml:"record_store"`
	Browser     BrowserConfig     `yaml:"browser"`

	RunTimeout      time.Duration  `yaml:"run_timeout" validate:"gt=0"`
	MetricsTextfile string         `yaml:"metrics_textfile"`
	Schedule        ScheduleConfig `yaml:"schedule"`
}

type JobSearch struct {
	Positions      []string `yaml:"positions" validate:"required,min=1,dive,required"`
	Locations      []string `yaml:"locations" validate:"required,min=1,dive,required"`
	TitleBlacklist []string `yaml:"title_blacklist"`
}

type SiteConfig struct {
	Name            string `yaml:"-" validate:"required"`
	Enabled         bool   `yaml:"enabled"`
	Apply           bool   `yaml:"apply"`
	MaxApplications int    `yaml:"max_applications" validate:"gte=0"`
}

// Sites keeps the order in which sites appear in the file; that order is the
// run order.
type Sites []SiteConfig

func (s *Sites) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: sites must be a mapping of site id to settings", node.Line)
	}
	out := make(Sites, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var sc SiteConfig
		if err := node.Content[i+1].Decode(&sc); err != nil {
			return fmt.Errorf("site %q: %w", node.Content[i].Value, err)
		}
		sc.Name = node.Content[i].Value
		out = append(out, sc)
	}
	*s = out
	return nil
}

// Enabled returns the enabled sites in file order.
func (s Sites) Enabled() []SiteConfig {
	var out []SiteConfig
	for _, sc := range s {
		if sc.Enabled {
			out = append(out, sc)
		}
	}
	return out
}

type EmailConfig struct {
	SenderEmail    string     `yaml:"sender_email" validate:"omitempty,email"`
	SenderPassword string     `yaml:"sender_password"`
	RecipientEmail Recipients `yaml:"recipient_email" validate:"dive,email"`
}

// Complete reports whether every credential needed to send is present.
func (e EmailConfig) Complete() bool {
	return e.SenderEmail != "" && e.SenderPassword != "" && len(e.RecipientEmail) > 0
}

// Recipients accepts either a single address or a list of addresses.
type Recipients []string

func (r *Recipients) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*r = splitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*r = list
		return nil
	default:
		return fmt.Errorf("line %d: recipient_email must be a string or a list", node.Line)
	}
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

type RecordStoreConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=file postgres redis"`
	DataDir     string `yaml:"data_dir"`
	DatabaseURL string `yaml:"database_url" validate:"required_if=Backend postgres"`
	RedisURL    string `yaml:"redis_url" validate:"required_if=Backend redis"`
}

type BrowserConfig struct {
	Headless    *bool         `yaml:"headless"`
	WaitTimeout time.Duration `yaml:"wait_timeout" validate:"gt=0"`
	SettleDelay time.Duration `yaml:"settle_delay" validate:"gte=0"`
	CookiesPath string        `yaml:"cookies_path"`

	// ScreenshotDir, when set, receives a screenshot of every failed application.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

type ScheduleConfig struct {
	Interval   time.Duration `yaml:"interval" validate:"gt=0"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	ListenAddr string        `yaml:"listen_addr"`
	// Command is the one-shot binary and its arguments.
	Command []string `yaml:"command"`
}

// Load reads .env, the YAML file at path and the environment, then fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load without the file system: YAML bytes plus the environment.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		c.Email.SenderEmail = v
	}
	if v := os.Getenv("SENDER_PASSWORD"); v != "" {
		c.Email.SenderPassword = v
	}
	if v := os.Getenv("RECIPIENT_EMAIL"); v != "" {
		c.Email.RecipientEmail = splitList(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.RecordStore.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RecordStore.RedisURL = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.RecordStore.Backend == "" {
		c.RecordStore.Backend = "file"
	}
	if c.RecordStore.DataDir == "" {
		c.RecordStore.DataDir = "data"
	}
	if c.Browser.WaitTimeout == 0 {
		c.Browser.WaitTimeout = 10 * time.Second
	}
	if c.Browser.SettleDelay == 0 {
		c.Browser.SettleDelay = 3 * time.Second
	}
	if c.RunTimeout == 0 {
		c.RunTimeout = 10 * time.Minute
	}
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = 30 * time.Minute
	}
	if c.Schedule.Timeout == 0 {
		c.Schedule.Timeout = 5 * time.Minute
	}
	if c.Schedule.ListenAddr == "" {
		c.Schedule.ListenAddr = ":8080"
	}
}

// Validate checks struct tags and reports every violation at once.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
