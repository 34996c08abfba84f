package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"policy-guide/internal/assistant"
	"policy-guide/internal/llm"
	"policy-guide/internal/render"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultSidebarBreakpoint is in terminal columns.
const DefaultSidebarBreakpoint = 100

type AppConfig struct {
	Home       string
	ConfigPath string
	DBPath     string
	LogPath    string
	ExportDir  string
	ResetDB    bool
	Debug      bool

	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	SidebarBreakpoint int
	GlamourStyle      string
	Starters          []assistant.Starter
}

// FileConfig is the YAML shape of <home>/config.yaml.
type FileConfig struct {
	Provider          string              `yaml:"provider"`
	Model             string              `yaml:"model"`
	BaseURL           string              `yaml:"base_url"`
	Timeout           time.Duration       `yaml:"timeout"`
	SidebarBreakpoint int                 `yaml:"sidebar_breakpoint"`
	GlamourStyle      string              `yaml:"glamour_style"`
	ExportDir         string              `yaml:"export_dir"`
	Starters          []assistant.Starter `yaml:"starters"`
}

func (c *AppConfig) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Home, "home", "", "data directory (default $POLICY_GUIDE_HOME or ~/.local/share/policy-guide)")
	fs.StringVar(&c.ConfigPath, "config", "", "path to YAML config file (default <home>/config.yaml)")
	fs.StringVar(&c.DBPath, "db-path", "", "path to SQLite state file")
	fs.StringVar(&c.LogPath, "log-path", "", "path to diagnostic log file")
	fs.StringVar(&c.ExportDir, "export-dir", "", "override history export directory")
	fs.BoolVar(&c.ResetDB, "reset", false, "delete the state file before starting")
	fs.BoolVar(&c.Debug, "debug", false, "enable debug logging")
	fs.StringVar(&c.Provider, "provider", "", "text generation provider: gemini, openai or ollama")
	fs.StringVar(&c.Model, "model", "", "model identifier")
	fs.StringVar(&c.BaseURL, "base-url", "", "override provider endpoint")
	fs.DurationVar(&c.Timeout, "timeout", 0, "per-request timeout (0 waits indefinitely)")
	fs.IntVar(&c.SidebarBreakpoint, "sidebar-breakpoint", 0, "terminal width at or below which the sidebar starts collapsed")
	fs.StringVar(&c.GlamourStyle, "style", "", "glamour style for rendered guidance")
}

// Resolve fills everything the flags left unset from the environment, the
// config file and defaults, in that order, and creates the data directory.
func (c *AppConfig) Resolve(fs *pflag.FlagSet) error {
	var err error
	c.Home, err = DetectHome(c.Home)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Home, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if c.ConfigPath == "" {
		c.ConfigPath = filepath.Join(c.Home, "config.yaml")
	}
	file, err := LoadFile(c.ConfigPath)
	if err != nil {
		return err
	}

	changed := func(name string) bool { return fs != nil && fs.Changed(name) }

	if !changed("provider") {
		c.Provider = firstNonEmpty(os.Getenv("POLICY_GUIDE_PROVIDER"), file.Provider, llm.ProviderGemini)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if !changed("model") {
		c.Model = firstNonEmpty(os.Getenv("POLICY_GUIDE_MODEL"), file.Model, llm.DefaultModel(c.Provider))
	}
	if !changed("base-url") {
		c.BaseURL = firstNonEmpty(baseURLFromEnv(c.Provider), file.BaseURL)
	}
	if !changed("timeout") && file.Timeout > 0 {
		c.Timeout = file.Timeout
	}
	if !changed("sidebar-breakpoint") {
		c.SidebarBreakpoint = file.SidebarBreakpoint
	}
	if c.SidebarBreakpoint <= 0 {
		c.SidebarBreakpoint = DefaultSidebarBreakpoint
	}
	if !changed("style") {
		c.GlamourStyle = firstNonEmpty(os.Getenv("GLAMOUR_STYLE"), file.GlamourStyle, render.DefaultStyle)
	}
	if !changed("export-dir") {
		c.ExportDir = file.ExportDir
	}
	c.Starters = validStarters(file.Starters)
	c.APIKey = APIKeyFromEnv(c.Provider)

	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.Home, "state.sqlite")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.Home, "policy-guide.log")
	}
	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	return nil
}

func DetectHome(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	if fromEnv := os.Getenv("POLICY_GUIDE_HOME"); fromEnv != "" {
		return filepath.Clean(fromEnv), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "policy-guide"), nil
}

// LoadFile reads the YAML config. A missing file is an empty config.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, nil
		}
		return fc, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func APIKeyFromEnv(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case llm.ProviderOllama:
		return ""
	default:
		return firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	}
}

func baseURLFromEnv(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_BASE_URL")
	case llm.ProviderOllama:
		return os.Getenv("OLLAMA_HOST")
	default:
		return ""
	}
}

func validStarters(in []assistant.Starter) []assistant.Starter {
	out := make([]assistant.Starter, 0, len(in))
	for _, s := range in {
		s.Prompt = strings.TrimSpace(s.Prompt)
		if s.Prompt == "" {
			continue
		}
		if strings.TrimSpace(s.Label) == "" {
			s.Label = s.Prompt
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
