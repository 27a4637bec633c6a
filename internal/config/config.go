// Package config assembles the server configuration from defaults, an
// optional YAML file, the environment and command-line flags, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/erazemk/upcycle/internal/chat"
)

// Config is the complete server configuration.
type Config struct {
	DBPath    string     `yaml:"db"`
	Addr      string     `yaml:"addr"`
	UploadDir string     `yaml:"upload_dir"`
	LogPath   string     `yaml:"log"`
	Chat      ChatConfig `yaml:"chat"`
}

// ChatConfig configures the chat widget's language model.
type ChatConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	Temperature  float64       `yaml:"temperature"`
	MaxTokens    int           `yaml:"max_tokens"`
	Timeout      time.Duration `yaml:"timeout"`
	SystemPrompt string        `yaml:"system_prompt"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		DBPath:    "upcycle.sqlite3",
		Addr:      ":8080",
		UploadDir: "uploads",
		Chat: ChatConfig{
			BaseURL:      chat.DefaultBaseURL,
			Model:        chat.DefaultModel,
			Temperature:  chat.DefaultTemperature,
			MaxTokens:    chat.DefaultMaxTokens,
			Timeout:      chat.DefaultTimeout,
			SystemPrompt: chat.DefaultSystemPrompt,
		},
	}
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("upload directory is empty"))
	}

	u, err := url.Parse(c.Chat.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("chat base URL %q is not an http(s) URL", c.Chat.BaseURL))
	}
	if c.Chat.Model == "" {
		errs = append(errs, errors.New("chat model is empty"))
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, fmt.Errorf("chat temperature %v out of range [0, 2]", c.Chat.Temperature))
	}
	if c.Chat.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("chat max tokens must be positive, got %d", c.Chat.MaxTokens))
	}
	if c.Chat.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("chat timeout must be positive, got %s", c.Chat.Timeout))
	}

	return errors.Join(errs...)
}

// Client returns the settings for chat.NewGroqClient.
func (c ChatConfig) Client() chat.Config {
	return chat.Config{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}
}
