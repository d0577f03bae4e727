package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultWSURL  = "ws://localhost:8000/ws"
	DefaultAPIURL = "http://localhost:8000"
	DefaultWidth  = 80
)

// Config is the only persisted config file schema.
type Config struct {
	WSURL       string `toml:"ws_url"`
	APIURL      string `toml:"api_url"`
	APIKey      string `toml:"api_key,omitempty"`
	AccessToken string `toml:"access_token,omitempty"`
	AccountID   string `toml:"account_id,omitempty"`
	SessionID   string `toml:"session_id,omitempty"`
	LogLevel    string `toml:"log_level,omitempty"`
	Width       int    `toml:"width,omitempty"`
	Markdown    bool   `toml:"markdown"`
	HistoryDir  string `toml:"history_dir,omitempty"`
	Source      string `toml:"-"`
}

func Default() Config {
	return Config{
		WSURL:    DefaultWSURL,
		APIURL:   DefaultAPIURL,
		LogLevel: "info",
		Width:    DefaultWidth,
		Markdown: true,
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".agentchat", "config.toml")
}

// Load 读取配置文件；文件不存在时使用默认值。环境变量总是覆盖文件内容。
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	return applyEnv(cfg), nil
}

// LoadFile 只读取配置文件，不应用环境变量；回写配置前使用，避免把环境中的凭据落盘。
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	for env, dst := range map[string]*string{
		"AGENTCHAT_WS_URL":       &cfg.WSURL,
		"AGENTCHAT_API_URL":      &cfg.APIURL,
		"AGENTCHAT_API_KEY":      &cfg.APIKey,
		"AGENTCHAT_ACCESS_TOKEN": &cfg.AccessToken,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	return cfg
}

// Ready 检查建立会话所需的字段。
func (c Config) Ready() error {
	switch {
	case strings.TrimSpace(c.WSURL) == "":
		return errors.New("ws_url is not configured")
	case strings.TrimSpace(c.APIKey) == "" && strings.TrimSpace(c.AccessToken) == "":
		return errors.New("api_key or access_token is required")
	case strings.TrimSpace(c.AccountID) == "":
		return errors.New("account_id is required")
	case strings.TrimSpace(c.SessionID) == "":
		return errors.New("session_id is required")
	}
	return nil
}
