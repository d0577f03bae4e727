package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	if len(overrides) == 0 {
		return cfg
	}
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "ws_url":
			cfg.WSURL = val
		case "api_url":
			cfg.APIURL = val
		case "api_key":
			cfg.APIKey = val
		case "access_token":
			cfg.AccessToken = val
		case "account_id":
			cfg.AccountID = val
		case "session_id":
			cfg.SessionID = val
		case "log_level":
			cfg.LogLevel = val
		case "history_dir":
			cfg.HistoryDir = val
		case "width":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.Width = n
			}
		case "markdown":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.Markdown = b
			}
		}
	}
	return cfg
}
