package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"agentchat/internal/transport"
)

func pingMain(root rootArgs, args []string) {
	if err := runPing(root, args, os.Stdout); err != nil {
		exitErr("ping", err)
	}
}

func runPing(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var overrides stringSlice
	var timeoutSeconds int
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	fs.IntVar(&timeoutSeconds, "timeout", 30, "Timeout seconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(root, overrides)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.APIKey) == "" && strings.TrimSpace(cfg.AccessToken) == "" {
		return errors.New("missing credentials: set AGENTCHAT_API_KEY or configure api_key in ~/.agentchat/config.toml")
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	user, err := newAPIClient(cfg).Me(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrUnauthorized) {
			return fmt.Errorf("credentials rejected: %w", err)
		}
		return err
	}
	name := user.Email
	if name == "" {
		name = user.ID
	}
	_, _ = fmt.Fprintf(out, "ok: %s\n", name)
	return nil
}
