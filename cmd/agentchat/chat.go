package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"agentchat/internal/attach"
	"agentchat/internal/render"
	"agentchat/internal/transport"
	"agentchat/internal/tui"
)

func chatMain(root rootArgs, args []string) {
	if err := runChat(root, args); err != nil {
		exitErr("chat", err)
	}
}

func runChat(root rootArgs, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	var (
		overrides  stringSlice
		account    string
		sessionID  string
		prompt     string
		noMarkdown bool
	)
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	fs.StringVar(&account, "account", "", "Account id (default from config)")
	fs.StringVar(&sessionID, "session", "", "Session id (default from config)")
	fs.StringVar(&prompt, "prompt", "", "Initial message to send")
	fs.BoolVar(&noMarkdown, "no-markdown", false, "Render assistant replies as plain text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if prompt == "" && fs.NArg() > 0 {
		prompt = strings.Join(fs.Args(), " ")
	}

	cfg, err := loadConfig(root, overrides)
	if err != nil {
		return err
	}
	if account != "" {
		cfg.AccountID = account
	}
	if sessionID != "" {
		cfg.SessionID = sessionID
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	rt, err := openRuntime(ctx, cfg, runtimeOptions{Hydrate: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	sub := rt.queue.Subscribe()
	go func() {
		if err := rt.ctrl.Run(ctx, rt.conn); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Warn("session loop stopped")
		}
	}()

	res, err := tui.Run(tui.Options{
		Controller:    rt.ctrl,
		Events:        sub,
		Renderer:      render.New(render.Options{Width: cfg.Width, Markdown: cfg.Markdown && !noMarkdown}),
		Title:         "session " + cfg.SessionID,
		InitialPrompt: prompt,
		Upload: func(ctx context.Context, f attach.FileInfo) error {
			return rt.upload(ctx, f.Path, f.MimeType)
		},
	})
	cancel()
	if err != nil {
		return fmt.Errorf("program exit: %w", err)
	}
	if res.ReauthRequired {
		return fmt.Errorf("session %s: %w", cfg.SessionID, transport.ErrUnauthorized)
	}
	fmt.Printf("Session %s: %d messages. Continue with agentchat --session %s\n",
		cfg.SessionID, len(res.Snapshot.History), cfg.SessionID)
	return nil
}
