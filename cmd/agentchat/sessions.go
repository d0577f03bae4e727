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

	"agentchat/internal/api"
	"agentchat/internal/config"

	"github.com/sahilm/fuzzy"
)

func sessionsMain(root rootArgs, args []string) {
	if err := runSessions(root, args, os.Stdout); err != nil {
		exitErr("sessions", err)
	}
}

func runSessions(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	var (
		overrides stringSlice
		account   string
		filter    string
		create    string
		summary   string
		assistant string
		use       bool
	)
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	fs.StringVar(&account, "account", "", "Account id (default from config)")
	fs.StringVar(&filter, "filter", "", "Fuzzy filter on title and summary")
	fs.StringVar(&create, "new", "", "Create a session with this title instead of listing")
	fs.StringVar(&summary, "summary", "", "Summary for --new")
	fs.StringVar(&assistant, "assistant", "", "Assistant id for --new")
	fs.BoolVar(&use, "use", false, "Save the created session as the default in the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(root, overrides)
	if err != nil {
		return err
	}
	if account == "" {
		account = cfg.AccountID
	}
	if account == "" {
		return errors.New("account is required (--account or account_id in config)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client := newAPIClient(cfg)

	if strings.TrimSpace(create) != "" {
		s, err := client.CreateSession(ctx, api.CreateSession{
			Title:       create,
			Summary:     summary,
			AccountID:   account,
			AssistantID: assistant,
		})
		if err != nil {
			return err
		}
		if use {
			if err := useSession(root.cfgPath, account, s.ID); err != nil {
				return fmt.Errorf("save default session: %w", err)
			}
		}
		_, err = fmt.Fprintf(out, "%s\t%s\n", s.ID, s.Title)
		return err
	}

	list, err := client.ListSessions(ctx, account)
	if err != nil {
		return err
	}
	for _, s := range filterSessions(list, filter) {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", s.ID, s.Title); err != nil {
			return err
		}
	}
	return nil
}

// useSession 把账号与会话写回配置文件，-c 覆盖和环境变量不会落盘。
func useSession(path, account, sessionID string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	cfg.AccountID = account
	cfg.SessionID = sessionID
	return config.Save(path, cfg)
}

type sessionSource []api.Session

func (s sessionSource) String(i int) string {
	return s[i].Title + " " + s[i].Summary
}

func (s sessionSource) Len() int { return len(s) }

// filterSessions 按模糊匹配得分排序；空查询保持接口返回顺序。
func filterSessions(list []api.Session, query string) []api.Session {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}
	matches := fuzzy.FindFrom(query, sessionSource(list))
	out := make([]api.Session, 0, len(matches))
	for _, m := range matches {
		out = append(out, list[m.Index])
	}
	return out
}

func accountsMain(root rootArgs, args []string) {
	if err := runAccounts(root, args, os.Stdout); err != nil {
		exitErr("accounts", err)
	}
}

func runAccounts(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("accounts", flag.ContinueOnError)
	var (
		overrides   stringSlice
		create      string
		description string
	)
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	fs.StringVar(&create, "new", "", "Create an account with this name instead of listing")
	fs.StringVar(&description, "description", "", "Description for --new")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(root, overrides)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client := newAPIClient(cfg)

	if strings.TrimSpace(create) != "" {
		a, err := client.CreateAccount(ctx, api.CreateAccount{Name: create, Description: description})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\t%s\n", a.ID, a.Name)
		return err
	}
	list, err := client.ListAccounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range list {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", a.ID, a.Name); err != nil {
			return err
		}
	}
	return nil
}
