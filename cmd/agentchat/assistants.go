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
)

func assistantsMain(root rootArgs, args []string) {
	if err := runAssistants(root, args, os.Stdout); err != nil {
		exitErr("assistants", err)
	}
}

// runAssistants 列出助手目录，输出的 id 可用于 sessions --new --assistant。
func runAssistants(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("assistants", flag.ContinueOnError)
	var (
		overrides  stringSlice
		category   string
		categories bool
		favorites  bool
		toggle     string
	)
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	fs.StringVar(&category, "category", "", "Only list assistants in this category")
	fs.BoolVar(&categories, "categories", false, "List assistant categories instead")
	fs.BoolVar(&favorites, "favorites", false, "Only list favorite assistants")
	fs.StringVar(&toggle, "favorite", "", "Add or remove an assistant id from favorites")
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

	switch {
	case categories:
		list, err := client.ListAssistantCategories(ctx)
		if err != nil {
			return err
		}
		for _, c := range list {
			if _, err := fmt.Fprintln(out, c); err != nil {
				return err
			}
		}
		return nil
	case strings.TrimSpace(toggle) != "":
		me, err := client.Me(ctx)
		if err != nil {
			return err
		}
		next, added := toggleFavorite(me.Profile.FavoriteAssistants, strings.TrimSpace(toggle))
		if _, err := client.SetFavoriteAssistants(ctx, next); err != nil {
			return err
		}
		verb := "removed"
		if added {
			verb = "added"
		}
		_, err = fmt.Fprintf(out, "%s %s (%d favorites)\n", verb, toggle, len(next))
		return err
	}

	var ids []string
	if favorites {
		me, err := client.Me(ctx)
		if err != nil {
			return err
		}
		if len(me.Profile.FavoriteAssistants) == 0 {
			return errors.New("no favorite assistants")
		}
		ids = me.Profile.FavoriteAssistants
	}
	list, err := client.ListAssistants(ctx, category, ids)
	if err != nil {
		return err
	}
	return printAssistants(out, list)
}

func printAssistants(out io.Writer, list []api.Assistant) error {
	for _, a := range list {
		line := a.ID + "\t" + a.Name
		if a.Category != "" {
			line += "\t" + a.Category
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// toggleFavorite 存在则移除，否则追加到末尾；返回新切片与是否为添加。
func toggleFavorite(current []string, id string) ([]string, bool) {
	next := make([]string, 0, len(current)+1)
	found := false
	for _, v := range current {
		if v == id {
			found = true
			continue
		}
		next = append(next, v)
	}
	if found {
		return next, false
	}
	return append(next, id), true
}
