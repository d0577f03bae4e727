package main

import (
	"fmt"
	"strings"
)

type rootArgs struct {
	cfgPath   string
	overrides []string
}

// parseRootArgs 只消费子命令之前的 -c/--config，其余参数原样交给子命令。
func parseRootArgs(args []string) (rootArgs, []string, error) {
	var root rootArgs
	i := 0
	for i < len(args) {
		name, value, inline := splitFlag(args[i])
		switch name {
		case "c", "config":
		default:
			return root, args[i:], nil
		}
		if !inline {
			if i+1 >= len(args) {
				return rootArgs{}, nil, fmt.Errorf("flag needs an argument: -%s", name)
			}
			value = args[i+1]
			i++
		}
		i++
		if name == "config" {
			root.cfgPath = value
			continue
		}
		if !strings.Contains(value, "=") {
			return rootArgs{}, nil, fmt.Errorf("invalid override %q, want key=value", value)
		}
		root.overrides = append(root.overrides, value)
	}
	return root, nil, nil
}

func splitFlag(arg string) (name, value string, inline bool) {
	if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
		return "", "", false
	}
	name = strings.TrimLeft(arg, "-")
	if idx := strings.IndexByte(name, '='); idx >= 0 {
		return name[:idx], name[idx+1:], true
	}
	return name, "", false
}

func prependOverrides(root []string, overrides []string) []string {
	merged := append([]string{}, root...)
	return append(merged, overrides...)
}

// stringSlice 收集可重复的 -c / -attach 参数。
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}
