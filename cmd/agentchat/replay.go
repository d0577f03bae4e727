package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"agentchat/internal/render"
	"agentchat/internal/stream"
	"agentchat/internal/view"
	"agentchat/internal/wire"
)

func replayMain(args []string) {
	if err := runReplay(args, os.Stdin, os.Stdout); err != nil {
		exitErr("replay", err)
	}
}

// runReplay 把录制的信封（每行一个 JSON）依次送入状态机并打印渲染结果。
// -tree 时输入是一棵组件描述符（JSON），直接解码渲染。
func runReplay(args []string, stdin io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	var (
		width    int
		steps    bool
		markdown bool
		tree     bool
		asJSON   bool
	)
	fs.IntVar(&width, "width", render.DefaultWidth, "Render width")
	fs.BoolVar(&steps, "steps", false, "Print the tree after every envelope")
	fs.BoolVar(&markdown, "markdown", false, "Render finished assistant bubbles as markdown")
	fs.BoolVar(&tree, "tree", false, "Input is a component descriptor tree instead of envelopes")
	fs.BoolVar(&asJSON, "json", false, "Print the final tree as a component descriptor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: agentchat replay [flags] <file.jsonl|->")
	}
	if tree && steps {
		return errors.New("--steps cannot be combined with --tree")
	}

	src := stdin
	if name := fs.Arg(0); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	renderer := render.New(render.Options{Width: width, Markdown: markdown})
	if tree {
		raw, err := io.ReadAll(src)
		if err != nil {
			return err
		}
		node, err := view.DecodeTree(raw)
		if err != nil {
			return err
		}
		if asJSON {
			return printDescriptor(out, node)
		}
		return printNode(out, renderer, node)
	}

	var (
		reducer stream.Reducer
		state   stream.State
		applied int
	)
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		env, err := wire.Parse([]byte(line))
		if err != nil {
			log.WithError(err).Warnf("skip line %d", lineNo)
			continue
		}
		state = reducer.Step(state, env)
		applied++
		if steps {
			fmt.Fprintf(out, "#%d %s %s\n", applied, env.Event, env.PayloadType())
			if err := printState(out, renderer, state); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if asJSON {
		return printDescriptor(out, stateTree(state))
	}
	if !steps {
		if err := printState(out, renderer, state); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "envelopes=%d units=%d complete=%t\n", applied, len(state.Units()), state.Complete())
	return err
}

func stateTree(state stream.State) view.Container {
	return view.Container{ID: "replay", Items: state.Units()}
}

func printState(out io.Writer, renderer *render.Renderer, state stream.State) error {
	return printNode(out, renderer, stateTree(state))
}

func printNode(out io.Writer, renderer *render.Renderer, node view.Node) error {
	res, err := renderer.Render(node)
	if err != nil {
		return err
	}
	for _, line := range res.PlainStrings() {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func printDescriptor(out io.Writer, node view.Node) error {
	d, err := view.ToDescriptor(node)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
