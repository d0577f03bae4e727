package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"agentchat/internal/attach"
	"agentchat/internal/events"
	"agentchat/internal/message"
	"agentchat/internal/render"
	"agentchat/internal/view"
)

func execMain(root rootArgs, args []string) {
	if err := runExec(root, args, os.Stdout); err != nil {
		exitErr("exec", err)
	}
}

func runExec(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	var (
		overrides   stringSlice
		attachments stringSlice
		account     string
		sessionID   string
		timeoutSecs int
		jsonOutput  bool
	)
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	fs.Var(&attachments, "attach", "Attach a file to the message (repeatable; "+strings.Join(attach.Extensions(), " ")+")")
	fs.StringVar(&account, "account", "", "Account id (default from config)")
	fs.StringVar(&sessionID, "session", "", "Session id (default from config)")
	fs.IntVar(&timeoutSecs, "timeout", 300, "Seconds to wait for the turn to finish")
	fs.BoolVar(&jsonOutput, "json", false, "Print committed records as JSON lines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "-" {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return fmt.Errorf("read prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	accepted, rejected := attach.Filter(attachments)
	for _, r := range rejected {
		fmt.Fprintf(os.Stderr, "skip attachment %s\n", r)
	}
	if prompt == "" && len(accepted) == 0 {
		return errors.New("prompt is required (pass text or - to read stdin)")
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
	if timeoutSecs <= 0 {
		timeoutSecs = 300
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	rt, err := openRuntime(ctx, cfg, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	sub := rt.queue.Subscribe()
	runErr := make(chan error, 1)
	go func() { runErr <- rt.ctrl.Run(ctx, rt.conn) }()

	files := make([]message.File, 0, len(accepted))
	for _, f := range accepted {
		if err := rt.upload(ctx, f.Path, f.MimeType); err != nil {
			fmt.Fprintf(os.Stderr, "skip attachment %s: %v\n", f.Path, err)
			continue
		}
		files = append(files, f.File())
	}

	start := len(rt.ctrl.Snapshot().History)
	if err := rt.ctrl.Submit(ctx, prompt, files); err != nil {
		return err
	}
	turnErr := waitTurn(ctx, sub, runErr)

	// 跳过本次乐观写入的用户消息，只输出助手产生的记录。
	records := rt.ctrl.Snapshot().History
	if len(records) > start+1 {
		records = records[start+1:]
	} else {
		records = nil
	}
	if err := printRecords(out, records, cfg.Width, jsonOutput); err != nil {
		return err
	}
	return turnErr
}

// waitTurn 阻塞到本轮结束：done 返回 nil，中断或断线返回错误。
func waitTurn(ctx context.Context, sub <-chan events.Event, runErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for reply: %w", ctx.Err())
		case err := <-runErr:
			if err == nil {
				return errors.New("session loop stopped")
			}
			return err
		case ev, ok := <-sub:
			if !ok {
				return errors.New("event queue closed")
			}
			switch ev.Type {
			case events.EventTurnCompleted:
				return nil
			case events.EventTurnFailed:
				reason := "unknown"
				if p, ok := ev.Payload.(events.TurnFailed); ok {
					reason = p.Reason
				}
				return fmt.Errorf("turn failed: %s", reason)
			case events.EventTransportError:
				if p, ok := ev.Payload.(events.TransportError); ok {
					return fmt.Errorf("transport: %s", p.Error)
				}
				return errors.New("transport error")
			}
		}
	}
}

func printRecords(out io.Writer, records []message.Record, width int, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}
	items := make([]view.Node, 0, len(records))
	for _, rec := range records {
		if n, ok := message.ToNode(rec, rec.ID); ok {
			items = append(items, n)
		}
	}
	res, err := render.New(render.Options{Width: width}).Render(view.Container{ID: "exec", Items: items})
	if err != nil || res.Empty() {
		return err
	}
	_, err = fmt.Fprintln(out, strings.Join(res.PlainStrings(), "\n"))
	return err
}
