package main

import (
	"fmt"
	"os"

	"agentchat/internal/logger"
)

var log = logger.Named("cli")

func main() {
	logger.Configure("info")
	if logFile, _, err := logger.SetupFile(logger.DefaultLogPath); err != nil {
		log.Warnf("failed to initialize log file: %v", err)
	} else {
		defer logFile.Close()
	}

	root, rest, err := parseRootArgs(os.Args[1:])
	if err != nil {
		exitErr("parse args", err)
	}
	if len(rest) > 0 {
		switch rest[0] {
		case "chat":
			chatMain(root, rest[1:])
			return
		case "exec":
			execMain(root, rest[1:])
			return
		case "replay":
			replayMain(rest[1:])
			return
		case "sessions":
			sessionsMain(root, rest[1:])
			return
		case "assistants":
			assistantsMain(root, rest[1:])
			return
		case "accounts":
			accountsMain(root, rest[1:])
			return
		case "ping":
			pingMain(root, rest[1:])
			return
		case "completion":
			completionMain(rest[1:])
			return
		}
	}
	chatMain(root, rest)
}

// exitErr 同时写日志与 stderr；日志文件启用时 stderr 是用户唯一能看到的输出。
func exitErr(cmd string, err error) {
	log.WithError(err).Errorf("%s failed", cmd)
	fmt.Fprintf(os.Stderr, "agentchat %s: %v\n", cmd, err)
	os.Exit(1)
}
