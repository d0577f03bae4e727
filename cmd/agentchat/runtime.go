package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"agentchat/internal/api"
	"agentchat/internal/config"
	"agentchat/internal/events"
	"agentchat/internal/history"
	"agentchat/internal/logger"
	"agentchat/internal/session"
	"agentchat/internal/transport"
)

// loadConfig 读取配置并依次应用根命令与子命令的 -c 覆盖。
func loadConfig(root rootArgs, overrides []string) (config.Config, error) {
	cfg, err := config.Load(root.cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	cfg = config.ApplyKVOverrides(cfg, prependOverrides(root.overrides, overrides))
	logger.Configure(cfg.LogLevel)
	return cfg, nil
}

func newAPIClient(cfg config.Config) *api.Client {
	return api.New(cfg.APIURL, cfg.APIKey, cfg.AccessToken)
}

// newHistoryCache 返回带 JSONL 镜像的缓存；目录不可用时退化为纯内存缓存。
func newHistoryCache(cfg config.Config) *history.Cache {
	dir := strings.TrimSpace(cfg.HistoryDir)
	if dir == "" {
		d, err := history.DefaultDir()
		if err != nil {
			log.Warnf("history mirror disabled: %v", err)
			return history.NewCache(nil)
		}
		dir = d
	}
	return history.NewCache(&history.Store{Dir: dir})
}

// chatRuntime 把一个会话所需的连接、事件队列与控制器串在一起。
type chatRuntime struct {
	cfg     config.Config
	key     history.Key
	api     *api.Client
	cache   *history.Cache
	conn    *transport.Conn
	queue   *events.EventQueue
	ctrl    *session.Controller
	closers []io.Closer
}

type runtimeOptions struct {
	// Hydrate 为 true 时先从历史接口拉取消息，失败则读取本地镜像。
	Hydrate bool
}

func openRuntime(ctx context.Context, cfg config.Config, opts runtimeOptions) (*chatRuntime, error) {
	if err := cfg.Ready(); err != nil {
		return nil, err
	}
	rt := &chatRuntime{
		cfg:   cfg,
		key:   history.Key{AccountID: cfg.AccountID, SessionID: cfg.SessionID},
		api:   newAPIClient(cfg),
		cache: newHistoryCache(cfg),
		queue: events.NewEventQueue(256),
	}
	eqLog, eqCloser := events.NewQueueLogger("eq", events.DefaultEQLogPath)
	rt.queue.SetLogger(eqLog)
	if eqCloser != nil {
		rt.closers = append(rt.closers, eqCloser)
	}

	header := http.Header{}
	if token := strings.TrimSpace(cfg.AccessToken); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, err := transport.Dial(ctx, transport.Options{
		URL:      cfg.WSURL,
		APIKey:   cfg.APIKey,
		Header:   header,
		QueueLog: events.DefaultSQLogPath,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.conn = conn
	rt.ctrl = session.New(session.Options{
		Key:    rt.key,
		Cache:  rt.cache,
		Sender: conn,
		Events: rt.queue,
	})
	if opts.Hydrate {
		rt.hydrate(ctx)
	}
	return rt, nil
}

func (rt *chatRuntime) hydrate(ctx context.Context) {
	records, err := rt.api.ListMessages(ctx, rt.key.AccountID, rt.key.SessionID)
	if err == nil {
		rt.ctrl.Hydrate(records)
		log.WithField(logger.SessionField, rt.key.SessionID).Infof("loaded %d messages from history api", len(records))
		return
	}
	log.WithError(err).Warn("history api unavailable, using local mirror")
	n, lerr := rt.cache.Load(rt.key)
	if lerr != nil {
		log.WithError(lerr).Warn("load local history failed")
		return
	}
	log.WithField(logger.SessionField, rt.key.SessionID).Infof("loaded %d messages from local mirror", n)
}

// upload 把附件上传到当前会话。
func (rt *chatRuntime) upload(ctx context.Context, path, mimeType string) error {
	return rt.api.UploadFile(ctx, rt.key.SessionID, path, mimeType)
}

func (rt *chatRuntime) Close() {
	if rt.conn != nil {
		_ = rt.conn.Close()
	}
	if n := rt.queue.Dropped(); n > 0 {
		log.WithField(logger.SessionField, rt.key.SessionID).Warnf("%d events dropped by slow subscribers", n)
	}
	rt.queue.Close()
	for _, c := range rt.closers {
		_ = c.Close()
	}
}
