// Package session 是单个 (account, session) 的聊天控制器。
//
// 控制器持有流式状态机的状态与已提交索引：入站信封按到达顺序推进状态，
// done 时把本轮完成的单元转换为消息记录写入历史缓存。
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"agentchat/internal/events"
	"agentchat/internal/history"
	"agentchat/internal/logger"
	"agentchat/internal/message"
	"agentchat/internal/stream"
	"agentchat/internal/transport"
	"agentchat/internal/view"
	"agentchat/internal/wire"
)

var log = logger.Named("session")

// Sender 发送出站帧，transport.Conn 满足该接口。
type Sender interface {
	Send(ctx context.Context, out wire.Outbound) error
}

// Source 是有序的入站信封来源，transport.Conn 满足该接口。
type Source interface {
	Envelopes() <-chan wire.Envelope
	Errors() <-chan error
}

// Publisher 接收控制器通知，events.EventQueue 满足该接口。
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Options 配置 Controller。Cache 为空时使用独立的内存缓存。
type Options struct {
	Key     history.Key
	Cache   *history.Cache
	Sender  Sender
	Events  Publisher
	Reducer stream.Reducer
	Builder message.Builder
}

// Controller 串行处理一个会话的信封与用户提交。
type Controller struct {
	mu      sync.Mutex
	key     history.Key
	cache   *history.Cache
	sender  Sender
	events  Publisher
	reducer stream.Reducer
	builder message.Builder

	state   stream.State
	flushed int
}

// New 创建控制器。
func New(opts Options) *Controller {
	cache := opts.Cache
	if cache == nil {
		cache = history.NewCache(nil)
	}
	return &Controller{
		key:     opts.Key,
		cache:   cache,
		sender:  opts.Sender,
		events:  opts.Events,
		reducer: opts.Reducer,
		builder: opts.Builder,
	}
}

// HandleEnvelope 应用一条入站信封并返回新的快照。
func (c *Controller) HandleEnvelope(env wire.Envelope) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case env.Event == wire.EventConnectionEstablished:
		c.state = c.reducer.Step(c.state, env)
		c.flushed = 0
	case env.Event == wire.EventAgentResponse && env.PayloadType() == wire.PayloadError:
		reason := "server error"
		if p, err := env.Payload(); err == nil {
			if e, ok := p.(wire.Error); ok && strings.TrimSpace(e.Message) != "" {
				reason = e.Message
			}
		}
		log.WithField(logger.SessionField, c.key.SessionID).Warn("turn failed: " + reason)
		c.failLocked(reason)
	default:
		wasComplete := c.state.Complete()
		c.state = c.reducer.Step(c.state, env)
		if env.Event == wire.EventAgentResponse && env.PayloadType() == wire.PayloadDone {
			units, records := c.commitLocked()
			if !wasComplete || units > 0 {
				c.publish(events.EventTurnCompleted, events.TurnCompleted{Units: units, Records: records})
			}
		}
	}
	return c.publishViewLocked()
}

// Submit 乐观写入用户消息并发送 ingest_message。
// 文本与附件都为空时不做任何事。上一轮仍未结束时先强制结束并提交其内容。
func (c *Controller) Submit(ctx context.Context, text string, files []message.File) error {
	text = strings.TrimSpace(text)
	if text == "" && len(files) == 0 {
		return nil
	}

	c.mu.Lock()
	if !c.state.Complete() {
		c.failLocked("interrupted by a new message")
	}
	rec := c.builder.Build(message.BuildInput{IsUser: true, Text: text, Files: files})
	c.cache.Append(c.key, rec)
	c.publish(events.EventUserSubmitted, events.UserSubmitted{RecordID: rec.ID, Content: text, Attachments: len(files)})
	c.publishViewLocked()
	c.mu.Unlock()

	if c.sender == nil {
		return errors.New("session has no sender")
	}
	out := wire.NewIngest(c.key.SessionID, text, message.WireAttachments(rec.Attachments()))
	if err := c.sender.Send(ctx, out); err != nil {
		c.HandleTransportError(err)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// HandleTransportError 强制结束进行中的单元并保留部分内容。
// 凭据失效时额外发出 EventReauthRequired。
func (c *Controller) HandleTransportError(err error) Snapshot {
	if err == nil {
		return c.Snapshot()
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	unauthorized := errors.Is(err, transport.ErrUnauthorized)
	log.WithError(err).WithField(logger.SessionField, c.key.SessionID).Warn("transport error")
	if !c.state.Complete() || c.flushed < len(c.state.Finalized) {
		c.failLocked(err.Error())
	}
	c.publish(events.EventTransportError, events.TransportError{Error: err.Error(), Unauthorized: unauthorized})
	if unauthorized {
		c.publish(events.EventReauthRequired, nil)
	}
	return c.publishViewLocked()
}

// Run 按到达顺序处理 src 的信封，直到 ctx 取消或连接断开。
func (c *Controller) Run(ctx context.Context, src Source) error {
	envs, errs := src.Envelopes(), src.Errors()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-envs:
			if !ok {
				err := transport.ErrClosed
				select {
				case e := <-errs:
					err = e
				default:
				}
				c.HandleTransportError(err)
				return err
			}
			c.HandleEnvelope(env)
		case err := <-errs:
			// 错误之前到达的信封先处理完，保证顺序。
			drainEnvelopes(envs, c.HandleEnvelope)
			c.HandleTransportError(err)
			return err
		}
	}
}

func drainEnvelopes(envs <-chan wire.Envelope, handle func(wire.Envelope) Snapshot) {
	for {
		select {
		case env, ok := <-envs:
			if !ok {
				return
			}
			handle(env)
		default:
			return
		}
	}
}

// Hydrate 用历史接口的结果填充缓存；缓存已有记录时返回 false。
func (c *Controller) Hydrate(records []message.Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.cache.Replace(c.key, records)
	if ok {
		c.publishViewLocked()
	}
	return ok
}

// Complete 在没有进行中的单元时返回 true。
func (c *Controller) Complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Complete()
}

// Snapshot 返回当前可渲染的视图。
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// failLocked 强制结束当前单元，提交部分内容并发出 EventTurnFailed。
func (c *Controller) failLocked(reason string) {
	c.state = stream.ForceFinalize(c.state)
	units, _ := c.commitLocked()
	c.publish(events.EventTurnFailed, events.TurnFailed{Reason: reason, Partial: units})
}

// commitLocked 把上次提交之后完成的单元写入历史。
func (c *Controller) commitLocked() (units, records int) {
	if c.flushed > len(c.state.Finalized) {
		c.flushed = len(c.state.Finalized)
	}
	pending := c.state.Finalized[c.flushed:]
	c.flushed = len(c.state.Finalized)
	if len(pending) == 0 {
		return 0, 0
	}
	recs := c.builder.FromUnits(pending)
	c.cache.Append(c.key, recs...)
	return len(pending), len(recs)
}

func (c *Controller) snapshotLocked() Snapshot {
	pending := c.state.Finalized[min(c.flushed, len(c.state.Finalized)):]
	return Snapshot{
		Key:       c.key,
		History:   c.cache.List(c.key),
		Finalized: append([]view.Node(nil), pending...),
		Current:   c.state.Current,
		Complete:  c.state.Complete(),
	}
}

func (c *Controller) publishViewLocked() Snapshot {
	snap := c.snapshotLocked()
	c.publish(events.EventViewUpdated, snap)
	return snap
}

func (c *Controller) publish(typ events.EventType, payload any) {
	if c.events == nil {
		return
	}
	err := c.events.Publish(context.Background(), events.Event{
		Type:      typ,
		SessionID: c.key.SessionID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	if err != nil && !errors.Is(err, events.ErrEventQueueClosed) {
		log.WithError(err).WithField("type", typ).Debug("publish event failed")
	}
}
