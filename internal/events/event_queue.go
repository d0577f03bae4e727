package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"agentchat/internal/logger"
)

var (
	// ErrEventQueueClosed 表示事件队列已关闭。
	ErrEventQueueClosed = errors.New("event queue closed")
	// ErrEventDropped 表示事件被慢消费者丢弃。
	ErrEventDropped = errors.New("event dropped by slow subscriber")
)

// EventQueue 是 EQ，负责把会话控制器的通知广播给 UI 与命令行消费者。
// 发送不阻塞：订阅者缓存已满时该订阅者丢失这条事件，其他订阅者不受影响。
type EventQueue struct {
	mu     sync.RWMutex
	subs   []*subscriber
	buffer int
	closed bool
	log    *logger.LogEntry
}

type subscriber struct {
	ch      chan Event
	dropped atomic.Int64
}

// NewEventQueue 创建事件队列，buffer 是每个订阅者的缓存大小。
func NewEventQueue(buffer int) *EventQueue {
	if buffer <= 0 {
		buffer = 64
	}
	return &EventQueue{buffer: buffer, log: logger.Named("eq")}
}

// SetLogger 覆盖队列使用的 logger。
func (q *EventQueue) SetLogger(entry *logger.LogEntry) {
	if entry == nil {
		return
	}
	q.mu.Lock()
	q.log = entry
	q.mu.Unlock()
}

// Subscribe 订阅事件流。通道会在 Close 时关闭。
func (q *EventQueue) Subscribe() <-chan Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	sub := &subscriber{ch: make(chan Event, q.buffer)}
	q.subs = append(q.subs, sub)
	return sub.ch
}

// Publish 发布事件到所有订阅者。若有订阅者丢弃了事件，返回 ErrEventDropped。
// 读锁覆盖整个发送过程，Close 不会在发送途中关闭通道。
func (q *EventQueue) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrEventQueueClosed
	}
	logEvent(q.log, event)

	dropped := 0
	for _, sub := range q.subs {
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
			dropped++
		}
	}
	if dropped == 0 {
		return nil
	}
	logDrop(q.log, event, dropped)
	return ErrEventDropped
}

// Dropped 返回所有订阅者累计丢弃的事件数。
func (q *EventQueue) Dropped() int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var n int64
	for _, sub := range q.subs {
		n += sub.dropped.Load()
	}
	return n
}

func logEvent(entry *logger.LogEntry, event Event) {
	if entry == nil {
		return
	}
	fields := logger.Fields{"type": event.Type}
	if event.SessionID != "" {
		fields[logger.SessionField] = event.SessionID
	}
	if event.Type == EventViewUpdated {
		entry.WithFields(fields).Debug("published event into EQ")
		return
	}
	if payload := encodePayload(event.Payload); payload != "" {
		fields["payload"] = payload
	}
	entry.WithFields(fields).Info("published event into EQ")
}

// logDrop 记录丢弃；view.updated 会被下一次快照取代，只记 debug。
func logDrop(entry *logger.LogEntry, event Event, subscribers int) {
	if entry == nil {
		return
	}
	e := entry.WithFields(logger.Fields{"type": event.Type, "subscribers": subscribers})
	if event.Type == EventViewUpdated {
		e.Debug("subscriber buffer full, view update dropped")
		return
	}
	e.Warn("subscriber buffer full, event dropped")
}

// Close 关闭事件队列和所有订阅通道。
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, sub := range q.subs {
		close(sub.ch)
	}
	q.subs = nil
}

// SubscriberCount 返回当前订阅者数量。
func (q *EventQueue) SubscriberCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.subs)
}
