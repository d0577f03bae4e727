package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"agentchat/internal/logger"
)

var (
	// ErrSubmissionQueueClosed 表示队列已关闭，无法再提交或接收。
	ErrSubmissionQueueClosed = errors.New("submission queue closed")
)

// SubmissionQueue 是一个有界的出站队列（SQ），由单个写协程消费。
type SubmissionQueue struct {
	ch        chan Submission
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	log       *logger.LogEntry
}

// NewSubmissionQueue 创建一个新的 SubmissionQueue。
func NewSubmissionQueue(capacity int) *SubmissionQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &SubmissionQueue{
		ch:   make(chan Submission, capacity),
		done: make(chan struct{}),
		log:  logger.Named("sq"),
	}
}

// SetLogger 覆盖队列使用的 logger。
func (q *SubmissionQueue) SetLogger(entry *logger.LogEntry) {
	if entry == nil {
		return
	}
	q.log = entry
}

// Submit 将提交放入队列，队列满时阻塞直到有空位或 ctx 取消。
// 队列关闭后返回 ErrSubmissionQueueClosed。
func (q *SubmissionQueue) Submit(ctx context.Context, submission Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrSubmissionQueueClosed
	}
	if submission.Timestamp.IsZero() {
		submission.Timestamp = time.Now()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrSubmissionQueueClosed
	case q.ch <- submission:
		q.logSubmission(submission)
		return nil
	}
}

// Receive 读取一条提交；若队列已关闭则返回 ErrSubmissionQueueClosed。
func (q *SubmissionQueue) Receive(ctx context.Context) (Submission, error) {
	select {
	case <-ctx.Done():
		return Submission{}, ctx.Err()
	case sub, ok := <-q.ch:
		if !ok {
			return Submission{}, ErrSubmissionQueueClosed
		}
		return sub, nil
	}
}

// Len 返回当前队列长度。
func (q *SubmissionQueue) Len() int {
	return len(q.ch)
}

// Close 关闭队列，停止进一步提交；已入队的提交仍可被 Receive 读出。
func (q *SubmissionQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}

func (q *SubmissionQueue) logSubmission(submission Submission) {
	if q.log == nil {
		return
	}
	fields := logger.Fields{
		"submission_id": submission.ID,
		"event":         submission.Frame.Event,
	}
	if payload := encodePayload(submission.Frame.Data); payload != "" {
		fields["payload"] = payload
	}
	if submission.SessionID != "" {
		fields[logger.SessionField] = submission.SessionID
	}
	if len(submission.Metadata) > 0 {
		fields["metadata"] = submission.Metadata
	}
	q.log.WithFields(fields).Info("enqueued submission into SQ")
}
