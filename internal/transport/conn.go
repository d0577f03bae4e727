// Package transport 是与后端之间的 websocket 长连接。
//
// 入站信封由单个读协程按到达顺序投递；出站帧经 SubmissionQueue
// 由单个写协程发送，gorilla/websocket 不允许并发写。
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"agentchat/internal/events"
	"agentchat/internal/logger"
	"agentchat/internal/wire"
)

var log = logger.Named("transport")

var (
	// ErrUnauthorized 表示握手被拒绝或服务端因凭据失效关闭连接。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrClosed 表示连接已关闭。
	ErrClosed = errors.New("transport closed")
)

// 服务端以这些关闭码表示凭据失效。
const (
	closeAuthExpired = 4001
	writeTimeout     = 10 * time.Second
)

// Options 配置 Dial。
type Options struct {
	URL    string
	APIKey string
	// Buffer 是入站信封与出站队列的缓冲大小。
	Buffer int
	Header http.Header
	Dialer *websocket.Dialer
	// QueueLog 不为空时，出站队列日志写入该文件。
	QueueLog string
}

// Conn 是一条已建立的连接。
type Conn struct {
	ws        *websocket.Conn
	envelopes chan wire.Envelope
	errs      chan error
	sq        *events.SubmissionQueue

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup

	failOnce sync.Once
	mu       sync.Mutex
	cause    error
}

// Dial 建立连接，api key 作为 api_key 查询参数传递。
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse ws url: %w", err)
	}
	if opts.APIKey != "" {
		q := u.Query()
		q.Set("api_key", opts.APIKey)
		u.RawQuery = q.Encode()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 256
	}

	ws, resp, err := dialer.DialContext(ctx, u.String(), opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("dial %s: %w (status %d)", redact(u), ErrUnauthorized, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", redact(u), err)
	}

	sq := events.NewSubmissionQueue(buffer)
	if opts.QueueLog != "" {
		entry, _ := events.NewQueueLogger("sq", opts.QueueLog)
		sq.SetLogger(entry)
	}
	connCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		ws:        ws,
		envelopes: make(chan wire.Envelope, buffer),
		errs:      make(chan error, 4),
		sq:        sq,
		ctx:       connCtx,
		cancel:    cancel,
	}
	c.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()
	log.WithField("url", redact(u)).Info("socket connected")
	return c, nil
}

// Envelopes 返回入站信封，连接断开后通道关闭。
func (c *Conn) Envelopes() <-chan wire.Envelope { return c.envelopes }

// Errors 返回连接错误；主动 Close 不产生错误。
func (c *Conn) Errors() <-chan error { return c.errs }

// Send 将出站帧放入发送队列。连接已断开时返回 ErrClosed，并包装断开原因。
func (c *Conn) Send(ctx context.Context, out wire.Outbound) error {
	if c.ctx.Err() != nil {
		return c.closedErr()
	}
	err := c.sq.Submit(ctx, events.Submission{
		ID:        uuid.NewString(),
		Frame:     out,
		SessionID: out.Data.SessionID,
	})
	if errors.Is(err, events.ErrSubmissionQueueClosed) {
		return c.closedErr()
	}
	return err
}

func (c *Conn) closedErr() error {
	if cause := c.failure(); cause != nil {
		return fmt.Errorf("%w: %w", ErrClosed, cause)
	}
	return ErrClosed
}

func (c *Conn) failure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cause
}

// Close 发送关闭帧并等待读写协程退出，可重复调用。
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.sq.Close()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.ws.Close()
		c.wg.Wait()
		if c.failure() != nil {
			// 断开时 socket 已关闭，原因已经通过 Errors 上报。
			err = nil
		}
	})
	return err
}

func (c *Conn) readLoop() {
	defer c.wg.Done()
	defer close(c.envelopes)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				c.fail(classify(err))
			}
			return
		}
		env, err := wire.Parse(data)
		if err != nil {
			log.WithError(err).Debug("skip malformed frame")
			continue
		}
		select {
		case c.envelopes <- env:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Conn) writeLoop() {
	defer c.wg.Done()
	for {
		sub, err := c.sq.Receive(c.ctx)
		if err != nil {
			return
		}
		// Close 之前已入队的帧仍可能在连接关闭后读出。
		if c.ctx.Err() != nil {
			return
		}
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.ws.WriteJSON(sub.Frame); err != nil {
			if c.ctx.Err() == nil {
				c.fail(fmt.Errorf("write %s: %w", sub.Frame.Event, classify(err)))
			}
			return
		}
	}
}

// fail 记录首个断开原因并停止收发：之后的 Send 返回 ErrClosed，
// 队列中未写出的帧不再发送。
func (c *Conn) fail(err error) {
	c.failOnce.Do(func() {
		c.mu.Lock()
		c.cause = err
		c.mu.Unlock()
		c.cancel()
		c.sq.Close()
		// 写失败时读协程可能仍阻塞在 ReadMessage 上。
		_ = c.ws.NetConn().Close()
		log.WithError(err).Warn("socket error")
		select {
		case c.errs <- err:
		default:
		}
	})
}

func classify(err error) error {
	if websocket.IsCloseError(err, closeAuthExpired, websocket.ClosePolicyViolation) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}

func redact(u *url.URL) string {
	cp := *u
	q := cp.Query()
	if q.Has("api_key") {
		q.Set("api_key", "***")
		cp.RawQuery = q.Encode()
	}
	return cp.String()
}
