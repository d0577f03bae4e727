// Package history 保存每个 (account, session) 的有序消息记录。
package history

import (
	"sync"

	"agentchat/internal/logger"
	"agentchat/internal/message"
)

var log = logger.Named("history")

// Key 标识一个会话的历史。
type Key struct {
	AccountID string
	SessionID string
}

// Cache 是只追加的内存历史：一个写者（会话控制器），多个读者（渲染路径）。
// 配置了 Store 时追加会同步写入磁盘。
type Cache struct {
	mu      sync.RWMutex
	entries map[Key][]message.Record
	store   *Store
}

// NewCache 创建空缓存；store 可以为 nil。
func NewCache(store *Store) *Cache {
	return &Cache{entries: map[Key][]message.Record{}, store: store}
}

// Append 在 key 末尾追加记录，持久化失败只记录日志。
func (c *Cache) Append(key Key, records ...message.Record) {
	if len(records) == 0 {
		return
	}
	stamped := message.WithSession(records, key.AccountID, key.SessionID)
	c.mu.Lock()
	c.entries[key] = append(c.entries[key], stamped...)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Append(key, stamped...); err != nil {
			log.WithError(err).WithField(logger.SessionField, key.SessionID).Warn("persist history failed")
		}
	}
}

// List 返回 key 的记录副本。
func (c *Cache) List(key Key) []message.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.entries[key]
	out := make([]message.Record, len(src))
	copy(out, src)
	return out
}

// Len 返回 key 的记录数。
func (c *Cache) Len(key Key) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[key])
}

// Replace 用历史接口的结果填充 key，只在首次追加之前使用。
// 已有记录时返回 false 且不做修改。配置了 Store 时整份结果覆盖写入磁盘，
// 之后的 Append 接在服务端历史之后。
func (c *Cache) Replace(key Key, records []message.Record) bool {
	stamped, ok := c.replace(key, records)
	if !ok || c.store == nil {
		return ok
	}
	if err := c.store.Rewrite(key, stamped); err != nil {
		log.WithError(err).WithField(logger.SessionField, key.SessionID).Warn("persist hydrated history failed")
	}
	return true
}

func (c *Cache) replace(key Key, records []message.Record) ([]message.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries[key]) > 0 {
		return nil, false
	}
	stamped := message.WithSession(records, key.AccountID, key.SessionID)
	c.entries[key] = stamped
	return stamped, true
}

// Load 从 Store 读入 key 的历史，规则与 Replace 相同但不回写磁盘。
func (c *Cache) Load(key Key) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	records, err := c.store.Load(key)
	if err != nil {
		return 0, err
	}
	if _, ok := c.replace(key, records); !ok {
		return 0, nil
	}
	return len(records), nil
}
