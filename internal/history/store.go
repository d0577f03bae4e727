package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"agentchat/internal/message"
)

// Store 以每个 (account, session) 一个 JSONL 文件的形式保存消息。
type Store struct {
	Dir string
}

// DefaultDir 返回 ~/.agentchat/history。
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".agentchat", "history"), nil
}

// Path 返回 key 对应的文件路径。
func (s *Store) Path(key Key) (string, error) {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return "", errors.New("history store dir is empty")
	}
	if key.AccountID == "" || key.SessionID == "" {
		return "", errors.New("history key requires account and session")
	}
	name := url.PathEscape(key.AccountID) + "_" + url.PathEscape(key.SessionID) + ".jsonl"
	return filepath.Join(s.Dir, name), nil
}

// Append 逐行追加消息。
func (s *Store) Append(key Key, records ...message.Record) error {
	if s == nil {
		return errors.New("history store is nil")
	}
	if len(records) == 0 {
		return nil
	}
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeRecords(f, records)
}

// Rewrite 用 records 整体替换 key 的文件：先写临时文件再改名。
func (s *Store) Rewrite(key Key, records []message.Record) error {
	if s == nil {
		return errors.New("history store is nil")
	}
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := writeRecords(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeRecords(f *os.File, records []message.Record) error {
	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Load 读取 key 的全部消息，无法解析的行被跳过；文件不存在时返回空。
func (s *Store) Load(key Key) ([]message.Record, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	var out []message.Record
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec message.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.WithError(err).WithField("path", path).Debug("skip history line")
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
