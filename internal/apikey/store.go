// Package apikey provides internal API key lookups.
// This package is internal and should not be imported by external projects.
package apikey

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/organaizer/config"
)

// =============================================================================
// 🔑 Key 存储
// =============================================================================

// Store 判断一个 API Key 是否有效
type Store interface {
	// Contains 报告 key 是否存在；后端不可达时返回 error
	Contains(ctx context.Context, key string) (bool, error)
	// Name 返回存储名称，用于日志和健康检查
	Name() string
}

// Pinger 由需要探活的存储实现
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrStoreClosed 存储已关闭
var ErrStoreClosed = errors.New("api key store is closed")

// StaticStore 内存中的固定 Key 集合
type StaticStore struct {
	name string
	keys map[string]struct{}
}

// NewStaticStore 创建固定 Key 集合，空白 Key 会被忽略
func NewStaticStore(name string, keys []string) *StaticStore {
	s := &StaticStore{name: name, keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			s.keys[k] = struct{}{}
		}
	}
	return s
}

// Contains 实现 Store
func (s *StaticStore) Contains(_ context.Context, key string) (bool, error) {
	_, ok := s.keys[key]
	return ok, nil
}

// Name 实现 Store
func (s *StaticStore) Name() string { return s.name }

// Len 返回 Key 数量
func (s *StaticStore) Len() int { return len(s.keys) }

// Mask 脱敏 API Key，仅显示末 4 位
func Mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// =============================================================================
// 📄 CSV 文件
// =============================================================================

// LoadKeysFile 读取无表头 CSV 的第一列作为 Key 列表
func LoadKeysFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keys file: %w", err)
	}
	defer f.Close()

	return ReadKeys(f)
}

// ReadKeys 从 CSV 读取第一列，行的列数可以不一致
func ReadKeys(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var keys []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse keys file: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		if k := strings.TrimSpace(record[0]); k != "" {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// =============================================================================
// 🔗 组合存储
// =============================================================================

// Chain 依次查询多个存储，任一命中即有效
type Chain struct {
	stores  []Store
	closers []io.Closer
}

// NewChain 组合多个存储
func NewChain(stores ...Store) *Chain {
	c := &Chain{}
	for _, s := range stores {
		c.stores = append(c.stores, s)
		if cl, ok := s.(io.Closer); ok {
			c.closers = append(c.closers, cl)
		}
	}
	return c
}

// Contains 实现 Store。前面的存储命中时不会查询后面的存储；
// 全部未命中且有后端出错时返回该错误
func (c *Chain) Contains(ctx context.Context, key string) (bool, error) {
	var errs []error
	for _, s := range c.stores {
		ok, err := s.Contains(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, errors.Join(errs...)
}

// Name 实现 Store
func (c *Chain) Name() string {
	names := make([]string, len(c.stores))
	for i, s := range c.stores {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Ping 探测所有实现 Pinger 的存储
func (c *Chain) Ping(ctx context.Context) error {
	var errs []error
	for _, s := range c.stores {
		if p, ok := s.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Close 关闭持有连接的存储
func (c *Chain) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// 🏗️ 按配置构建
// =============================================================================

// FromConfig 按认证配置组合静态列表、CSV 文件与 Redis 集合
func FromConfig(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) (*Chain, error) {
	keys := append([]string(nil), cfg.APIKeys...)
	if cfg.KeysFile != "" {
		fileKeys, err := LoadKeysFile(cfg.KeysFile)
		if err != nil {
			return nil, err
		}
		keys = append(keys, fileKeys...)
	}

	static := NewStaticStore("static", keys)
	stores := []Store{static}

	if cfg.Redis.Addr != "" {
		rs, err := NewRedisStore(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		stores = append(stores, rs)
	}

	logger.Info("api key store initialized",
		zap.Int("static_keys", static.Len()),
		zap.Bool("redis", cfg.Redis.Addr != ""),
	)

	return NewChain(stores...), nil
}
