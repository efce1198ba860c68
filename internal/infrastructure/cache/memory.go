package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"marketplace-backend/pkg/cache"
)

// MemoryCache is an in-process cache.Cache used when Redis is unreachable.
// Entries share one TTL; the per-call ttl is ignored.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
}

var _ cache.Cache = (*MemoryCache)(nil)

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	data, ok := m.lru.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	m.lru.Add(key, data)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.lru.Remove(k)
	}
	return nil
}

// DeletePattern xóa các key khớp glob kiểu Redis MATCH: '*' khớp mọi chuỗi
// (kể cả '/'), '?' khớp một ký tự. Character class không được hỗ trợ.
func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	if strings.ContainsAny(pattern, "[]\\") {
		return fmt.Errorf("unsupported pattern %s", pattern)
	}
	for _, k := range m.lru.Keys() {
		if globMatch(pattern, k) {
			m.lru.Remove(k)
		}
	}
	return nil
}

func globMatch(pattern, key string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			pattern = strings.TrimLeft(pattern, "*")
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if globMatch(pattern, key[i:]) {
					return true
				}
			}
			return false
		case '?':
			if key == "" {
				return false
			}
			_, size := utf8.DecodeRuneInString(key)
			pattern, key = pattern[1:], key[size:]
		default:
			if key == "" || key[0] != pattern[0] {
				return false
			}
			pattern, key = pattern[1:], key[1:]
		}
	}
	return key == ""
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}
