package translator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"paper-translator/internal/logger"
)

// Cache is a persistent translation memo, a JSON file mapping hashed
// (backend, language pair, payload) keys to translations.
type Cache struct {
	path string

	mu      sync.RWMutex
	entries map[string]cacheEntry
	dirty   bool
}

type cacheEntry struct {
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoadCache reads the cache at path, starting empty when the file does
// not exist yet.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]cacheEntry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read translation cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		// A corrupt cache only costs retranslation.
		logger.Warn("translation cache unreadable, starting empty",
			logger.String("path", path), logger.Err(err))
		c.entries = make(map[string]cacheEntry)
	}
	return c, nil
}

// Get returns the cached translation for key.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry.Translation, ok
}

// Set stores a translation for key.
func (c *Cache) Set(key, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{Translation: translation, CreatedAt: time.Now()}
	c.dirty = true
}

// Len returns the number of cached translations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Save writes the cache back to disk when it changed since loading.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode translation cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache directory: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("write translation cache: %w", err)
	}
	c.dirty = false
	return nil
}

// Key hashes a prefix and payload into a cache key.
func Key(prefix, text string) string {
	sum := sha256.Sum256([]byte(prefix + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// cachedTranslator consults the cache before its inner backend and
// persists after every miss.
type cachedTranslator struct {
	inner  Translator
	cache  *Cache
	prefix string
}

// WithCache wraps inner so translations keyed under prefix are served
// from and stored into cache.
func WithCache(inner Translator, cache *Cache, prefix string) Translator {
	return &cachedTranslator{inner: inner, cache: cache, prefix: prefix}
}

// Translate implements Translator.
func (t *cachedTranslator) Translate(ctx context.Context, text string) (string, error) {
	key := Key(t.prefix, text)
	if cached, ok := t.cache.Get(key); ok {
		return cached, nil
	}

	translation, err := t.inner.Translate(ctx, text)
	if err != nil {
		return "", err
	}
	t.cache.Set(key, translation)
	if err := t.cache.Save(); err != nil {
		logger.Warn("failed to persist translation cache", logger.Err(err))
	}
	return translation, nil
}
