package meta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when no subgraph knows a hash.
var ErrNotFound = errors.New("meta not found")

// ErrHashMismatch is returned when a payload does not hash to the key it
// was offered under.
var ErrHashMismatch = errors.New("meta does not match its hash")

// Store is a content-addressed cache of meta payloads keyed by hash, plus
// a cache of dotrain texts keyed by uri. All methods are safe for
// concurrent use.
type Store struct {
	mu           sync.RWMutex
	cache        map[string][]byte
	dotrainCache map[string]string
	subgraphs    []string
	client       *SubgraphClient
	disk         *DiskCache
	logger       *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSubgraphs sets the endpoints Fetch queries on a cache miss.
func WithSubgraphs(urls []string) StoreOption {
	return func(s *Store) { s.subgraphs = urls }
}

// WithDiskCache backs the store with a write-through disk cache.
func WithDiskCache(dc *DiskCache) StoreOption {
	return func(s *Store) { s.disk = dc }
}

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithFetchTimeout bounds each subgraph request.
func WithFetchTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.client.http.Timeout = d }
}

// NewStore builds an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		cache:        map[string][]byte{},
		dotrainCache: map[string]string{},
		client:       NewSubgraphClient(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hash computes the content hash of data in canonical lowercase form.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return "0x" + hex.EncodeToString(sum[:])
}

// Get looks a hash up in the in-memory cache, falling through to the disk
// cache when one is configured. It never goes to the network.
func (s *Store) Get(hash string) ([]byte, bool) {
	hash = strings.ToLower(hash)

	s.mu.RLock()
	data, ok := s.cache[hash]
	s.mu.RUnlock()
	if ok {
		return data, true
	}

	if s.disk != nil {
		if data, err := s.disk.Get(hash); err == nil {
			s.mu.Lock()
			s.cache[hash] = data
			s.mu.Unlock()
			return data, true
		}
	}
	return nil, false
}

// Update stores data under hash after verifying the content matches.
func (s *Store) Update(hash string, data []byte) error {
	hash = strings.ToLower(hash)
	if Hash(data) != hash {
		return ErrHashMismatch
	}

	s.mu.Lock()
	s.cache[hash] = data
	s.mu.Unlock()

	if s.disk != nil {
		if err := s.disk.Put(hash, data); err != nil {
			s.logger.Warn("disk cache write failed", zap.String("hash", hash), zap.Error(err))
		}
	}
	return nil
}

// UpdateWith stores data under its own content hash and returns the hash.
func (s *Store) UpdateWith(data []byte) string {
	hash := Hash(data)
	s.mu.Lock()
	s.cache[hash] = data
	s.mu.Unlock()

	if s.disk != nil {
		if err := s.disk.Put(hash, data); err != nil {
			s.logger.Warn("disk cache write failed", zap.String("hash", hash), zap.Error(err))
		}
	}
	return hash
}

// SetDotrain wraps text as a dotrain meta document, stores it, and records
// the uri as pointing at the new hash. The previous payload for the uri is
// dropped unless keepOld is set.
func (s *Store) SetDotrain(text, uri string, keepOld bool) (string, error) {
	payload, err := Encode([]DocumentItem{{
		Payload:     []byte(text),
		Magic:       DotrainV1,
		ContentType: "application/octet-stream",
	}})
	if err != nil {
		return "", err
	}
	hash := Hash(payload)

	s.mu.Lock()
	if old, ok := s.dotrainCache[uri]; ok && old != hash && !keepOld {
		delete(s.cache, old)
	}
	s.cache[hash] = payload
	s.dotrainCache[uri] = hash
	s.mu.Unlock()
	return hash, nil
}

// DotrainHash returns the stored hash for a uri, if any.
func (s *Store) DotrainHash(uri string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.dotrainCache[uri]
	return hash, ok
}

// Fetch resolves a hash, checking the caches first and then querying all
// configured subgraphs in parallel. The first subgraph to answer wins and
// the payload is cached before returning.
func (s *Store) Fetch(ctx context.Context, hash string) ([]byte, error) {
	hash = strings.ToLower(hash)
	if data, ok := s.Get(hash); ok {
		return data, nil
	}
	if len(s.subgraphs) == 0 {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once  sync.Once
		found []byte
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, url := range s.subgraphs {
		url := url
		g.Go(func() error {
			data, err := s.client.Search(ctx, url, hash)
			if err != nil {
				s.logger.Debug("subgraph miss",
					zap.String("url", url), zap.String("hash", hash), zap.Error(err))
				return nil
			}
			once.Do(func() {
				found = data
				cancel()
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}

	if err := s.Update(hash, found); err != nil {
		return nil, err
	}
	return found, nil
}

// Cache returns a copy of the in-memory payload cache.
func (s *Store) Cache() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}

// DocumentCache returns a copy of the uri to hash mapping.
func (s *Store) DocumentCache() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.dotrainCache))
	for k, v := range s.dotrainCache {
		out[k] = v
	}
	return out
}
