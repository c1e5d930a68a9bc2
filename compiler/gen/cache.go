package gen

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/serixdev/serix/compiler/load"
)

// Cache is an advisory on-disk cache of composed unit output, keyed by a
// fingerprint of the unit snapshot and the global options. Emission is
// pure, so a hit can be reused verbatim; any decode failure falls back
// to re-emission, never to an error.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir, or nil when dir is empty.
func NewCache(dir string) *Cache {
	if dir == "" {
		return nil
	}
	return &Cache{dir: dir}
}

// Fingerprint hashes everything composition depends on: the unit
// snapshot, the global options, and the header.
func Fingerprint(u *load.Unit, cfg *Config) (uint64, error) {
	h := fnv.New64a()
	unitBytes, err := msgpack.Marshal(u)
	if err != nil {
		return 0, err
	}
	h.Write(unitBytes)
	globalBytes, err := msgpack.Marshal(cfg.Global)
	if err != nil {
		return 0, err
	}
	h.Write(globalBytes)
	h.Write([]byte(cfg.Header))
	return h.Sum64(), nil
}

// Get returns the cached result for key, if present and decodable.
func (c *Cache) Get(key uint64) (*UnitResult, bool) {
	if c == nil {
		return nil, false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	res := &UnitResult{}
	if err := msgpack.Unmarshal(data, res); err != nil {
		return nil, false
	}
	return res, true
}

// Put stores the result under key. Failures are not fatal; the cache is
// advisory.
func (c *Cache) Put(key uint64, res *UnitResult) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := msgpack.Marshal(res)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), data, 0o644)
}

func (c *Cache) path(key uint64) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x.unit", key))
}
