package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"pagkit/pkg/log"
	"pagkit/pkg/scene"

	"github.com/shirou/gopsutil/v3/disk"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/blake2b"
)

// Key identifies a muxed sequence.
type Key [blake2b.Size256]byte

func (k Key) String() string {
	return fmt.Sprintf("%x", k[:8])
}

// SequenceKey hashes every field of seq that ends up in the muxed file.
func SequenceKey(seq *scene.VideoSequence, loop bool) Key {
	h, _ := blake2b.New256(nil) // Only fails for long keys.

	writeUint := func(v uint64) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeBytes := func(b []byte) {
		writeUint(uint64(len(b)))
		h.Write(b)
	}

	if loop {
		writeUint(1)
	} else {
		writeUint(0)
	}
	writeUint(uint64(uint32(seq.Width)))
	writeUint(uint64(uint32(seq.Height)))
	writeUint(uint64(math.Float32bits(seq.FrameRate)))
	writeUint(uint64(uint32(seq.AlphaStartX)))
	writeUint(uint64(uint32(seq.AlphaStartY)))

	writeUint(uint64(len(seq.Headers)))
	for _, header := range seq.Headers {
		writeBytes(header)
	}
	writeUint(uint64(len(seq.Frames)))
	for _, f := range seq.Frames {
		if f.IsKeyframe {
			writeUint(1)
		} else {
			writeUint(0)
		}
		writeUint(uint64(f.Frame))
		writeBytes(f.Data)
	}

	var key Key
	copy(key[:], h.Sum(nil))
	return key
}

var (
	bucketEntries = []byte("entries")
	bucketOrder   = []byte("order")
	bucketMeta    = []byte("meta")

	metaSize = []byte("size")
)

// ErrCacheClosed the cache has not been opened or is closed.
var ErrCacheClosed = errors.New("cache closed")

// DiskUsageFunc reports usage of the volume at path.
type DiskUsageFunc func(path string) (*disk.UsageStat, error)

// Cache persists muxed mp4 files by content key. The least recently
// used entries are evicted when the total size exceeds the budget.
type Cache struct {
	path      string
	dir       string
	maxBytes  int64
	diskUsage DiskUsageFunc

	db     *bolt.DB
	mu     sync.Mutex
	logger *log.Logger
	wg     *sync.WaitGroup
}

// NewCache returns a cache backed by the database in env.StorageDir.
func NewCache(env *ConfigEnv, logger *log.Logger, wg *sync.WaitGroup) *Cache {
	return &Cache{
		path:      env.CachePath(),
		dir:       env.StorageDir,
		maxBytes:  env.CacheBytes(),
		diskUsage: disk.Usage,

		logger: logger,
		wg:     wg,
	}
}

// Open opens the database. It is closed when ctx is canceled.
func (c *Cache) Open(ctx context.Context) error {
	db, err := bolt.Open(c.path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("open cache: %w: %v", err, c.path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketEntries, bucketOrder, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return err
	}

	c.mu.Lock()
	c.db = db
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		<-ctx.Done()
		c.mu.Lock()
		c.db = nil
		c.mu.Unlock()
		db.Close()
		c.wg.Done()
	}()
	return nil
}

func (c *Cache) getDB() (*bolt.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, ErrCacheClosed
	}
	return c.db, nil
}

// Get returns the cached file for key and marks it as recently used.
func (c *Cache) Get(key Key) ([]byte, bool, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, false, err
	}

	var data []byte
	var found bool
	err = db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket(bucketEntries)
		value := entries.Get(key[:])
		if value == nil {
			return nil
		}
		found = true
		data = append([]byte{}, value[8:]...)

		seq := append([]byte{}, value[:8]...)
		order := tx.Bucket(bucketOrder)
		if err := order.Delete(seq); err != nil {
			return err
		}
		return putEntry(entries, order, key, data)
	})
	if err != nil {
		return nil, false, fmt.Errorf("get %v: %w", key, err)
	}
	return data, found, nil
}

// Put stores data under key and evicts old entries until the cache
// fits its budget. Entries larger than the budget are not stored.
func (c *Cache) Put(key Key, data []byte) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}

	budget, err := c.budget()
	if err != nil {
		return err
	}
	if int64(len(data)) > budget {
		c.logger.Debug().Src("cache").
			Msgf("skipping %v: %v exceeds budget", key, FormatSize(float64(len(data))))
		return nil
	}

	var evicted int
	err = db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket(bucketEntries)
		order := tx.Bucket(bucketOrder)
		meta := tx.Bucket(bucketMeta)

		size := getSize(meta)
		if old := entries.Get(key[:]); old != nil {
			size -= int64(len(old) - 8)
			if err := order.Delete(append([]byte{}, old[:8]...)); err != nil {
				return err
			}
		}

		if err := putEntry(entries, order, key, data); err != nil {
			return err
		}
		size += int64(len(data))

		for size > budget {
			seq, oldest := order.Cursor().First()
			if seq == nil {
				break
			}
			seq = append([]byte{}, seq...)
			oldest = append([]byte{}, oldest...)

			size -= int64(len(entries.Get(oldest)) - 8)
			if err := entries.Delete(oldest); err != nil {
				return err
			}
			if err := order.Delete(seq); err != nil {
				return err
			}
			evicted++
		}
		return putSize(meta, size)
	})
	if err != nil {
		return fmt.Errorf("put %v: %w", key, err)
	}

	if evicted > 0 {
		c.logger.Debug().Src("cache").Msgf("evicted %d entries", evicted)
	}
	return nil
}

// putEntry stores data as the most recently used entry.
func putEntry(entries, order *bolt.Bucket, key Key, data []byte) error {
	seq, err := order.NextSequence()
	if err != nil {
		return err
	}
	seqKey := make([]byte, 8)
	binary.BigEndian.PutUint64(seqKey, seq)

	if err := order.Put(seqKey, key[:]); err != nil {
		return err
	}
	return entries.Put(key[:], append(seqKey, data...))
}

func getSize(meta *bolt.Bucket) int64 {
	v := meta.Get(metaSize)
	if v == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(v))
}

func putSize(meta *bolt.Bucket, size int64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(size))
	return meta.Put(metaSize, v)
}

// budget is the configured size, capped to half of the free space.
func (c *Cache) budget() (int64, error) {
	usage, err := c.diskUsage(c.dir)
	if err != nil {
		return 0, fmt.Errorf("disk usage: %w", err)
	}
	return min(c.maxBytes, int64(usage.Free/2)), nil
}

// CacheUsage cache statistics.
type CacheUsage struct {
	Entries   int
	Bytes     int64
	Formatted string
}

// Usage returns the number and total size of the cached files.
func (c *Cache) Usage() (CacheUsage, error) {
	db, err := c.getDB()
	if err != nil {
		return CacheUsage{}, err
	}

	var usage CacheUsage
	err = db.View(func(tx *bolt.Tx) error {
		usage.Entries = tx.Bucket(bucketEntries).Stats().KeyN
		usage.Bytes = getSize(tx.Bucket(bucketMeta))
		return nil
	})
	if err != nil {
		return CacheUsage{}, err
	}
	usage.Formatted = FormatSize(float64(usage.Bytes))
	return usage, nil
}
