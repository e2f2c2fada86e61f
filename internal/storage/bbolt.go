package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"proxybridge-go/internal/contracts"
)

// BoltDB wraps bolt database operations
type BoltDB struct {
	db     *bbolt.DB
	logger *zap.SugaredLogger
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(dataDir string, logger *zap.SugaredLogger) (*BoltDB, error) {
	dbPath := filepath.Join(dataDir, "proxybridge.db")

	db, err := bbolt.Open(dbPath, 0644, &bbolt.Options{
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	boltDB := &BoltDB{
		db:     db,
		logger: logger,
	}

	if err := boltDB.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return boltDB, nil
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// initBuckets creates required buckets and sets up schema
func (b *BoltDB) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		buckets := []string{
			MetaBucket,
			SettingsBucket,
			ProxyHistoryBucket,
			WSHistoryBucket,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		metaBucket := tx.Bucket([]byte(MetaBucket))
		versionBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(versionBytes, CurrentSchemaVersion)
		return metaBucket.Put([]byte(SchemaVersionKey), versionBytes)
	})
}

// Settings operations

// GetSetting returns the raw value for a settings key, nil if absent
func (b *BoltDB) GetSetting(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(SettingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket not found")
		}
		if v := bucket.Get([]byte(key)); v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	return value, err
}

// PutSetting stores a settings key
func (b *BoltDB) PutSetting(key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(SettingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket not found")
		}
		return bucket.Put([]byte(key), value)
	})
}

// History operations. Entries are keyed by ULID so lexical bucket order is
// capture order.

// AppendProxyHistory stores a captured HTTP exchange and assigns its ID
func (b *BoltDB) AppendProxyHistory(entry *contracts.ProxyHistoryEntry) error {
	if entry.Captured.IsZero() {
		entry.Captured = time.Now()
	}
	entry.ID = ulid.Make().String()

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ProxyHistoryBucket))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal history entry: %w", err)
		}
		return bucket.Put([]byte(entry.ID), data)
	})
}

// ListProxyHistory returns up to count entries starting at offset, in
// capture order
func (b *BoltDB) ListProxyHistory(count, offset int) ([]*contracts.ProxyHistoryEntry, error) {
	var entries []*contracts.ProxyHistoryEntry

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ProxyHistoryBucket))
		cursor := bucket.Cursor()

		skipped := 0
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if count > 0 && len(entries) >= count {
				break
			}
			var entry contracts.ProxyHistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal history entry %s: %w", string(k), err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})

	return entries, err
}

// AppendWebSocketHistory stores a captured WebSocket frame and assigns its ID
func (b *BoltDB) AppendWebSocketHistory(msg *contracts.WebSocketMessage) error {
	if msg.Captured.IsZero() {
		msg.Captured = time.Now()
	}
	msg.ID = ulid.Make().String()

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(WSHistoryBucket))
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal websocket message: %w", err)
		}
		return bucket.Put([]byte(msg.ID), data)
	})
}

// ListWebSocketHistory returns up to count messages starting at offset, in
// capture order
func (b *BoltDB) ListWebSocketHistory(count, offset int) ([]*contracts.WebSocketMessage, error) {
	var messages []*contracts.WebSocketMessage

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(WSHistoryBucket))
		cursor := bucket.Cursor()

		skipped := 0
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if count > 0 && len(messages) >= count {
				break
			}
			var msg contracts.WebSocketMessage
			if err := json.Unmarshal(v, &msg); err != nil {
				return fmt.Errorf("failed to unmarshal websocket message %s: %w", string(k), err)
			}
			messages = append(messages, &msg)
		}
		return nil
	})

	return messages, err
}

