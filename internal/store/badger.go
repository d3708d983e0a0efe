package store

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/outcaste-io/badger/v3"
	"github.com/serroba/quotagate/internal/ratelimit"
	"go.uber.org/zap"
)

var errBadgerClosed = errors.New("badger: database closed")

// BadgerKV is an embedded BadgerDB implementation of ratelimit.Store.
// Item versions serve as the conditional-write token, and transaction
// conflicts detected at commit are reported as version conflicts.
type BadgerKV struct {
	db *badger.DB
}

// OpenBadgerKV opens a BadgerDB at path. An empty path keeps all data in memory.
func OpenBadgerKV(path string, logger *zap.Logger) (*BadgerKV, error) {
	opt := badger.DefaultOptions(path)

	if inMemory := path == ""; inMemory {
		logger.Warn("badger in-memory mode enabled, quota state is lost on shutdown")
		opt = opt.WithInMemory(inMemory)
	}

	opt = opt.WithLogger(badgerLogger{logger.Sugar().Named("badger")})

	db, err := badger.Open(opt)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}

	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) Get(_ context.Context, key string) ([]byte, ratelimit.Version, error) {
	var (
		value   []byte
		version ratelimit.Version
	)

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}

		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		version = ratelimit.Version(item.Version())

		return err
	})
	if err != nil {
		return nil, ratelimit.NoVersion, fmt.Errorf("badger: get %q: %w", key, err)
	}

	return value, version, nil
}

func (b *BadgerKV) CompareAndSet(_ context.Context, key string, value []byte, expected ratelimit.Version) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		current := ratelimit.NoVersion

		item, err := txn.Get([]byte(key))
		switch {
		case err == nil:
			current = ratelimit.Version(item.Version())
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if current != expected {
			return ratelimit.ErrVersionConflict
		}

		return txn.Set([]byte(key), value)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrVersionConflict), errors.Is(err, badger.ErrConflict):
		return fmt.Errorf("badger: %q: %w", key, ratelimit.ErrVersionConflict)
	default:
		return fmt.Errorf("badger: compare and set %q: %w", key, err)
	}
}

func (b *BadgerKV) Set(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("badger: set %q: %w", key, err)
	}

	return nil
}

// Ping reports whether the database is still open.
func (b *BadgerKV) Ping(_ context.Context) error {
	if b.db.IsClosed() {
		return errBadgerClosed
	}

	return nil
}

// Shutdown closes the database.
func (b *BadgerKV) Shutdown() error {
	return b.db.Close()
}

// badgerLogger wraps zap's SugaredLogger, so it's possible to use it as badger's Logger.
type badgerLogger struct {
	*zap.SugaredLogger
}

// Warningf wraps zap's Warnf.
func (l badgerLogger) Warningf(format string, v ...interface{}) {
	l.Warnf(format, v...)
}

// Compile-time check.
var _ ratelimit.Store = (*BadgerKV)(nil)
