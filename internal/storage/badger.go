package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/lexdesk-go/pkg/crypto/adaptive"
)

// sealInfo separates the token-store key from other keys derived from the
// same secret.
const sealInfo = "lexdesk/token-store"

// BadgerStore implements TokenStore using Badger v3.
type BadgerStore struct {
	db     *badger.DB
	key    []byte
	cipher *adaptive.Cipher
	logger *slog.Logger
	closed atomic.Bool
}

// OpenBadger opens (or creates) the token database described by cfg.
func OpenBadger(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	var c *adaptive.Cipher
	if len(cfg.SealKey) > 0 {
		var err error
		if c, err = adaptive.New(cfg.SealKey); err != nil {
			return nil, fmt.Errorf("badger: seal key: %w", err)
		}
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	// A single small key needs little block cache.
	opts.BlockCacheSize = 1 << 20
	opts.NumVersionsToKeep = 1

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	logger.Debug("token store opened",
		"dir", cfg.Dir,
		"sealed", c != nil,
		"in_memory", cfg.InMemory)

	return &BadgerStore{
		db:     db,
		key:    []byte(cfg.Key),
		cipher: c,
		logger: logger,
	}, nil
}

// SealKeyFromSecret derives a sealing key from an operator-supplied secret.
func SealKeyFromSecret(secret string) []byte {
	if secret == "" {
		return nil
	}
	return adaptive.DeriveKey(secret, sealInfo)
}

// Get returns the stored token.
//
// A value that cannot be opened with the configured seal key reads as
// absent. Get never writes; the owner decides whether to Clear it.
func (s *BadgerStore) Get(ctx context.Context) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("badger: get: %w", err)
	}

	if s.cipher != nil {
		plain, err := s.cipher.Open(value, s.key)
		if err != nil {
			s.logger.Warn("stored token is unreadable", "error", err)
			return "", false, nil
		}
		value = plain
	}

	return string(value), true, nil
}

// Set stores token, replacing any previous value.
func (s *BadgerStore) Set(ctx context.Context, token string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	value := []byte(token)
	if s.cipher != nil {
		sealed, err := s.cipher.Seal(value, s.key)
		if err != nil {
			return fmt.Errorf("badger: seal: %w", err)
		}
		value = sealed
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, value)
	}); err != nil {
		return fmt.Errorf("badger: set: %w", err)
	}
	return nil
}

// Clear deletes the stored token. Clearing an empty slot is a no-op.
func (s *BadgerStore) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key)
	}); err != nil {
		return fmt.Errorf("badger: clear: %w", err)
	}
	return nil
}

// Sealed reports whether values are sealed at rest.
func (s *BadgerStore) Sealed() bool {
	return s.cipher != nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Collectors returns gauges reporting the on-disk size of the database.
func (s *BadgerStore) Collectors() []prometheus.Collector {
	size := func(pick func(lsm, vlog int64) int64) func() float64 {
		return func() float64 {
			if s.closed.Load() {
				return 0
			}
			return float64(pick(s.db.Size()))
		}
	}

	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "lexdesk",
			Subsystem: "token_store",
			Name:      "lsm_size_bytes",
			Help:      "Badger LSM tree size in bytes",
		}, size(func(lsm, _ int64) int64 { return lsm })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "lexdesk",
			Subsystem: "token_store",
			Name:      "value_log_size_bytes",
			Help:      "Badger value log size in bytes",
		}, size(func(_, vlog int64) int64 { return vlog })),
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

var (
	_ TokenStore = (*BadgerStore)(nil)
	_ TokenStore = (*MemoryStore)(nil)
)
