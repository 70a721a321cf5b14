package storage

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/lexdesk-go/pkg/crypto/adaptive"
)

func openTestBadger(t *testing.T, cfg BadgerConfig) *BadgerStore {
	t.Helper()
	s, err := OpenBadger(cfg, slog.Default())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testStores returns one fresh instance of every TokenStore implementation.
func testStores(t *testing.T) map[string]TokenStore {
	return map[string]TokenStore{
		"memory": NewMemoryStore(),
		"badger": openTestBadger(t, DefaultBadgerConfig(t.TempDir())),
		"badger-sealed": openTestBadger(t, BadgerConfig{
			Dir:     t.TempDir(),
			SealKey: SealKeyFromSecret("test-secret"),
		}),
	}
}

func TestTokenStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx); err != nil || ok {
				t.Fatalf("empty Get() = ok %v, err %v; want absent", ok, err)
			}

			if err := s.Set(ctx, "first"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(ctx, "second"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, ok, err := s.Get(ctx)
			if err != nil || !ok || got != "second" {
				t.Errorf("Get() = %q, %v, %v; want %q, true, nil", got, ok, err, "second")
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Errorf("second Clear() error = %v", err)
			}
			if _, ok, _ := s.Get(ctx); ok {
				t.Error("Get() after Clear should report absent")
			}
		})
	}
}

func TestBadgerStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := BadgerConfig{Dir: dir, SealKey: SealKeyFromSecret("s3cret"), SyncWrites: true}

	s, err := OpenBadger(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "persisted-token"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := openTestBadger(t, cfg)
	got, ok, err := reopened.Get(ctx)
	if err != nil || !ok || got != "persisted-token" {
		t.Errorf("Get() after reopen = %q, %v, %v", got, ok, err)
	}
}

func TestBadgerStore_SealedAtRest(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t, BadgerConfig{InMemory: true, SealKey: SealKeyFromSecret("k")})

	if !s.Sealed() {
		t.Fatal("Sealed() = false, want true")
	}
	if err := s.Set(ctx, "plain-token"); err != nil {
		t.Fatal(err)
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(DefaultKey))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) == "plain-token" {
		t.Error("token should not be stored in plaintext")
	}
}

func TestBadgerStore_WrongSealKeyReadsAbsent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenBadger(BadgerConfig{Dir: dir, SealKey: SealKeyFromSecret("one")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "token"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	other := openTestBadger(t, BadgerConfig{Dir: dir, SealKey: SealKeyFromSecret("two")})
	if _, ok, err := other.Get(ctx); ok || err != nil {
		t.Errorf("Get() with wrong key = ok %v, err %v; want absent", ok, err)
	}

	// Reading does not delete; only Clear does.
	if !other.hasRaw(t) {
		t.Fatal("Get deleted the unreadable value")
	}
	if err := other.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if other.hasRaw(t) {
		t.Error("Clear left the unreadable value")
	}
}

// hasRaw reports whether the slot holds any bytes, readable or not.
func (s *BadgerStore) hasRaw(t *testing.T) bool {
	t.Helper()
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		t.Fatal(err)
	}
	return true
}

func TestBadgerStore_CustomKey(t *testing.T) {
	ctx := context.Background()
	s := openTestBadger(t, BadgerConfig{InMemory: true, Key: "lexdesk_token"})

	if err := s.Set(ctx, "t"); err != nil {
		t.Fatal(err)
	}
	if string(s.key) != "lexdesk_token" {
		t.Errorf("key = %q, want lexdesk_token", s.key)
	}
}

func TestOpenBadger_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  BadgerConfig
	}{
		{"missing dir", BadgerConfig{}},
		{"short seal key", BadgerConfig{InMemory: true, SealKey: []byte("short")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OpenBadger(tt.cfg, nil); err == nil {
				t.Error("OpenBadger() should fail")
			}
		})
	}

	_, err := OpenBadger(BadgerConfig{InMemory: true, SealKey: []byte("short")}, nil)
	if !errors.Is(err, adaptive.ErrInvalidKey) {
		t.Errorf("error = %v, want ErrInvalidKey", err)
	}
}

func TestBadgerStore_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := OpenBadger(BadgerConfig{InMemory: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, _, err := s.Get(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() error = %v, want ErrClosed", err)
	}
	if err := s.Set(ctx, "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() error = %v, want ErrClosed", err)
	}
	if err := s.Clear(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Clear() error = %v, want ErrClosed", err)
	}
}

func TestBadgerStore_Collectors(t *testing.T) {
	s := openTestBadger(t, BadgerConfig{InMemory: true})
	if got := len(s.Collectors()); got != 2 {
		t.Errorf("len(Collectors()) = %d, want 2", got)
	}
}

func TestMemoryStore_Writes(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Set(ctx, "a")
	m.Clear(ctx)
	if m.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", m.Writes())
	}
}

func TestSealKeyFromSecret(t *testing.T) {
	if SealKeyFromSecret("") != nil {
		t.Error("empty secret should disable sealing")
	}
	if got := len(SealKeyFromSecret("x")); got != adaptive.KeySize {
		t.Errorf("len = %d, want %d", got, adaptive.KeySize)
	}
}
