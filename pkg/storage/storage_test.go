package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/celltrack/pkg/errors"
)

func openBolt(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := openBolt(t)
	data := []byte(`{"version": "v1"}`)

	entry, err := s.Put(ctx, "organoid", data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if entry.ID == "" || entry.Size != len(data) || entry.DataHash == "" {
		t.Errorf("Put() entry = %+v", entry)
	}

	got, gotData, err := s.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "organoid" || got.ID != entry.ID {
		t.Errorf("Get() entry = %+v, want %+v", got, entry)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("Get() data = %q, want %q", gotData, data)
	}
}

func TestBoltStoreList(t *testing.T) {
	ctx := context.Background()
	s := openBolt(t)

	entries, err := s.List(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("List() on empty store = %v, %v", entries, err)
	}

	first, _ := s.Put(ctx, "first", []byte("1"))
	time.Sleep(time.Millisecond)
	second, _ := s.Put(ctx, "second", []byte("2"))

	entries, err = s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Errorf("List() = %+v, want first then second", entries)
	}
}

func TestBoltStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := openBolt(t)
	entry, _ := s.Put(ctx, "gone", []byte("x"))

	if err := s.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, _, err := s.Get(ctx, entry.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get() after Delete() error = %v, want not found", err)
	}
	if err := s.Delete(ctx, entry.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
}

func TestBoltStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	entry, _ := s.Put(ctx, "kept", []byte("data"))
	s.Close()

	s, err = NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, data, err := s.Get(ctx, entry.ID); err != nil || string(data) != "data" {
		t.Errorf("Get() after reopen = %q, %v", data, err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestBoltStoreInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := openBolt(t)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"empty name", func() error { _, err := s.Put(ctx, " ", nil); return err }},
		{"path in name", func() error { _, err := s.Put(ctx, "../x", nil); return err }},
		{"get bad id", func() error { _, _, err := s.Get(ctx, "not-a-uuid"); return err }},
		{"delete bad id", func() error { return s.Delete(ctx, "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "default.db")})
	if err != nil {
		t.Fatalf("Open() default backend error = %v", err)
	}
	if _, ok := s.(*BoltStore); !ok {
		t.Errorf("Open() = %T, want *BoltStore", s)
	}
	s.Close()

	tests := []struct {
		cfg  Config
		code errors.Code
	}{
		{Config{Backend: BackendBolt}, errors.ErrCodeInvalidInput},
		{Config{Backend: BackendMongo}, errors.ErrCodeInvalidInput},
		{Config{Backend: "sqlite", Path: "x"}, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		if _, err := Open(ctx, tt.cfg); !errors.Is(err, tt.code) {
			t.Errorf("Open(%+v) error = %v, want %s", tt.cfg, err, tt.code)
		}
	}
}

func TestNewMongoStoreBadURI(t *testing.T) {
	if _, err := NewMongoStore(context.Background(), "http://localhost", ""); err == nil {
		t.Error("NewMongoStore() should reject a non-mongodb URI")
	}
}
