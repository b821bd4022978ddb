package document

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/docindex/internal/db"
	"github.com/kailas-cloud/docindex/internal/domain"
)

type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	return m.jsonSetFn(ctx, key, path, data)
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	return m.jsonGetFn(ctx, key, paths...)
}

func TestPut(t *testing.T) {
	var gotKey, gotPath string
	var gotData []byte
	repo := New(&mockStore{
		jsonSetFn: func(_ context.Context, key, path string, data []byte) error {
			gotKey, gotPath, gotData = key, path, data
			return nil
		},
	})

	rec := &domain.DocumentRecord{
		DocID:  "raw-input/a.txt",
		Bucket: "raw-input",
		Key:    "a.txt",
		Status: domain.StatusProcessed,
		Metadata: domain.Metadata{
			Title: "A",
			Tags:  []string{"x"},
		},
	}
	if err := repo.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if gotKey != "doc:raw-input/a.txt" {
		t.Errorf("key = %q", gotKey)
	}
	if gotPath != "$" {
		t.Errorf("path = %q", gotPath)
	}

	var round domain.DocumentRecord
	if err := json.Unmarshal(gotData, &round); err != nil {
		t.Fatalf("unmarshal stored data: %v", err)
	}
	if round.DocID != rec.DocID || round.Status != domain.StatusProcessed || round.Metadata.Title != "A" {
		t.Errorf("stored record = %+v", round)
	}
}

func TestGet(t *testing.T) {
	repo := New(&mockStore{
		jsonGetFn: func(_ context.Context, key string, _ ...string) ([]byte, error) {
			if key != "doc:b/k" {
				t.Errorf("key = %q", key)
			}
			return []byte(`[{"docId":"b/k","bucket":"b","key":"k","status":"FAILED","metadata":{}}]`), nil
		},
	})

	rec, err := repo.Get(context.Background(), "b/k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.DocID != "b/k" || rec.Status != domain.StatusFailed {
		t.Errorf("rec = %+v", rec)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := New(&mockStore{
		jsonGetFn: func(context.Context, string, ...string) ([]byte, error) {
			return nil, db.ErrKeyNotFound
		},
	})

	_, err := repo.Get(context.Background(), "b/missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestGet_EmptyPathResult(t *testing.T) {
	repo := New(&mockStore{
		jsonGetFn: func(context.Context, string, ...string) ([]byte, error) {
			return []byte(`[]`), nil
		},
	})

	_, err := repo.Get(context.Background(), "b/k")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}
