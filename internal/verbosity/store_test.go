package verbosity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/headfix/internal/pathstore"
)

// exerciseStore runs the same set/get/remove sequence against any Store.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, Key); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, Key, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, Key, "false"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, Key)
	if err != nil || !ok || v != "false" {
		t.Fatalf("expected %q, got %q ok=%v err=%v", "false", v, ok, err)
	}
	if err := s.Remove(ctx, Key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, err := s.Get(ctx, Key); err != nil || ok {
		t.Fatalf("expected key gone, got ok=%v err=%v", ok, err)
	}
	if err := s.Remove(ctx, Key); err != nil {
		t.Fatalf("removing a missing key should succeed: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	c := NewController(s, nil)
	c.Enable(ctx)
	s.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if !NewController(s2, nil).Effective(ctx, false) {
		t.Error("expected override to survive reopening the database")
	}
}

func TestPathstoreStore(t *testing.T) {
	var mu sync.Mutex
	data := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/kv/")
		if !strings.HasPrefix(key, "settings/headfix/") {
			http.Error(w, "bad key "+key, http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			var req pathstore.NodeRequest
			json.NewDecoder(r.Body).Decode(&req)
			data[key] = req.Value
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			v, ok := data[key]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(pathstore.NodeResponse{Key: key, Value: v})
		case http.MethodDelete:
			if _, ok := data[key]; !ok {
				http.NotFound(w, r)
				return
			}
			delete(data, key)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	client := pathstore.NewClient(srv.URL, "")
	defer client.Close()
	exerciseStore(t, NewPathstoreStore(client, "settings/headfix"))
}
