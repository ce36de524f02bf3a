// internal/storage/runlog/localfs_test.go
package runlog

import (
	"context"
	"errors"
	"testing"
)

func TestLocalFS_ImplementsStore(t *testing.T) {
	var _ Store = (*LocalFS)(nil)
}

func TestLocalFS_PutGet(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"id":"1"}`)

	if err := fs.Put(ctx, "runs/abc/1.json", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := fs.Get(ctx, "runs/abc/1.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_PutOverwrites(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Put(ctx, "a.json", []byte("old"))
	fs.Put(ctx, "a.json", []byte("new"))

	got, _ := fs.Get(ctx, "a.json")
	if string(got) != "new" {
		t.Errorf("got %q, want new", got)
	}
}

func TestLocalFS_GetMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	_, err := fs.Get(context.Background(), "runs/none.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.json")
	if exists {
		t.Error("expected false for nonexistent document")
	}

	fs.Put(ctx, "exists.json", []byte("{}"))
	exists, _ = fs.Exists(ctx, "exists.json")
	if !exists {
		t.Error("expected true for existing document")
	}
}

func TestLocalFS_List(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Put(ctx, "runs/r1/b.json", []byte("b"))
	fs.Put(ctx, "runs/r1/a.json", []byte("a"))
	fs.Put(ctx, "runs/r2/c.json", []byte("c"))

	keys, err := fs.List(ctx, "runs/r1/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"runs/r1/a.json", "runs/r1/b.json"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}

	all, _ := fs.List(ctx, "")
	if len(all) != 3 {
		t.Errorf("expected 3 keys, got %v", all)
	}
}

func TestLocalFS_RejectsEscapingKeys(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"../outside.json", "/etc/passwd", "", "runs/../../x"} {
		if err := fs.Put(ctx, key, []byte("x")); err == nil {
			t.Errorf("Put(%q) should fail", key)
		}
	}
}
