package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xcro3dile/bizchat-go/internal/domain/ports"
)

func TestFSNotifyWatcher_Creation(t *testing.T) {
	watcher, err := NewFSNotifyWatcher([]string{".md"}, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Stop()
}

func TestFSNotifyWatcher_DefaultExtensions(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	if len(watcher.extensions) != 1 || watcher.extensions[0] != ".md" {
		t.Errorf("expected only .md by default, got %v", watcher.extensions)
	}
}

func waitFor(t *testing.T, events <-chan ports.FileEvent, ctx context.Context, want ports.FileOperation) {
	t.Helper()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatal("events closed")
			}
			if event.Operation == want {
				return
			}
		case <-ctx.Done():
			t.Fatalf("timeout waiting for operation %v", want)
		}
	}
}

func TestFSNotifyWatcher_CreateAndRemove(t *testing.T) {
	dir := t.TempDir()

	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	path := filepath.Join(dir, "venture.md")
	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(path, []byte("벤처"), 0644)
	}()
	waitFor(t, events, ctx, ports.FileCreated)

	os.Remove(path)
	waitFor(t, events, ctx, ports.FileDeleted)
}

func TestFSNotifyWatcher_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()

	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	events, _ := watcher.Watch(ctx, dir)

	os.WriteFile(filepath.Join(dir, "pricing.json"), []byte("{}"), 0644)

	select {
	case <-events:
		t.Error("should not receive event for .json")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_MissingDir(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	if _, err := watcher.Watch(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(nil, nil)
	if err := watcher.Stop(); err != nil {
		t.Errorf("stop failed: %v", err)
	}
}
