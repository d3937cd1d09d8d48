package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/lanegraph/pkg/cache"
)

func TestCacheCommands(t *testing.T) {
	isolate(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	cfg := writeConfig(t, "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(ctx, "live", []byte("x"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(ctx, "stale", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := runCLI(t, "cache", "prune", "--config", cfg); err != nil {
		t.Fatal(err)
	}
	if n, _ := fc.Len(ctx); n != 1 {
		t.Errorf("after prune: %d entries, want 1", n)
	}

	if _, err := runCLI(t, "cache", "clear", "--config", cfg); err != nil {
		t.Fatal(err)
	}
	if n, _ := fc.Len(ctx); n != 0 {
		t.Errorf("after clear: %d entries, want 0", n)
	}
}

func TestRenderPopulatesCache(t *testing.T) {
	_, cacheHome := isolate(t)
	input := writeHistory(t)
	out := filepath.Join(t.TempDir(), "g.svg")

	if _, err := runCLI(t, "render", "--input", input, "-o", out); err != nil {
		t.Fatal(err)
	}
	fc, err := cache.NewFileCache(filepath.Join(cacheHome, appName))
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := fc.Len(context.Background()); n == 0 {
		t.Error("render left the cache empty")
	}

	if _, err := runCLI(t, "render", "--input", input, "-o", out, "--no-cache"); err != nil {
		t.Fatal(err)
	}
}
