//go:build unix

package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"mediascan/internal/cache"
	"mediascan/internal/config"
	"mediascan/internal/differ"
	"mediascan/internal/hasher"
	"mediascan/internal/progress"
	"mediascan/internal/types"
)

func createFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

// runScan drives a scanner to completion and returns everything it emitted.
func runScan(t *testing.T, cfg *config.ScanConfig) ([]types.ScannedFile, []*types.ScanError) {
	t.Helper()
	out := make(chan types.ScannedFile, 64)
	errs := make(chan *types.ScanError, 64)

	digests, err := cache.Open("")
	if err != nil {
		t.Fatal(err)
	}
	s := New(cfg, differ.New(nil), hasher.New(cfg.LargeFileThreshold, digests),
		progress.NewTracker(0), out, errs)

	var (
		files    []types.ScannedFile
		scanErrs []*types.ScanError
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for f := range out {
			files = append(files, f)
		}
	}()
	go func() {
		defer wg.Done()
		for e := range errs {
			scanErrs = append(scanErrs, e)
		}
	}()

	s.Run()
	close(out)
	close(errs)
	wg.Wait()
	return files, scanErrs
}

func TestScanBasic(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "a.mp4"), 100)
	createFile(t, filepath.Join(root, "b.jpg"), 50)
	createFile(t, filepath.Join(root, "sub", "c.mp3"), 25)

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Workers = 2

	files, errs := runScan(t, cfg)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	byName := map[string]types.ScannedFile{}
	for _, f := range files {
		byName[f.Name] = f
	}
	if byName["a.mp4"].MediaType != "video" || byName["a.mp4"].Size != 100 {
		t.Errorf("a.mp4 = %+v", byName["a.mp4"])
	}
	if byName["b.jpg"].MediaType != "image" {
		t.Errorf("b.jpg = %+v", byName["b.jpg"])
	}
	if byName["c.mp3"].MediaType != "audio" {
		t.Errorf("c.mp3 = %+v", byName["c.mp3"])
	}
	for _, f := range files {
		if !filepath.IsAbs(f.Path) {
			t.Errorf("path %q is not absolute", f.Path)
		}
		if f.Status != types.StatusNew {
			t.Errorf("%s: status = %s, want new on a first run", f.Name, f.Status)
		}
	}
}

func TestDepthEnforcement(t *testing.T) {
	// root/a/b/c with max_depth=1 visits root and root/a only
	root := t.TempDir()
	createFile(t, filepath.Join(root, "r.mp4"), 1)
	createFile(t, filepath.Join(root, "a", "a.mp4"), 1)
	createFile(t, filepath.Join(root, "a", "b", "b.mp4"), 1)
	createFile(t, filepath.Join(root, "a", "b", "c", "c.mp4"), 1)

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.MaxDepth = 1
	cfg.Workers = 2

	files, _ := runScan(t, cfg)
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"a.mp4", "r.mp4"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("visited %v, want %v", names, want)
	}
}

func TestNonRecursive(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "top.mp4"), 1)
	createFile(t, filepath.Join(root, "sub", "nested.mp4"), 1)

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Recursive = false
	cfg.MaxDepth = 10 // ignored when recursive is off
	cfg.Workers = 1

	files, _ := runScan(t, cfg)
	if len(files) != 1 || files[0].Name != "top.mp4" {
		t.Errorf("non-recursive scan got %v", files)
	}
}

func TestSymlinksNeverFollowed(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	createFile(t, filepath.Join(outside, "real", "x.mp4"), 1)
	createFile(t, filepath.Join(root, "direct.mp4"), 1)

	if err := os.Symlink(filepath.Join(outside, "real"), filepath.Join(root, "linkdir")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "real", "x.mp4"), filepath.Join(root, "link.mp4")); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Workers = 2

	files, errs := runScan(t, cfg)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(files) != 1 || files[0].Name != "direct.mp4" {
		t.Errorf("symlinked entries must be skipped, got %v", files)
	}
}

func TestUnknownExtensionsFiltered(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "movie.mp4"), 1)
	createFile(t, filepath.Join(root, "notes.txt"), 1)

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Workers = 1

	files, _ := runScan(t, cfg)
	if len(files) != 1 || files[0].Name != "movie.mp4" {
		t.Errorf("unknown files filtered by default, got %v", files)
	}

	cfg.IncludeUnknown = true
	files, _ = runScan(t, cfg)
	if len(files) != 2 {
		t.Errorf("IncludeUnknown should retain both files, got %v", files)
	}
}

func TestIgnoredDirectoriesSkipped(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "keep.mp4"), 1)
	createFile(t, filepath.Join(root, ".hidden", "h.mp4"), 1)
	createFile(t, filepath.Join(root, "node_modules", "n.mp4"), 1)

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Workers = 2

	files, _ := runScan(t, cfg)
	if len(files) != 1 || files[0].Name != "keep.mp4" {
		t.Errorf("ignored directories must be skipped, got %v", files)
	}
}

func TestOpenedRootsTracksListedRootsOnly(t *testing.T) {
	good := t.TempDir()
	createFile(t, filepath.Join(good, "ok.mp4"), 1)
	missing := filepath.Join(good, "gone")

	cfg := config.Default()
	cfg.Roots = []string{good, missing}
	cfg.Workers = 2

	out := make(chan types.ScannedFile, 8)
	errs := make(chan *types.ScanError, 8)
	digests, err := cache.Open("")
	if err != nil {
		t.Fatal(err)
	}
	s := New(cfg, differ.New(nil), hasher.New(cfg.LargeFileThreshold, digests),
		progress.NewTracker(0), out, errs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range out {
		}
	}()
	go func() {
		for range errs {
		}
	}()
	s.Run()
	close(out)
	close(errs)
	<-done

	opened := s.OpenedRoots()
	absGood, _ := filepath.Abs(good)
	if len(opened) != 1 || opened[0] != absGood {
		t.Errorf("OpenedRoots() = %v, want [%s]", opened, absGood)
	}
}

func TestRootIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir.mp4")
	createFile(t, file, 1)

	cfg := config.Default()
	cfg.Roots = []string{file}
	cfg.Workers = 1

	files, errs := runScan(t, cfg)
	if len(files) != 0 {
		t.Errorf("no files expected, got %v", files)
	}
	if len(errs) != 1 || errs[0].Kind != types.ErrIO {
		t.Errorf("errors = %v, want one IoError for a misconfigured root", errs)
	}
}

func TestMissingRootDoesNotAbortOthers(t *testing.T) {
	good := t.TempDir()
	createFile(t, filepath.Join(good, "ok.mp4"), 1)

	cfg := config.Default()
	cfg.Roots = []string{filepath.Join(good, "does-not-exist"), good}
	cfg.Workers = 2

	files, errs := runScan(t, cfg)
	if len(errs) != 1 || errs[0].Kind != types.ErrNotFound {
		t.Errorf("errors = %v, want one NotFound", errs)
	}
	if len(files) != 1 || files[0].Name != "ok.mp4" {
		t.Errorf("good root must still be scanned, got %v", files)
	}
}

func TestUnreadableDirectoryReported(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	createFile(t, filepath.Join(root, "visible.mp4"), 1)
	locked := filepath.Join(root, "locked")
	createFile(t, filepath.Join(locked, "secret.mp4"), 1)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Workers = 2

	files, errs := runScan(t, cfg)
	if len(errs) != 1 || errs[0].Kind != types.ErrPermissionDenied {
		t.Errorf("errors = %v, want one PermissionDenied", errs)
	}
	if len(files) != 1 || files[0].Name != "visible.mp4" {
		t.Errorf("siblings must still be scanned, got %v", files)
	}
}

func TestNoDigestWhenHashingDisabled(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "a.mp4"), 2048)

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Workers = 1
	// ComputeHash stays false

	files, _ := runScan(t, cfg)
	if len(files) != 1 {
		t.Fatalf("got %d files", len(files))
	}
	if files[0].Hash != "" || files[0].IsPartialHash {
		t.Errorf("hashing disabled but got hash=%q partial=%v", files[0].Hash, files[0].IsPartialHash)
	}
}

func TestDigestsComputedWhenEnabled(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "small.mp4"), 100)
	createFile(t, filepath.Join(root, "large.mp4"), 4096)

	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Workers = 1
	cfg.ComputeHash = true
	cfg.LargeFileThreshold = 1024

	files, errs := runScan(t, cfg)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	for _, f := range files {
		if f.Hash == "" {
			t.Errorf("%s: missing digest", f.Name)
		}
		wantPartial := f.Size > cfg.LargeFileThreshold
		if f.IsPartialHash != wantPartial {
			t.Errorf("%s: partial = %v, want %v", f.Name, f.IsPartialHash, wantPartial)
		}
	}
}
