package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// dataFiles writes two CSVs and returns their paths.
func dataFiles(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "population.csv"), filepath.Join(dir, "gdp.csv")}
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("geo,2000\naaa,1\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func waitChanged(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Changed():
		return true
	case <-time.After(timeout):
		return false
	}
}

// ============================================================================
// Debouncer
// ============================================================================

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() {
		called.Store(true)
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

// ============================================================================
// Watcher
// ============================================================================

func TestNewWatcher_RequiresPaths(t *testing.T) {
	if _, err := NewWatcher(nil); !errors.Is(err, ErrNoPaths) {
		t.Errorf("expected ErrNoPaths, got %v", err)
	}
}

func TestNewWatcher_DedupesPaths(t *testing.T) {
	paths := dataFiles(t)
	w, err := NewWatcher([]string{paths[0], paths[1], paths[0]})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(w.Paths()); got != 2 {
		t.Errorf("expected 2 watched paths, got %d", got)
	}
	if len(w.dirs()) != 1 {
		t.Errorf("files in one directory should share one directory watch, got %v", w.dirs())
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	paths := dataFiles(t)

	var (
		changeMu sync.Mutex
		changed  bool
	)
	w, err := NewWatcher(paths,
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func() {
			changeMu.Lock()
			changed = true
			changeMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Give watcher time to initialize
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(paths[1], []byte("geo,2000\naaa,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitChanged(t, w, 3*time.Second) {
		t.Fatal("expected change to be detected")
	}

	changeMu.Lock()
	defer changeMu.Unlock()
	if !changed {
		t.Error("OnChange callback was not invoked")
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	paths := dataFiles(t)
	w, err := NewWatcher(paths,
		WithDebounceDuration(20*time.Millisecond),
		WithPollInterval(25*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	other := filepath.Join(filepath.Dir(paths[0]), "notes.txt")
	if err := os.WriteFile(other, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if waitChanged(t, w, 200*time.Millisecond) {
		t.Error("unrelated file should not trigger a change")
	}
	if w.watched(other) {
		t.Error("watched() matched an unrelated file")
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	paths := dataFiles(t)

	w, err := NewWatcher(paths,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected watcher to be in polling mode")
	}

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(paths[0], []byte("geo,2000\naaa,1\nbbb,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitChanged(t, w, 2*time.Second) {
		t.Error("expected change to be detected via polling")
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv(ForcePollEnvVar, "1")

	w, err := NewWatcher(dataFiles(t),
		WithDebounceDuration(10*time.Millisecond),
		WithPollInterval(25*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatalf("expected polling mode when %s is set", ForcePollEnvVar)
	}
}

func TestWatcher_RemoteFilesystem_UsesPolling(t *testing.T) {
	orig := detectFilesystemTypeFunc
	detectFilesystemTypeFunc = func(string) FilesystemType { return FSTypeNFS }
	t.Cleanup(func() { detectFilesystemTypeFunc = orig })

	w, err := NewWatcher(dataFiles(t),
		WithDebounceDuration(10*time.Millisecond),
		WithPollInterval(25*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected watcher to use polling on remote filesystem")
	}
	if got := w.FilesystemType(); got != FSTypeNFS {
		t.Fatalf("expected filesystem type %v, got %v", FSTypeNFS, got)
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	paths := dataFiles(t)

	var (
		errMu    sync.Mutex
		gotError error
	)
	w, err := NewWatcher(paths,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			errMu.Lock()
			gotError = err
			errMu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(paths[1]); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	errMu.Lock()
	defer errMu.Unlock()
	if !errors.Is(gotError, ErrFileRemoved) {
		t.Errorf("expected ErrFileRemoved, got %v", gotError)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher(dataFiles(t))
	if err != nil {
		t.Fatal(err)
	}
	if w.IsStarted() {
		t.Error("watcher should not be started initially")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("watcher should be started after Start()")
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should not be started after Stop()")
	}
	// Double stop should be safe
	w.Stop()
}

func TestWatcher_PollInterval(t *testing.T) {
	customInterval := 500 * time.Millisecond
	w, err := NewWatcher(dataFiles(t), WithPollInterval(customInterval))
	if err != nil {
		t.Fatal(err)
	}
	if got := w.PollInterval(); got != customInterval {
		t.Errorf("expected poll interval %v, got %v", customInterval, got)
	}
}

// ============================================================================
// Helpers
// ============================================================================

func TestFilesystemType_String(t *testing.T) {
	tests := []struct {
		fsType   FilesystemType
		expected string
	}{
		{FSTypeUnknown, "unknown"},
		{FSTypeLocal, "local"},
		{FSTypeNFS, "nfs"},
		{FSTypeSMB, "smb"},
		{FSTypeFUSE, "fuse"},
		{FilesystemType(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.fsType.String(); got != tc.expected {
			t.Errorf("FilesystemType(%d).String() = %q, expected %q", tc.fsType, got, tc.expected)
		}
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"y", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"", false},
		{"invalid", false},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("TEST_ENV_BOOL", tc.value)
			if got := envBool("TEST_ENV_BOOL"); got != tc.expected {
				t.Errorf("envBool(%q) = %v, expected %v", tc.value, got, tc.expected)
			}
		})
	}
}

func TestDetectFilesystemType_EmptyPath(t *testing.T) {
	if got := DetectFilesystemType(""); got != FSTypeUnknown {
		t.Errorf("DetectFilesystemType(\"\") = %v, expected FSTypeUnknown", got)
	}
}

func TestDetectFilesystemType_NonExistentPathUsesParent(t *testing.T) {
	dir := t.TempDir()
	var checked string
	orig := detectFilesystemTypeFunc
	detectFilesystemTypeFunc = func(p string) FilesystemType { checked = p; return FSTypeLocal }
	t.Cleanup(func() { detectFilesystemTypeFunc = orig })

	if got := DetectFilesystemType(filepath.Join(dir, "missing", "file.csv")); got != FSTypeLocal {
		t.Errorf("got %v", got)
	}
	if checked != dir {
		t.Errorf("checked %q, want nearest existing parent %q", checked, dir)
	}
}
