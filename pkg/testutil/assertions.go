package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/gapview/pkg/model"
)

// Epsilon is the tolerance used by AssertFloat.
const Epsilon = 1e-9

// AssertFloat verifies got is within Epsilon of want. NaN equals NaN.
func AssertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.IsNaN(want) {
		if !math.IsNaN(got) {
			t.Errorf("%s = %v, want NaN", name, got)
		}
		return
	}
	if math.IsNaN(got) || math.Abs(got-want) > Epsilon*math.Max(1, math.Abs(want)) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// AssertNaN verifies v is NaN.
func AssertNaN(t *testing.T, name string, v float64) {
	t.Helper()
	if !math.IsNaN(v) {
		t.Errorf("%s = %v, want NaN", name, v)
	}
}

// AssertStrings verifies two string slices are equal element by element.
func AssertStrings(t *testing.T, name string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: got %d items %v, want %d items %v", name, len(got), got, len(want), want)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %q, want %q (got %v)", name, i, got[i], want[i], got)
			return
		}
	}
}

// AssertSameRecords verifies two datasets hold the same records in the same
// order, comparing keys, names, regions and the presence of every metric.
func AssertSameRecords(t *testing.T, got, want *model.Dataset) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("dataset length = %d, want %d", got.Len(), want.Len())
	}
	for i := range want.Records {
		g, w := got.Records[i], want.Records[i]
		if g.Geo != w.Geo || g.Country != w.Country || g.Region != w.Region {
			t.Errorf("record %d = {%s %s %s}, want {%s %s %s}",
				i, g.Geo, g.Country, g.Region, w.Geo, w.Country, w.Region)
		}
		for _, m := range model.AllMetrics {
			if (g.Metrics[m] == nil) != (w.Metrics[m] == nil) {
				t.Errorf("record %d (%s) metric %s presence = %v, want %v",
					i, w.Geo, m, g.Metrics[m] != nil, w.Metrics[m] != nil)
			}
		}
	}
}

// TempDataDir writes the fixture into a fresh temporary directory and
// returns its path.
func TempDataDir(t *testing.T, f *Fixture, names map[model.Metric]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	if err := f.WriteDir(dir, names); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return dir
}

// WriteFile writes content to dir/name, failing the test on error.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
