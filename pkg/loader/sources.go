package loader

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/gapview/pkg/model"
)

// DefaultFileNames are the per-metric file names looked up in the data directory.
var DefaultFileNames = map[model.Metric]string{
	model.MetricPopulation:     "population.csv",
	model.MetricGDP:            "gdp.csv",
	model.MetricChildMortality: "cmu5.csv",
	model.MetricLifeExpectancy: "life_expectancy.csv",
	model.MetricFertilityRate:  "fertility-rate.csv",
}

// Sources maps every metric to a file path or http(s) URL.
type Sources map[model.Metric]string

// DefaultSources returns the default file locations under dataDir.
func DefaultSources(dataDir string) Sources {
	s := make(Sources, len(DefaultFileNames))
	for m, name := range DefaultFileNames {
		s[m] = filepath.Join(dataDir, name)
	}
	return s
}

// WithOverrides returns a copy of s with the given locations replacing the
// defaults. Relative paths are resolved against dataDir; URLs are kept.
func (s Sources) WithOverrides(dataDir string, overrides map[model.Metric]string) Sources {
	out := make(Sources, len(s))
	for m, loc := range s {
		out[m] = loc
	}
	for m, loc := range overrides {
		if loc == "" {
			continue
		}
		if !isURL(loc) && !filepath.IsAbs(loc) {
			loc = filepath.Join(dataDir, loc)
		}
		out[m] = loc
	}
	return out
}

// Validate checks that every metric has a location.
func (s Sources) Validate() error {
	var missing []string
	for _, m := range model.AllMetrics {
		if strings.TrimSpace(s[m]) == "" {
			missing = append(missing, string(m))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no source configured for %s", strings.Join(missing, ", "))
	}
	return nil
}

// Files returns the local file paths among the sources (URLs excluded).
func (s Sources) Files() []string {
	var files []string
	for _, m := range model.AllMetrics {
		if loc := s[m]; loc != "" && !isURL(loc) {
			files = append(files, loc)
		}
	}
	return files
}

func isURL(loc string) bool {
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
