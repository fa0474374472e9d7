// Package testutil provides deterministic Gapminder-style fixtures: five
// metric tables sharing one country list, rendered as CSV for the loader or
// joined directly into a model.Dataset for view tests.
package testutil

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vanderheijden86/gapview/pkg/model"
)

// MetaColumns are the non-year columns every fixture table carries. There
// are five of them, matching the trailing column count the line view drops.
var MetaColumns = []string{"geo", "country", "region", "income_group", "main_religion"}

// Country is one population row.
type Country struct {
	Geo    string
	Name   string
	Region string
}

// Fixture is a set of metric tables over a shared country list.
type Fixture struct {
	Years     []string
	Countries []Country
	// Values[metric][geo][year] holds the raw cell text. Absent cells are
	// written as empty strings.
	Values map[model.Metric]map[string]map[string]string
	// Omit[metric] lists geos left out of that table entirely.
	Omit map[model.Metric][]string
}

// NewFixture returns an empty fixture over the given years and countries.
func NewFixture(years []string, countries ...Country) *Fixture {
	f := &Fixture{
		Years:     append([]string(nil), years...),
		Countries: append([]Country(nil), countries...),
		Values:    make(map[model.Metric]map[string]map[string]string),
		Omit:      make(map[model.Metric][]string),
	}
	for _, m := range model.AllMetrics {
		f.Values[m] = make(map[string]map[string]string)
	}
	return f
}

// Set stores a raw cell value.
func (f *Fixture) Set(m model.Metric, geo, year, value string) *Fixture {
	byYear := f.Values[m][geo]
	if byYear == nil {
		byYear = make(map[string]string)
		f.Values[m][geo] = byYear
	}
	byYear[year] = value
	return f
}

// SetNumber stores a numeric cell value.
func (f *Fixture) SetNumber(m model.Metric, geo, year string, v float64) *Fixture {
	return f.Set(m, geo, year, strconv.FormatFloat(v, 'f', -1, 64))
}

// Drop removes geo from the metric's table.
func (f *Fixture) Drop(m model.Metric, geo string) *Fixture {
	f.Omit[m] = append(f.Omit[m], geo)
	return f
}

func (f *Fixture) omitted(m model.Metric, geo string) bool {
	for _, g := range f.Omit[m] {
		if g == geo {
			return true
		}
	}
	return false
}

// Header returns the column labels of every table.
func (f *Fixture) Header() []string {
	h := append([]string(nil), MetaColumns...)
	return append(h, f.Years...)
}

// row renders one country's cells for metric m in header order.
func (f *Fixture) row(m model.Metric, c Country) []string {
	rec := []string{c.Geo, c.Name, c.Region, "high_income", "christian"}
	byYear := f.Values[m][c.Geo]
	for _, y := range f.Years {
		rec = append(rec, byYear[y])
	}
	return rec
}

// CSV renders the metric's table.
func (f *Fixture) CSV(m model.Metric) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(f.Header())
	for _, c := range f.Countries {
		if f.omitted(m, c.Geo) {
			continue
		}
		_ = w.Write(f.row(m, c))
	}
	w.Flush()
	return sb.String()
}

// WriteDir writes every table into dir using the given per-metric file names.
func (f *Fixture) WriteDir(dir string, names map[model.Metric]string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, m := range model.AllMetrics {
		name, ok := names[m]
		if !ok {
			return fmt.Errorf("no file name for %s", m)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(f.CSV(m)), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns the model rows of the metric's table, keyed by geo.
func (f *Fixture) Rows(m model.Metric) map[string]*model.Row {
	header := f.Header()
	rows := make(map[string]*model.Row, len(f.Countries))
	for _, c := range f.Countries {
		if f.omitted(m, c.Geo) {
			continue
		}
		if _, dup := rows[c.Geo]; dup {
			continue
		}
		cells := f.row(m, c)
		row := &model.Row{Geo: c.Geo, Country: c.Name, Region: c.Region}
		for i, h := range header {
			row.Columns = append(row.Columns, model.Column{Label: h, Value: cells[i]})
		}
		rows[c.Geo] = row
	}
	return rows
}

// Dataset joins the fixture directly, without going through CSV. Tests use
// it as the expected value for the loader and as input for view tests.
func (f *Fixture) Dataset() *model.Dataset {
	tables := make(map[model.Metric]map[string]*model.Row, len(model.AllMetrics))
	for _, m := range model.AllMetrics {
		tables[m] = f.Rows(m)
	}

	unmatched := make(map[model.Metric][]string)
	var records []model.Record
	for _, c := range f.Countries {
		if f.omitted(model.MetricPopulation, c.Geo) {
			continue
		}
		rec := model.Record{
			Country:  c.Name,
			Geo:      c.Geo,
			Region:   c.Region,
			Position: len(records),
			Metrics:  make(map[model.Metric]*model.Row, len(model.AllMetrics)),
		}
		for _, m := range model.AllMetrics {
			row := tables[m][c.Geo]
			rec.Metrics[m] = row
			if row == nil {
				rec.Missing = append(rec.Missing, m)
				unmatched[m] = append(unmatched[m], c.Geo)
			}
		}
		records = append(records, rec)
	}
	return model.NewDataset(records, unmatched)
}

// ============================================================================
// Generators
// ============================================================================

// GeneratorConfig controls random fixture generation.
type GeneratorConfig struct {
	Seed      int64    // Random seed (0 = 42)
	Years     []string // Year columns (nil = 1998..2002)
	Regions   []string // Region pool (nil = the four world regions)
	BlankRate float64  // Probability that a cell is left empty
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:    42,
		Years:   []string{"1998", "1999", "2000", "2001", "2002"},
		Regions: []string{"asia", "europe", "africa", "americas"},
	}
}

// Generator creates random fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	def := DefaultConfig()
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	if len(cfg.Years) == 0 {
		cfg.Years = def.Years
	}
	if len(cfg.Regions) == 0 {
		cfg.Regions = def.Regions
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// metricRange is the plausible value range of each metric.
var metricRange = map[model.Metric][2]float64{
	model.MetricPopulation:     {1e5, 1.4e9},
	model.MetricGDP:            {300, 90000},
	model.MetricChildMortality: {2, 250},
	model.MetricLifeExpectancy: {35, 85},
	model.MetricFertilityRate:  {1, 8},
}

// Generate builds a fixture with n countries and every cell populated
// (subject to BlankRate).
func (g *Generator) Generate(n int) *Fixture {
	countries := make([]Country, n)
	for i := range countries {
		countries[i] = Country{
			Geo:    GeoCode(i),
			Name:   fmt.Sprintf("Country %d", i),
			Region: g.cfg.Regions[g.rng.Intn(len(g.cfg.Regions))],
		}
	}
	f := NewFixture(g.cfg.Years, countries...)
	for _, m := range model.AllMetrics {
		lo, hi := metricRange[m][0], metricRange[m][1]
		for _, c := range countries {
			for _, y := range g.cfg.Years {
				if g.cfg.BlankRate > 0 && g.rng.Float64() < g.cfg.BlankRate {
					f.Set(m, c.Geo, y, "")
					continue
				}
				v := lo + g.rng.Float64()*(hi-lo)
				f.Set(m, c.Geo, y, strconv.FormatFloat(v, 'f', 2, 64))
			}
		}
	}
	return f
}

// GeoCode returns a deterministic geo key for index i.
func GeoCode(i int) string {
	return fmt.Sprintf("g%03d", i)
}

// ============================================================================
// Canned fixtures
// ============================================================================

// ThreeCountries is the small aggregation example: two countries in region
// A with child mortality 10 and 20, one in region B with 30, year 2000.
// Every other metric is populated so the scatter and line views have data.
func ThreeCountries() *Fixture {
	f := NewFixture([]string{"1999", "2000", "2001"},
		Country{Geo: "aaa", Name: "Alpha", Region: "A"},
		Country{Geo: "bbb", Name: "Beta", Region: "A"},
		Country{Geo: "ccc", Name: "Gamma", Region: "B"},
	)
	base := map[string]float64{"aaa": 1, "bbb": 2, "ccc": 3}
	for _, c := range f.Countries {
		b := base[c.Geo]
		for i, y := range f.Years {
			step := float64(i)
			f.SetNumber(model.MetricPopulation, c.Geo, y, b*1e6+step*1e4)
			f.SetNumber(model.MetricGDP, c.Geo, y, b*1000+step*100)
			f.SetNumber(model.MetricChildMortality, c.Geo, y, b*10+step)
			f.SetNumber(model.MetricLifeExpectancy, c.Geo, y, 50+b*5+step)
			f.SetNumber(model.MetricFertilityRate, c.Geo, y, b+step/10)
		}
	}
	// Pin the 2000 child-mortality values exactly.
	f.SetNumber(model.MetricChildMortality, "aaa", "2000", 10)
	f.SetNumber(model.MetricChildMortality, "bbb", "2000", 20)
	f.SetNumber(model.MetricChildMortality, "ccc", "2000", 30)
	return f
}
