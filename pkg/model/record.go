package model

import (
	"math"
	"sort"
	"strconv"
)

// Record is one entity joined across all source tables. A metric without a
// matching row is nil in Metrics and listed in Missing.
type Record struct {
	Country  string
	Geo      string
	Region   string
	Position int
	Metrics  map[Metric]*Row
	Missing  []Metric

	key string // assigned by NewDataset
}

// Row returns the raw row for metric m, or nil when the join found none.
func (r Record) Row(m Metric) *Row {
	return r.Metrics[m]
}

// Number returns the numeric value of metric m for the given year. Missing
// rows and cells yield NaN.
func (r Record) Number(m Metric, year string) float64 {
	row := r.Metrics[m]
	if row == nil {
		return math.NaN()
	}
	return row.Number(year)
}

// Key identifies the record for mark reconciliation. It is the geo code,
// or "#" and the position when the geo is blank or an earlier record of the
// dataset already uses it.
func (r Record) Key() string {
	if r.key != "" {
		return r.key
	}
	if r.Geo != "" {
		return r.Geo
	}
	return "#" + strconv.Itoa(r.Position)
}

// Dataset is the joined record set shared by all views. It is built once by
// the loader and never mutated afterwards.
type Dataset struct {
	Records []Record
	// Regions holds the distinct region names in first-appearance order.
	Regions []string
	// Years holds the sorted year labels of the population table.
	Years []string
	// Unmatched lists, per metric, the geo keys that had no row in that table.
	Unmatched map[Metric][]string
}

// NewDataset derives Regions and Years from the given records and assigns
// each record a key unique within the dataset.
func NewDataset(records []Record, unmatched map[Metric][]string) *Dataset {
	ds := &Dataset{
		Records:   records,
		Unmatched: unmatched,
	}
	if ds.Unmatched == nil {
		ds.Unmatched = make(map[Metric][]string)
	}

	seenKey := make(map[string]bool, len(records))
	for i := range records {
		rec := &records[i]
		rec.key = ""
		k := rec.Key()
		if seenKey[k] {
			k = "#" + strconv.Itoa(rec.Position)
		}
		seenKey[k] = true
		rec.key = k
	}

	seenRegion := make(map[string]bool)
	seenYear := make(map[string]bool)
	for _, rec := range records {
		if !seenRegion[rec.Region] {
			seenRegion[rec.Region] = true
			ds.Regions = append(ds.Regions, rec.Region)
		}
		for _, c := range rec.Row(MetricPopulation).columns() {
			if IsYearLabel(c.Label) && !seenYear[c.Label] {
				seenYear[c.Label] = true
				ds.Years = append(ds.Years, c.Label)
			}
		}
	}
	sort.Strings(ds.Years)
	return ds
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// HasYear reports whether year is one of the population table's columns.
func (d *Dataset) HasYear(year string) bool {
	i := sort.SearchStrings(d.Years, year)
	return i < len(d.Years) && d.Years[i] == year
}

// FindCountry returns the first record whose Country equals name.
func (d *Dataset) FindCountry(name string) (Record, bool) {
	for _, rec := range d.Records {
		if rec.Country == name {
			return rec, true
		}
	}
	return Record{}, false
}

func (r *Row) columns() []Column {
	if r == nil {
		return nil
	}
	return r.Columns
}
