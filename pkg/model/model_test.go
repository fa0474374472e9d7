package model

import (
	"math"
	"testing"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"gdp", MetricGDP, false},
		{"GDP", MetricGDP, false},
		{"child_mortality", MetricChildMortality, false},
		{" life-expectancy ", MetricLifeExpectancy, false},
		{"income", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMetric(%q) err=%v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMetric(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetricNextWraps(t *testing.T) {
	m := MetricPopulation
	for range AllMetrics {
		m = m.Next()
	}
	if m != MetricPopulation {
		t.Errorf("cycling through all metrics ended at %q", m)
	}
	if Metric("bogus").Next() != AllMetrics[0] {
		t.Error("unknown metric should cycle to the first metric")
	}
}

func TestRowEntriesOrdersYearsFirst(t *testing.T) {
	row := &Row{Columns: []Column{
		{"geo", "afg"},
		{"country", "Afghanistan"},
		{"2001", "b"},
		{"1999", "a"},
		{"region", "asia"},
		{"02", "x"},
	}}
	got := row.Entries()
	want := []string{"1999", "2001", "geo", "country", "region", "02"}
	if len(got) != len(want) {
		t.Fatalf("Entries len=%d, want %d", len(got), len(want))
	}
	for i, label := range want {
		if got[i].Label != label {
			t.Errorf("Entries[%d]=%q, want %q", i, got[i].Label, label)
		}
	}
}

func TestRowNumberNaN(t *testing.T) {
	row := &Row{Columns: []Column{{"2000", "12.5"}, {"2001", ""}, {"2002", "n/a"}}}
	if v := row.Number("2000"); v != 12.5 {
		t.Errorf("Number(2000)=%v, want 12.5", v)
	}
	for _, year := range []string{"2001", "2002", "1990"} {
		if v := row.Number(year); !math.IsNaN(v) {
			t.Errorf("Number(%s)=%v, want NaN", year, v)
		}
	}
	var nilRow *Row
	if v := nilRow.Number("2000"); !math.IsNaN(v) {
		t.Errorf("nil row Number=%v, want NaN", v)
	}
}

func TestNewDatasetRegionsAndYears(t *testing.T) {
	pop := func(region string, years ...string) *Row {
		r := &Row{Region: region}
		for _, y := range years {
			r.Columns = append(r.Columns, Column{y, "1"})
		}
		r.Columns = append(r.Columns, Column{"region", region})
		return r
	}
	ds := NewDataset([]Record{
		{Country: "A", Region: "europe", Metrics: map[Metric]*Row{MetricPopulation: pop("europe", "2001", "2000")}},
		{Country: "B", Region: "asia", Metrics: map[Metric]*Row{MetricPopulation: pop("asia", "2002")}},
		{Country: "C", Region: "europe", Metrics: map[Metric]*Row{}},
	}, nil)

	if len(ds.Regions) != 2 || ds.Regions[0] != "europe" || ds.Regions[1] != "asia" {
		t.Errorf("Regions=%v, want [europe asia]", ds.Regions)
	}
	if len(ds.Years) != 3 || ds.Years[0] != "2000" || ds.Years[2] != "2002" {
		t.Errorf("Years=%v, want [2000 2001 2002]", ds.Years)
	}
	if !ds.HasYear("2001") || ds.HasYear("1999") {
		t.Error("HasYear mismatch")
	}
	if ds.Unmatched == nil {
		t.Error("Unmatched should be initialized")
	}
	if rec, ok := ds.FindCountry("B"); !ok || rec.Region != "asia" {
		t.Errorf("FindCountry(B)=%+v,%v", rec, ok)
	}
	if _, ok := ds.FindCountry("Z"); ok {
		t.Error("FindCountry(Z) should fail")
	}
}

func TestRecordKeyFallsBackToPosition(t *testing.T) {
	if k := (Record{Geo: "swe"}).Key(); k != "swe" {
		t.Errorf("Key=%q", k)
	}
	if k := (Record{Position: 7}).Key(); k != "#7" {
		t.Errorf("Key=%q, want #7", k)
	}
}

func TestNewDatasetKeysAreUnique(t *testing.T) {
	ds := NewDataset([]Record{
		{Country: "A", Geo: "swe", Position: 0},
		{Country: "B", Geo: "swe", Position: 1},
		{Country: "C", Position: 2},
		{Country: "D", Geo: "nor", Position: 3},
	}, nil)

	want := []string{"swe", "#1", "#2", "nor"}
	for i, rec := range ds.Records {
		if got := rec.Key(); got != want[i] {
			t.Errorf("record %d Key=%q, want %q", i, got, want[i])
		}
	}
}

func TestSelection(t *testing.T) {
	var s Selection
	if s.IsSet() {
		t.Fatal("zero Selection should be unset")
	}
	if _, ok := s.Get(); ok {
		t.Fatal("Get on unset selection returned ok")
	}
	s = Select("Sweden")
	if v, ok := s.Get(); !ok || v != "Sweden" {
		t.Errorf("Get=%q,%v", v, ok)
	}
	if !s.Is("Sweden") || s.Is("Norway") {
		t.Error("Is mismatch")
	}
	if Select("").IsSet() != true {
		t.Error("empty value is still a present selection")
	}
}

func TestDefaultParamsValidate(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	p.Line = "bogus"
	if err := p.Validate(); err == nil {
		t.Error("expected error for bogus line metric")
	}
}
