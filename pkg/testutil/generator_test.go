package testutil

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/gapview/pkg/model"
)

func TestGenerateIsDeterministic(t *testing.T) {
	a := NewDefault().Generate(10)
	b := NewDefault().Generate(10)
	for _, m := range model.AllMetrics {
		if a.CSV(m) != b.CSV(m) {
			t.Fatalf("%s tables differ between runs with the same seed", m)
		}
	}
}

func TestFixtureCSVHeader(t *testing.T) {
	f := ThreeCountries()
	first := strings.SplitN(f.CSV(model.MetricGDP), "\n", 2)[0]
	want := "geo,country,region,income_group,main_religion,1999,2000,2001"
	if first != want {
		t.Errorf("header = %q, want %q", first, want)
	}
}

func TestFixtureDropLeavesNilMetric(t *testing.T) {
	f := ThreeCountries().Drop(model.MetricGDP, "bbb")
	ds := f.Dataset()
	if ds.Len() != 3 {
		t.Fatalf("Len = %d, want 3", ds.Len())
	}
	rec := ds.Records[1]
	if rec.Metrics[model.MetricGDP] != nil {
		t.Error("dropped metric should be nil")
	}
	AssertNaN(t, "dropped gdp", rec.Number(model.MetricGDP, "2000"))
	AssertStrings(t, "unmatched gdp", ds.Unmatched[model.MetricGDP], []string{"bbb"})
	if strings.Contains(f.CSV(model.MetricGDP), "bbb") {
		t.Error("dropped geo still present in CSV")
	}
}

func TestThreeCountriesPinnedValues(t *testing.T) {
	ds := ThreeCountries().Dataset()
	for i, want := range []float64{10, 20, 30} {
		AssertFloat(t, ds.Records[i].Geo, ds.Records[i].Number(model.MetricChildMortality, "2000"), want)
	}
	AssertStrings(t, "regions", ds.Regions, []string{"A", "B"})
}
