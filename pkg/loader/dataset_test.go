package loader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/gapview/pkg/loader"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/testutil"
)

func parseFixture(t *testing.T, f *testutil.Fixture) map[model.Metric]*loader.Table {
	t.Helper()
	tables := make(map[model.Metric]*loader.Table, len(model.AllMetrics))
	for _, m := range model.AllMetrics {
		table, err := loader.ParseTable(strings.NewReader(f.CSV(m)), m, loader.ParseOptions{})
		if err != nil {
			t.Fatalf("parse %s: %v", m, err)
		}
		tables[m] = table
	}
	return tables
}

// =============================================================================
// Join
// =============================================================================

func TestJoin_MatchesByGeo(t *testing.T) {
	f := testutil.ThreeCountries()
	tables := parseFixture(t, f)

	// Reverse the gdp table so positional alignment would pick wrong rows.
	rows := tables[model.MetricGDP].Rows
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	ds := loader.Join(tables)
	testutil.AssertSameRecords(t, ds, f.Dataset())
	for _, rec := range ds.Records {
		if rec.Metrics[model.MetricGDP].Geo != rec.Geo {
			t.Errorf("record %s joined gdp row %s", rec.Geo, rec.Metrics[model.MetricGDP].Geo)
		}
	}
	testutil.AssertFloat(t, "beta gdp 2000", ds.Records[1].Number(model.MetricGDP, "2000"), 2100)
}

func TestJoin_PreservesPopulationOrder(t *testing.T) {
	f := testutil.NewDefault().Generate(25)
	ds := loader.Join(parseFixture(t, f))
	if ds.Len() != 25 {
		t.Fatalf("Len = %d, want 25", ds.Len())
	}
	for i, rec := range ds.Records {
		if rec.Geo != testutil.GeoCode(i) || rec.Position != i {
			t.Errorf("record %d = %s (position %d)", i, rec.Geo, rec.Position)
		}
	}
}

func TestJoin_MissingMatchIsReported(t *testing.T) {
	f := testutil.ThreeCountries().
		Drop(model.MetricLifeExpectancy, "ccc").
		Drop(model.MetricFertilityRate, "aaa")
	ds := loader.Join(parseFixture(t, f))

	gamma := ds.Records[2]
	if gamma.Metrics[model.MetricLifeExpectancy] != nil {
		t.Error("expected nil life-expectancy for ccc")
	}
	testutil.AssertNaN(t, "ccc life-expectancy", gamma.Number(model.MetricLifeExpectancy, "2000"))
	testutil.AssertStrings(t, "unmatched life", ds.Unmatched[model.MetricLifeExpectancy], []string{"ccc"})
	testutil.AssertStrings(t, "unmatched fertility", ds.Unmatched[model.MetricFertilityRate], []string{"aaa"})
	if len(gamma.Missing) != 1 || gamma.Missing[0] != model.MetricLifeExpectancy {
		t.Errorf("Missing = %v", gamma.Missing)
	}
}

func TestJoin_KeepsEveryPopulationRow(t *testing.T) {
	pop := strings.Join([]string{
		"geo,country,region,2000",
		"aaa,Alpha,A,1",
		",Nowhere,A,2",
		"bbb,Beta,B,3,extra",
		"ccc,Gamma",
		"",
	}, "\n")
	gdp := "geo,2000\naaa,10\n,20\nbbb,30\n"
	parse := func(m model.Metric, data string) *loader.Table {
		table, err := loader.ParseTable(strings.NewReader(data), m, loader.ParseOptions{WarningHandler: func(string) {}})
		if err != nil {
			t.Fatalf("parse %s: %v", m, err)
		}
		return table
	}

	ds := loader.Join(map[model.Metric]*loader.Table{
		model.MetricPopulation: parse(model.MetricPopulation, pop),
		model.MetricGDP:        parse(model.MetricGDP, gdp),
	})
	if ds.Len() != 4 {
		t.Fatalf("Len = %d, want one record per population row (4)", ds.Len())
	}
	var countries, keys []string
	for _, rec := range ds.Records {
		countries = append(countries, rec.Country)
		keys = append(keys, rec.Key())
	}
	testutil.AssertStrings(t, "order", countries, []string{"Alpha", "Nowhere", "Beta", "Gamma"})
	testutil.AssertStrings(t, "keys", keys, []string{"aaa", "#1", "bbb", "ccc"})

	nowhere := ds.Records[1]
	if nowhere.Metrics[model.MetricGDP] != nil {
		t.Error("blank geo must not match the blank-geo gdp row")
	}
	testutil.AssertFloat(t, "beta gdp", ds.Records[2].Number(model.MetricGDP, "2000"), 30)
	testutil.AssertNaN(t, "gamma population", ds.Records[3].Number(model.MetricPopulation, "2000"))
	testutil.AssertStrings(t, "unmatched gdp", ds.Unmatched[model.MetricGDP], []string{"#1", "ccc"})
}

func TestJoin_NoPopulationTable(t *testing.T) {
	ds := loader.Join(map[model.Metric]*loader.Table{})
	if ds.Len() != 0 {
		t.Errorf("expected empty dataset, got %d records", ds.Len())
	}
}

func TestJoin_DisplayNameFallback(t *testing.T) {
	pop := "geo,country,region,2000\nswe,,europe,9\nzzz,,nowhere,1\n"
	table, err := loader.ParseTable(strings.NewReader(pop), model.MetricPopulation, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ds := loader.Join(map[model.Metric]*loader.Table{model.MetricPopulation: table})
	if ds.Records[0].Country != "Sweden" {
		t.Errorf("swe display name = %q, want Sweden", ds.Records[0].Country)
	}
	if ds.Records[1].Country != "zzz" {
		t.Errorf("unknown code should fall back to geo, got %q", ds.Records[1].Country)
	}
}

// =============================================================================
// Load
// =============================================================================

func TestLoad_FromDirectory(t *testing.T) {
	f := testutil.ThreeCountries()
	dir := testutil.TempDataDir(t, f, loader.DefaultFileNames)

	ds, err := loader.Load(context.Background(), loader.DefaultSources(dir), loader.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	testutil.AssertSameRecords(t, ds, f.Dataset())
	testutil.AssertStrings(t, "years", ds.Years, []string{"1999", "2000", "2001"})
}

func TestLoadDir_UsesEnvOverride(t *testing.T) {
	dir := testutil.TempDataDir(t, testutil.ThreeCountries(), loader.DefaultFileNames)
	t.Setenv(loader.DataDirEnvVar, dir)

	ds, err := loader.LoadDir(context.Background(), "/does/not/exist")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("Len = %d, want 3", ds.Len())
	}
}

func TestLoad_FromHTTP(t *testing.T) {
	f := testutil.ThreeCountries()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range model.AllMetrics {
			if r.URL.Path == "/"+string(m)+".csv" {
				_, _ = w.Write([]byte(f.CSV(m)))
				return
			}
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	sources := loader.Sources{}
	for _, m := range model.AllMetrics {
		sources[m] = srv.URL + "/" + string(m) + ".csv"
	}
	ds, err := loader.Load(context.Background(), sources, loader.Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	testutil.AssertSameRecords(t, ds, f.Dataset())
}

func TestLoad_AnyFailureAbortsWholeLoad(t *testing.T) {
	f := testutil.ThreeCountries()
	dir := testutil.TempDataDir(t, f, loader.DefaultFileNames)
	if err := os.Remove(filepath.Join(dir, loader.DefaultFileNames[model.MetricGDP])); err != nil {
		t.Fatal(err)
	}

	ds, err := loader.Load(context.Background(), loader.DefaultSources(dir), loader.Options{})
	if err == nil {
		t.Fatal("expected error when a source is missing")
	}
	if ds != nil {
		t.Error("no dataset should be returned on failure")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestLoad_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	dir := testutil.TempDataDir(t, testutil.ThreeCountries(), loader.DefaultFileNames)
	sources := loader.DefaultSources(dir).WithOverrides(dir, map[model.Metric]string{
		model.MetricPopulation: srv.URL + "/population.csv",
	})
	_, err := loader.Load(context.Background(), sources, loader.Options{HTTPClient: srv.Client()})
	if err == nil || !strings.Contains(err.Error(), "410") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	dir := testutil.TempDataDir(t, testutil.ThreeCountries(), loader.DefaultFileNames)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx, loader.DefaultSources(dir), loader.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
