package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/biter777/countries"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/gapview/pkg/debug"
	"github.com/vanderheijden86/gapview/pkg/metrics"
	"github.com/vanderheijden86/gapview/pkg/model"
)

// DefaultFetchTimeout bounds a single http source download.
const DefaultFetchTimeout = 30 * time.Second

// Options configures Load.
type Options struct {
	Parse ParseOptions
	// HTTPClient is used for http(s) sources. Nil means a client with
	// DefaultFetchTimeout.
	HTTPClient *http.Client
}

// Load fetches all five sources concurrently, parses them and joins them.
// Any failure aborts the whole load; nothing is joined from a partial set.
func Load(ctx context.Context, sources Sources, opts Options) (*model.Dataset, error) {
	defer metrics.Timer(metrics.DatasetLoad)()
	defer debug.LogEnterExit("loader.Load")()

	if err := sources.Validate(); err != nil {
		return nil, err
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	tables := make([]*Table, len(model.AllMetrics))
	g, ctx := errgroup.WithContext(ctx)
	for i, m := range model.AllMetrics {
		i, m := i, m
		g.Go(func() error {
			t, err := fetchTable(ctx, client, m, sources[m], opts.Parse)
			if err != nil {
				return err
			}
			tables[i] = t
			debug.Log("loaded %s: %d rows from %s", m, len(t.Rows), sources[m])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	byMetric := make(map[model.Metric]*Table, len(tables))
	for i, m := range model.AllMetrics {
		byMetric[m] = tables[i]
	}
	return Join(byMetric), nil
}

func fetchTable(ctx context.Context, client *http.Client, m model.Metric, loc string, opts ParseOptions) (*Table, error) {
	if !isURL(loc) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return LoadTableFromFile(loc, m, opts)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", m, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", m, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetching %s: unexpected status %s", m, resp.Status)
	}
	return ParseTable(resp.Body, m, opts)
}

// Join builds one record per population row, preserving population order.
// Every other table is looked up by geo through an index built once per
// table. A missing match leaves that metric nil on the record and is listed
// in the dataset's Unmatched report.
func Join(tables map[model.Metric]*Table) *model.Dataset {
	defer metrics.Timer(metrics.DatasetJoin)()

	pop := tables[model.MetricPopulation]
	if pop == nil {
		return model.NewDataset(nil, nil)
	}

	indexes := make(map[model.Metric]map[string]*model.Row, len(tables))
	for _, m := range model.AllMetrics {
		if m == model.MetricPopulation {
			continue
		}
		if t := tables[m]; t != nil {
			indexes[m] = t.Index()
		} else {
			indexes[m] = map[string]*model.Row{}
		}
	}

	unmatched := make(map[model.Metric][]string)
	records := make([]model.Record, 0, len(pop.Rows))
	for pos, row := range pop.Rows {
		debug.LogIf(row.Geo == "", "join: population row %d has a blank geo and matches nothing", pos)
		rec := model.Record{
			Country:  displayName(row),
			Geo:      row.Geo,
			Region:   row.Region,
			Position: pos,
			Metrics:  make(map[model.Metric]*model.Row, len(model.AllMetrics)),
		}
		rec.Metrics[model.MetricPopulation] = row
		for _, m := range model.AllMetrics {
			if m == model.MetricPopulation {
				continue
			}
			match, ok := indexes[m][row.Geo]
			if !ok {
				rec.Metrics[m] = nil
				rec.Missing = append(rec.Missing, m)
				unmatched[m] = append(unmatched[m], rec.Key())
				continue
			}
			rec.Metrics[m] = match
		}
		records = append(records, rec)
	}

	for m, geos := range unmatched {
		debug.Log("join: %d population rows without a %s match", len(geos), m)
	}
	return model.NewDataset(records, unmatched)
}

// displayName returns the row's country, falling back to the ISO 3166 name
// of its geo code and finally to the geo key itself.
func displayName(row *model.Row) string {
	if row.Country != "" {
		return row.Country
	}
	if c := countries.ByName(strings.ToUpper(row.Geo)); c != countries.Unknown {
		return c.String()
	}
	return row.Geo
}

// LoadDir is a convenience wrapper that loads the default sources under dir.
func LoadDir(ctx context.Context, dir string) (*model.Dataset, error) {
	dataDir, err := GetDataDir(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dataDir); err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	return Load(ctx, DefaultSources(dataDir), Options{})
}
