package menu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tableside/internal/metrics"
	"tableside/internal/models"
	"tableside/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderFetchAndMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("drinks|Water\ndishes|Burger\n"))
	}))
	defer srv.Close()

	ctx := context.Background()
	logger := zerolog.Nop()

	customs := repository.NewMemoryMenuItemStore()
	require.NoError(t, customs.SaveAll(ctx, []models.MenuItem{
		{Category: "specials", Name: "Soup of the Day"},
	}))

	loader := NewLoader(&HTTPFetcher{URL: srv.URL}, customs, &logger)
	items := loader.Load(ctx)

	require.Len(t, items, 3)
	assert.Equal(t, "Water", items[0].Name)
	assert.Equal(t, "Burger", items[1].Name)
	// Custom items always append after the parsed menu.
	assert.Equal(t, models.MenuItem{Category: "specials", Name: "Soup of the Day"}, items[2])
}

func TestLoaderFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	loader := NewLoader(&HTTPFetcher{URL: srv.URL}, repository.NewMemoryMenuItemStore(), &logger)

	items := loader.Load(context.Background())
	assert.Equal(t, models.FallbackMenu(), items)
	assert.Len(t, items, 8)
}

func TestLoaderFetchFailsButCustomItemsExist(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	customs := repository.NewMemoryMenuItemStore()
	require.NoError(t, customs.SaveAll(ctx, []models.MenuItem{
		{Category: "drinks", Name: "Kombucha"},
	}))

	loader := NewLoader(&FileFetcher{Path: "testdata/does-not-exist.txt"}, customs, &logger)
	items := loader.Load(ctx)

	// No fallback: the custom set alone keeps the menu usable.
	require.Len(t, items, 1)
	assert.Equal(t, "Kombucha", items[0].Name)
}

func TestLoaderRecordsLoadOutcome(t *testing.T) {
	metrics.Register()
	ctx := context.Background()
	logger := zerolog.Nop()

	fallbackBefore := menuLoadCount(t, "fallback")
	parsedBefore := menuLoadCount(t, "parsed")

	failing := NewLoader(&FileFetcher{Path: "testdata/does-not-exist.txt"}, nil, &logger)
	failing.Load(ctx)
	assert.Equal(t, fallbackBefore+1, menuLoadCount(t, "fallback"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("drinks|Water\n"))
	}))
	defer srv.Close()

	working := NewLoader(&HTTPFetcher{URL: srv.URL}, nil, &logger)
	working.Load(ctx)
	assert.Equal(t, parsedBefore+1, menuLoadCount(t, "parsed"))
}

func menuLoadCount(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "tableside_menu_loads_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestFallbackMenuShape(t *testing.T) {
	categories := make(map[string]bool)
	for _, item := range models.FallbackMenu() {
		categories[item.Category] = true
	}
	assert.Len(t, categories, 3)
}
