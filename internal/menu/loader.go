package menu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"tableside/internal/domain"
	"tableside/internal/metrics"
	"tableside/internal/models"

	"github.com/rs/zerolog"
)

// Fetcher retrieves the raw menu resource text.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// HTTPFetcher pulls the menu resource over HTTP as plain text.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch menu: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FileFetcher reads the menu resource from the local filesystem.
type FileFetcher struct {
	Path string
}

func (f *FileFetcher) Fetch(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Loader builds the working item list for the ordering page: parsed menu
// resource plus the persisted custom items, with a built-in fallback when
// both are empty.
type Loader struct {
	fetcher Fetcher
	customs domain.MenuItemStore
	logger  *zerolog.Logger
}

func NewLoader(fetcher Fetcher, customs domain.MenuItemStore, logger *zerolog.Logger) *Loader {
	return &Loader{fetcher: fetcher, customs: customs, logger: logger}
}

// Load never fails. A fetch error degrades to an empty parsed set, a custom
// item store error degrades to no custom items, and an empty combined result
// falls back to the built-in sample menu.
func (l *Loader) Load(ctx context.Context) []models.MenuItem {
	var items []models.MenuItem

	if l.fetcher != nil {
		text, err := l.fetcher.Fetch(ctx)
		if err != nil {
			l.logger.Warn().Err(err).Msg("menu fetch failed, continuing without parsed items")
		} else {
			items = Parse(text)
		}
	}

	if l.customs != nil {
		custom, err := l.customs.LoadAll(ctx)
		if err != nil {
			l.logger.Warn().Err(err).Msg("custom item load failed, continuing without custom items")
		} else {
			items = append(items, custom...)
		}
	}

	if len(items) == 0 {
		l.logger.Info().Msg("menu is empty, serving fallback items")
		metrics.IncMenuLoad("fallback")
		return models.FallbackMenu()
	}
	metrics.IncMenuLoad("parsed")
	return items
}
