package deploy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"tableside/internal/models"
)

// MenuHash returns the hex sha256 of the menu file's bytes. Deployments key
// rolling restarts on this value: the configuration object is only patched
// and pods only restarted when the hash changes.
func MenuHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open menu file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash menu file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashChanged reports whether the menu file's content hash differs from the
// previously recorded one, along with the current hash. An empty previous
// hash always counts as changed.
func HashChanged(previous, path string) (bool, string, error) {
	current, err := MenuHash(path)
	if err != nil {
		return false, "", err
	}
	return !strings.EqualFold(strings.TrimSpace(previous), current), current, nil
}

// Smoke verifies a running web container the way the pipeline does: GET /
// and GET /listofitems.txt must both return a success status.
func Smoke(ctx context.Context, baseURL string, client *http.Client) error {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL = strings.TrimRight(baseURL, "/")

	for _, path := range []string{"/", models.MenuResourcePath} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("smoke %s: %w", path, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("smoke %s: unexpected status %d", path, resp.StatusCode)
		}
	}
	return nil
}
