// Package fetcher reads response tables from CSV and XLSX sources, local or
// served over HTTP.
package fetcher

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
)

// Sentinel errors returned by the table readers.
var (
	ErrEmptyTable        = eris.New("fetcher: empty table")
	ErrUnsupportedFormat = eris.New("fetcher: unsupported table format")
)

// Fetcher defines the interface for downloading remote tables.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
