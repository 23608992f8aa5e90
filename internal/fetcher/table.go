package fetcher

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/model"
)

// TableOptions configures ReadTable.
type TableOptions struct {
	CSV  CSVOptions
	XLSX XLSXOptions
	// Fetcher downloads http(s) sources. Defaults to an HTTPFetcher.
	Fetcher Fetcher
}

// ReadTable loads a response table, choosing the parser from the file
// extension. Sources starting with http:// or https:// are downloaded to a
// temporary file first.
func ReadTable(ctx context.Context, src string, opts TableOptions) (*model.ResponseSet, error) {
	local := src
	ext := strings.ToLower(filepath.Ext(src))
	u, err := url.Parse(src)
	remote := err == nil && (u.Scheme == "http" || u.Scheme == "https")
	if remote {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	switch ext {
	case ".csv", ".txt", ".tsv", ".xlsx":
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "table: %q", ext)
	}

	if remote {
		tmp, err := download(ctx, src, ext, opts.Fetcher)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp) //nolint:errcheck
		local = tmp
	}

	switch ext {
	case ".csv", ".txt", ".tsv":
		if ext == ".tsv" && opts.CSV.Delimiter == 0 {
			opts.CSV.Delimiter = '\t'
		}
		f, err := os.Open(local)
		if err != nil {
			return nil, eris.Wrap(err, "table: open file")
		}
		defer f.Close() //nolint:errcheck
		set, err := ReadCSV(ctx, f, opts.CSV)
		if err != nil {
			return nil, eris.Wrapf(err, "table: read %s", src)
		}
		return set, nil
	default:
		set, err := ReadXLSX(local, opts.XLSX)
		if err != nil {
			return nil, eris.Wrapf(err, "table: read %s", src)
		}
		return set, nil
	}
}

func download(ctx context.Context, src, ext string, f Fetcher) (string, error) {
	if f == nil {
		f = NewHTTPFetcher(HTTPOptions{})
	}
	tmp, err := os.CreateTemp("", "risk-table-*"+ext)
	if err != nil {
		return "", eris.Wrap(err, "table: create temp file")
	}
	name := tmp.Name()
	_ = tmp.Close()

	n, err := f.DownloadToFile(ctx, src, name)
	if err != nil {
		_ = os.Remove(name)
		return "", eris.Wrapf(err, "table: download %s", src)
	}
	zap.L().Debug("downloaded table", zap.String("url", src), zap.Int64("bytes", n))
	return name, nil
}
