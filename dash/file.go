package dash

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var errStatus = errors.New("request does not end with success result code")

// Table is a csv file: its header and the rows below it.
type Table struct {
	Header []string
	Rows   [][]string
}

func (t Table) Len() int {
	return len(t.Rows)
}

// location resolves a file of the catalogue against the data directory.
// Absolute paths and urls are kept as is.
func location(dir, file string) string {
	if isRemote(file) || filepath.IsAbs(file) || dir == "" {
		return file
	}
	return filepath.Join(dir, file)
}

func isRemote(file string) bool {
	u, err := url.Parse(file)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func readFrom(ctx context.Context, location string) (io.ReadCloser, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			return nil, fmt.Errorf("%s: %w (%d)", location, errStatus, res.StatusCode)
		}
		return res.Body, nil
	case "", "file":
		return os.Open(u.Path)
	default:
		return nil, fmt.Errorf("%s: unsupported scheme", u.Scheme)
	}
}

func loadTable(ctx context.Context, file string) (Table, error) {
	r, err := readFrom(ctx, file)
	if err != nil {
		return Table{}, err
	}
	defer r.Close()
	return readTable(r)
}

func readTable(r io.Reader) (Table, error) {
	var (
		rs  = csv.NewReader(r)
		tbl Table
	)
	rs.FieldsPerRecord = -1
	rs.TrimLeadingSpace = true

	header, err := rs.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return tbl, nil
		}
		return tbl, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	tbl.Header = header
	for {
		row, err := rs.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return tbl, err
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}
