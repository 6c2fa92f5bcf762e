package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
)

// maxAssetSize bounds prerecorded downloads.
const maxAssetSize = 64 << 20

var errAssetTooLarge = errors.New("asset exceeds size limit")

// Fetcher retrieves encoded prerecorded audio.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher fetches http(s) URLs and reads file:// URLs or local paths.
type HTTPFetcher struct {
	client *http.Client
	log    *log.Logger
}

// NewHTTPFetcher returns a fetcher using client, or a client with a 30s
// timeout when nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{
		client: client,
		log:    log.Default().WithPrefix("fetch"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain or drive-letter paths.
		return f.readFile(location)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, u.String())
	case "file":
		return f.readFile(u.Path)
	default:
		return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
	}
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetSize {
		return nil, errAssetTooLarge
	}

	f.log.Debug("Fetched asset", "url", location, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}

func (f *HTTPFetcher) readFile(path string) ([]byte, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	st, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	if st.Size() > maxAssetSize {
		return nil, errAssetTooLarge
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	f.log.Debug("Read asset", "path", p, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}
