package sources

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/c2h5oh/datasize"
	"github.com/go-resty/resty/v2"

	"blockmerge/pkg/version"
)

const (
	defaultHTTPTimeout = 20 * time.Second
	defaultMaxSize     = 64 * datasize.MB

	// PlainText is the content type strict runs require by default.
	PlainText = "text/plain"
)

// errEmptyBody is returned for a feed that answered with no content.
const errEmptyBody errors.Error = "empty response body"

// Fetcher retrieves the raw text of a single source.
type Fetcher interface {
	Fetch(ctx context.Context, source Source) (string, error)
}

// HTTPConfig configures an HTTPFetcher.
type HTTPConfig struct {
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration

	// MaxSize is the largest accepted body.
	MaxSize datasize.ByteSize

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// ContentType is required of sources that do not declare their own
	// expectation. Empty disables the check.
	ContentType string
}

// HTTPFetcher fetches http(s) sources with resty and reads local paths and
// file:// URLs from disk.
type HTTPFetcher struct {
	client      *resty.Client
	maxSize     datasize.ByteSize
	contentType string
}

// type check
var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher returns a new fetcher. conf must not be nil.
func NewHTTPFetcher(conf *HTTPConfig) *HTTPFetcher {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	maxSize := conf.MaxSize
	if maxSize == 0 {
		maxSize = defaultMaxSize
	}
	userAgent := conf.UserAgent
	if userAgent == "" {
		userAgent = "blockmerge/" + version.BlockmergeVersion
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader(httphdr.UserAgent, userAgent)

	return &HTTPFetcher{
		client:      client,
		maxSize:     maxSize,
		contentType: conf.ContentType,
	}
}

// Fetch implements the Fetcher interface for *HTTPFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, source Source) (text string, err error) {
	if !isURL(source.Location) {
		return readFile(source.Location)
	}

	req := f.client.R().SetContext(ctx).SetDoNotParseResponse(true)
	applyAuth(req, source.Auth)

	resp, err := req.Get(source.Location)
	if err != nil {
		return "", fmt.Errorf("requesting: %w", err)
	}
	body := resp.RawBody()
	defer func() { err = errors.WithDeferred(err, body.Close()) }()

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return "", &StatusError{
			URL:    source.Location,
			Server: resp.Header().Get(httphdr.Server),
			Code:   code,
		}
	}

	want := source.ContentType
	if want == "" {
		want = f.contentType
	}
	if want != "" {
		if err = checkContentType(resp.Header().Get(httphdr.ContentType), want); err != nil {
			return "", err
		}
	}

	limit := f.maxSize.Bytes()
	data, err := io.ReadAll(io.LimitReader(body, int64(limit)+1))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if uint64(len(data)) > limit {
		return "", fmt.Errorf("body exceeds %d bytes", limit)
	}
	if len(data) == 0 {
		return "", errEmptyBody
	}
	return string(data), nil
}

func checkContentType(header, want string) error {
	got, _, err := mime.ParseMediaType(header)
	if err != nil || !strings.EqualFold(got, want) {
		return &ContentTypeError{Expected: want, Got: header}
	}
	return nil
}

func applyAuth(req *resty.Request, auth AuthConfig) {
	if auth.Username != "" || auth.Password != "" {
		req.SetBasicAuth(auth.Username, auth.Password)
	}
	if auth.Token != "" {
		header := auth.Header
		if header == "" {
			header = httphdr.Authorization
		}
		scheme := auth.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}
		req.SetHeader(header, strings.TrimSpace(scheme+" "+auth.Token))
	}
}

func readFile(location string) (string, error) {
	path := location
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return "", fmt.Errorf("parse file url: %w", err)
		}
		path = u.Path
	}
	// #nosec G304 -- path is provided via config.
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
