package torbox

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/tbsync/pkg/httputils"
)

const (
	DefaultBaseURL = "https://api.torbox.app/v1"

	endpointMyList     = "api/torrents/mylist"
	endpointGetQueued  = "api/torrents/getqueued"
	endpointCreate     = "api/torrents/createtorrent"
	maxResultsHeader   = "2147483647"
	defaultMaxRetries  = 3
	defaultPaceUnit    = 5 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

type Config struct {
	BaseURL string
	APIKey  string
	// MaxRetries is the total number of attempts per call.
	MaxRetries int
	// PaceUnit drives both the retry backoff (unit * 2^i) and the pause after
	// a successful call (unit * (i+1)).
	PaceUnit time.Duration
	Timeout  time.Duration
	Limiter  ratelimit.Limiter
}

type Client struct {
	cfg     Config
	http    *retryablehttp.Client
	headers map[string]string
	log     *logrus.Entry
}

type RequestOptions struct {
	Query url.Values
	Form  url.Values
}

type Response struct {
	StatusCode int
	Body       []byte
	// Attempt is the zero-based index of the attempt that succeeded.
	Attempt int
}

func New(cfg Config, log *logrus.Entry) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.PaceUnit <= 0 {
		cfg.PaceUnit = defaultPaceUnit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(1, ratelimit.WithoutSlack)
	}

	return &Client{
		cfg: cfg,
		http: httputils.NewRetryableClient(httputils.RetryOptions{
			MaxRetries: cfg.MaxRetries,
			Unit:       cfg.PaceUnit,
			Timeout:    cfg.Timeout,
			Limiter:    cfg.Limiter,
		}, log),
		headers: map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
			"bypass_cache":  "true",
			"limit":         maxResultsHeader,
		},
		log: log,
	}
}

// Execute performs one logical call with retries. A successful call is followed
// by a pacing pause before it returns, to stay under the service's rate limits.
func (c *Client) Execute(ctx context.Context, method string, endpoint string, opts RequestOptions) (*Response, error) {
	requestURL, err := httputils.URLWithQuery(httputils.JoinURL(c.cfg.BaseURL, endpoint), opts.Query)
	if err != nil {
		return nil, errors.Wrap(err, "creating request URL")
	}

	var body interface{}
	if opts.Form != nil {
		body = []byte(opts.Form.Encode())
	}

	ctx, attempt := httputils.WithAttempt(ctx)
	req, err := retryablehttp.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if opts.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Errorf("Max retries reached for %s", endpoint)
		return nil, errors.WithMessagef(ErrRemoteUnavailable, "%s %s: %v", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithMessagef(ErrRemoteUnavailable, "reading %s response: %v", endpoint, err)
	}

	c.log.Debugf("%s %s succeeded on attempt %d/%d (status %d)", method, endpoint, attempt.Index()+1, c.cfg.MaxRetries, resp.StatusCode)

	if err := httputils.Sleep(ctx, c.cfg.PaceUnit*time.Duration(attempt.Index()+1)); err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Body: data, Attempt: attempt.Index()}, nil
}

// ListTorrents returns the torrents currently on the account.
func (c *Client) ListTorrents(ctx context.Context) ([]Torrent, error) {
	return c.list(ctx, endpointMyList, url.Values{"bypass_cache": []string{"true"}})
}

// ListQueued returns the torrents waiting in the account queue.
func (c *Client) ListQueued(ctx context.Context) ([]Torrent, error) {
	return c.list(ctx, endpointGetQueued, nil)
}

func (c *Client) list(ctx context.Context, endpoint string, query url.Values) ([]Torrent, error) {
	resp, err := c.Execute(ctx, http.MethodGet, endpoint, RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}

	res, err := decodeResult[[]Torrent](endpoint, resp.Body)
	if err != nil {
		return nil, err
	}
	if err := res.Err(endpoint); err != nil {
		return nil, err
	}

	return res.Data, nil
}

// CreateTorrent submits a magnet URI and returns the service's detail message.
func (c *Client) CreateTorrent(ctx context.Context, magnetURI string) (string, error) {
	resp, err := c.Execute(ctx, http.MethodPost, endpointCreate, RequestOptions{
		Form: url.Values{"magnet": []string{magnetURI}},
	})
	if err != nil {
		return "", err
	}

	res, err := decodeResult[CreatedTorrent](endpointCreate, resp.Body)
	if err != nil {
		return "", err
	}
	if err := res.Err(endpointCreate); err != nil {
		return "", err
	}

	if res.Data.Hash != "" {
		c.log.Debugf("Created torrent %s", res.Data.Hash)
	}

	return res.Detail, nil
}
