// Package index wraps the document index behind an engine-neutral client.
// Callers build query.Query trees; everything elastic-specific stays here.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
	"github.com/jobdex/adsearch/internal/domain/query"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	baseBackoff       = 200 * time.Millisecond
	maxBackoff        = 2 * time.Second
	scrollKeepAlive   = "1m"
)

// Observer receives per-request timing for metrics. May be nil.
type Observer interface {
	ObserveIndexRequest(op string, seconds float64)
}

// Options configures the index connection.
type Options struct {
	URL        string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
}

// Client is the document index client. Safe for concurrent use.
type Client struct {
	es         *elastic.Client
	url        string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
	obs        Observer
}

// New connects to the document index. Sniffing and healthchecks are disabled
// so the client works against single nodes and proxied clusters alike.
func New(opts Options, logger *zap.Logger, obs Observer) (*Client, error) {
	clientOpts := []elastic.ClientOptionFunc{
		elastic.SetURL(opts.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts, elastic.SetBasicAuth(opts.Username, opts.Password))
	}
	es, err := elastic.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect document index: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	return &Client{
		es:         es,
		url:        opts.URL,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		logger:     logger,
		obs:        obs,
	}, nil
}

// Ping checks connectivity to the index.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, _, err := c.es.Ping(c.url).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

// Search runs one structured query and returns the neutral result. Transient
// failures are retried up to MaxRetries with jittered backoff; a final
// failure is reported as domain.ErrUpstreamUnavailable.
func (c *Client) Search(ctx context.Context, indexName string, q *query.Query) (*Result, error) {
	root, err := translate(q.Root)
	if err != nil {
		return nil, err
	}

	var res *elastic.SearchResult
	err = c.doWithRetry(ctx, "search", func(attemptCtx context.Context) error {
		svc := c.es.Search(indexName).Query(root).From(q.From).Size(q.Size).TrackTotalHits(true)
		for _, agg := range q.Aggregations {
			svc = svc.Aggregation(agg.Name, translateAggregation(agg))
		}
		for _, s := range q.Sort {
			svc = svc.SortBy(translateSort(s))
		}
		var doErr error
		res, doErr = svc.Do(attemptCtx)
		return doErr
	})
	if err != nil {
		return nil, err
	}

	out := &Result{
		Total:    res.TotalHits(),
		TookMs:   res.TookInMillis,
		TimedOut: res.TimedOut,
	}
	if res.Hits != nil {
		out.Hits = make([]Hit, 0, len(res.Hits.Hits))
		for _, h := range res.Hits.Hits {
			out.Hits = append(out.Hits, Hit{ID: h.Id, Source: h.Source})
		}
	}
	out.Aggregations = parseAggregations(res.Aggregations)
	return out, nil
}

// Scan streams every document matching q through fn, page by page, using a
// server-side cursor. Stops early when fn returns an error.
func (c *Client) Scan(ctx context.Context, indexName string, q *query.Query, pageSize int, fn func(json.RawMessage) error) error {
	root, err := translate(q.Root)
	if err != nil {
		return err
	}

	started := time.Now()
	svc := c.es.Scroll(indexName).Query(root).Size(pageSize).Scroll(scrollKeepAlive)
	scrollID := ""
	defer func() {
		if scrollID != "" {
			// Cursor cleanup runs on a fresh context so it still happens
			// after the caller's context is cancelled.
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := c.es.ClearScroll(scrollID).Do(cleanupCtx); err != nil {
				c.logger.Warn("clear scroll failed", zap.Error(err))
			}
		}
		c.observe("scan", time.Since(started))
	}()

	for {
		// Every page read is bounded by the client timeout, same as the
		// single-shot operations, so a stalled index cannot wedge a scan.
		pageCtx, pageCancel := context.WithTimeout(ctx, c.timeout)
		res, err := svc.Do(pageCtx)
		pageCancel()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		scrollID = res.ScrollId
		for _, h := range res.Hits.Hits {
			if err := fn(h.Source); err != nil {
				return err
			}
		}
	}
}

// Index writes one document under the given id, replacing any previous
// version.
func (c *Client) Index(ctx context.Context, indexName, id string, doc interface{}) error {
	return c.doWithRetry(ctx, "index", func(attemptCtx context.Context) error {
		_, err := c.es.Index().Index(indexName).Id(id).BodyJson(doc).Do(attemptCtx)
		return err
	})
}

// doWithRetry runs fn with a per-attempt timeout, retrying transient
// failures with jittered exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	started := time.Now()
	defer func() { c.observe(op, time.Since(started)) }()

	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err = fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == c.maxRetries {
			break
		}
		delay := backoff(attempt)
		c.logger.Warn("index request failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
}

// retryable reports whether the failure is worth another attempt: connection
// errors, per-attempt timeouts and overload status codes.
func retryable(err error) bool {
	if elastic.IsConnErr(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		switch esErr.Status {
		case 429, 502, 503, 504:
			return true
		}
	}
	return false
}

func backoff(attempt int) time.Duration {
	delay := baseBackoff << (attempt - 1)
	if delay > maxBackoff {
		delay = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay/2 + jitter
}

func (c *Client) observe(op string, d time.Duration) {
	if c.obs != nil {
		c.obs.ObserveIndexRequest(op, d.Seconds())
	}
}
