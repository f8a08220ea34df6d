package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"marquee/internal/models"
)

const (
	tmdbAPIURL        = "https://api.themoviedb.org/3"
	defaultTimeout    = 15 * time.Second
	maxRetries        = 3
	retryDelay        = 2 * time.Second
	userAgent         = "MarqueeCatalog/1.0"
	maxResponseSize   = 5 * 1024 * 1024 // 5MB
	breakerTripAfter  = 5
	breakerOpenPeriod = 30 * time.Second
)

type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Language          string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	RetryDelay        time.Duration
	UserAgent         string
	Logger            *logrus.Logger

	// BreakerTimeout is how long the breaker stays open once tripped.
	BreakerTimeout time.Duration
	// HTTPClient overrides the default transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// UpstreamClient talks to the metadata provider. It is built once at startup
// and shared by the resolver and the ingestion pipeline.
type UpstreamClient struct {
	baseURL    string
	apiKey     string
	language   string
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *logrus.Logger
}

func NewUpstreamClient(config *ClientConfig) *UpstreamClient {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.BaseURL == "" {
		config.BaseURL = tmdbAPIURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = maxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = retryDelay
	}
	if config.UserAgent == "" {
		config.UserAgent = userAgent
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = breakerOpenPeriod
	}

	limit := rate.Limit(config.RequestsPerSecond)
	if config.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	c := &UpstreamClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     strings.TrimSpace(config.APIKey),
		language:   config.Language,
		userAgent:  config.UserAgent,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     config.Logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		IsSuccessful: func(err error) bool {
			return !outage(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Upstream circuit breaker state changed")
		},
	})

	return c
}

// Configured reports whether a credential is present.
func (c *UpstreamClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// ListRequest maps a logical query onto a provider path and parameters.
// Genre or year filters go through discover since the list endpoints do not
// accept them.
func ListRequest(q models.QuerySpec) (string, url.Values) {
	segment := q.MediaType.UpstreamSegment()
	params := url.Values{}

	if q.GenreID != nil || q.Year != nil {
		params.Set("sort_by", "popularity.desc")
		if q.GenreID != nil {
			params.Set("with_genres", strconv.Itoa(*q.GenreID))
		}
		if q.Year != nil {
			key := "primary_release_year"
			if q.MediaType == models.MediaShow {
				key = "first_air_date_year"
			}
			params.Set(key, strconv.Itoa(*q.Year))
		}
		return "/discover/" + segment, params
	}

	switch q.Category {
	case models.CategoryTrending:
		return "/trending/" + segment + "/week", params
	case models.CategoryDiscover:
		params.Set("sort_by", "vote_count.desc")
		return "/discover/" + segment, params
	}
	return "/" + segment + "/" + string(q.Category), params
}

// RequestKey identifies a query independent of the credential.
func RequestKey(q models.QuerySpec) string {
	path, params := ListRequest(q)
	params.Set("page", strconv.Itoa(q.Page))
	return path + "?" + params.Encode()
}

// FetchList returns the raw body of one page of a list query.
func (c *UpstreamClient) FetchList(ctx context.Context, q models.QuerySpec) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrUpstreamDisabled
	}

	path, params := ListRequest(q)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("api_key", c.apiKey)
	if lang := strings.TrimSpace(c.language); lang != "" {
		params.Set("language", lang)
	}

	fullURL := c.baseURL + path + "?" + params.Encode()
	logURL := c.baseURL + path

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.makeRequest(ctx, fullURL, logURL)
	})
	if BreakerOpen(err) {
		return nil, &TransportError{URL: logURL, Err: err}
	}
	return body, err
}

func (c *UpstreamClient) makeRequest(ctx context.Context, fullURL, logURL string) ([]byte, error) {
	var rErr error

retry:
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: logURL, Err: err}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			rErr = &TransportError{URL: logURL, Err: err}
			c.retryLogger(attempt, logURL, err)
			if !c.waitForRetry(ctx, attempt) {
				break retry
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", logURL, ErrUpstreamAuth)
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", logURL, ErrUpstreamNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			rErr = &StatusError{Code: resp.StatusCode, URL: logURL}
			c.retryLogger(attempt, logURL, rErr)
			if !c.waitForRetry(ctx, attempt) {
				break retry
			}
			continue
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, URL: logURL}
		}

		body, err := readRespBody(resp)
		resp.Body.Close()
		if err != nil {
			rErr = &TransportError{URL: logURL, Err: err}
			c.retryLogger(attempt, logURL, err)
			if !c.waitForRetry(ctx, attempt) {
				break retry
			}
			continue
		}

		c.logger.WithFields(logrus.Fields{
			"url":           logURL,
			"attempt":       attempt,
			"status":        resp.StatusCode,
			"response_size": len(body),
		}).Debug("API request successful")

		return body, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxRetries, rErr)
}

func (c *UpstreamClient) retryLogger(attempt int, url string, err error) {
	c.logger.WithFields(logrus.Fields{
		"attempt": attempt + 1,
		"url":     url,
		"error":   err.Error(),
	}).Warn("API request failed, retrying...")
}

// waitForRetry sleeps before the next attempt and returns false when the
// context ends first.
func (c *UpstreamClient) waitForRetry(ctx context.Context, attempt int) bool {
	if attempt >= c.maxRetries-1 {
		return true
	}
	delay := time.Duration(attempt+1) * c.retryDelay
	c.logger.WithField("delay", delay).Debug("waiting before retry")

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func readRespBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > maxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes", resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("response too large: exceeded %d bytes", maxResponseSize)
	}
	return body, nil
}
