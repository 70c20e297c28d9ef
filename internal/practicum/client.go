// Package practicum fetches homework statuses from the Practicum API.
//
// The API returns homeworks newest-first; callers rely on that ordering
// when they inspect only the first entry.
package practicum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"homeworkbot/internal/homework"
	logx "homeworkbot/pkg/logx"
)

const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

// maxBodyBytes bounds the decoded answer size.
const maxBodyBytes = 4 << 20

type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client queries the homework status endpoint.
type Client struct {
	endpoint *url.URL
	token    string
	http     *http.Client
	log      logx.Logger
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("practicum token is empty")
	}
	raw := strings.TrimSpace(cfg.Endpoint)
	if raw == "" {
		raw = DefaultEndpoint
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		endpoint: u,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}, nil
}

// Fetch returns the decoded answer for homeworks changed since from (unix seconds).
// The result is left untyped; homework.CheckResponse validates its shape.
func (c *Client) Fetch(ctx context.Context, from int64) (any, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(from, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, homework.ResponseUnavailable("request failed", err)
	}
	defer resp.Body.Close()

	c.log.Debug("api answered",
		logx.Int("status", resp.StatusCode),
		logx.Int64("from_date", from),
		logx.Duration("took", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, homework.ResponseUnavailable("status "+strconv.Itoa(resp.StatusCode), nil)
	}

	var out any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}
