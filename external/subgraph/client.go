package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/platform/logging"
	"github.com/nftearth/fortune/internal/platform/resilience"
	"github.com/nftearth/fortune/internal/usecase"
)

var errSubgraphTransient = crerr.New("subgraph transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	URL        string
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
	Breaker    resilience.BreakerSettings
}

// Client reads Fortune round state from the GraphQL indexer. Every
// response is schema-validated at this boundary; malformed payloads
// come back as ErrMalformedPayload, never as zero values.
type Client struct {
	httpClient     *http.Client
	url            string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.Breaker
	breakerEnabled bool
	flight         resilience.Flight[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	return &Client{
		httpClient:     httpClient,
		url:            strings.TrimSpace(cfg.URL),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger.Named("subgraph"),
		breaker:        resilience.NewBreaker(cfg.Breaker),
		breakerEnabled: cfg.Breaker.Enabled,
	}
}

func (c *Client) CurrentRound(ctx context.Context) (round.Round, error) {
	var out struct {
		Rounds []roundPayload `json:"rounds"`
	}
	if err := c.query(ctx, queryCurrentRound, nil, &out); err != nil {
		return round.Round{}, err
	}
	if len(out.Rounds) == 0 {
		return round.Round{}, fmt.Errorf("%w: no open round", usecase.ErrNotFound)
	}
	return out.Rounds[0].toDomain()
}

func (c *Client) RoundByID(ctx context.Context, roundID uint64) (round.Round, bool, error) {
	var out struct {
		Rounds []roundPayload `json:"rounds"`
	}
	vars := map[string]any{"roundId": fmt.Sprintf("%d", roundID)}
	if err := c.query(ctx, queryRoundByID, vars, &out); err != nil {
		return round.Round{}, false, err
	}
	if len(out.Rounds) == 0 {
		return round.Round{}, false, nil
	}
	r, err := out.Rounds[0].toDomain()
	if err != nil {
		return round.Round{}, false, err
	}
	return r, true, nil
}

func (c *Client) HistoryRounds(ctx context.Context, first, skip int) ([]round.Round, error) {
	var out struct {
		Rounds []roundPayload `json:"rounds"`
	}
	vars := map[string]any{"first": first, "skip": skip}
	if err := c.query(ctx, queryHistoryRounds, vars, &out); err != nil {
		return nil, err
	}

	rounds := make([]round.Round, 0, len(out.Rounds))
	for _, p := range out.Rounds {
		r, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, nil
}

func (c *Client) DepositsToWithdraw(ctx context.Context, account string) ([]round.Deposit, error) {
	var out struct {
		Deposits []depositPayload `json:"deposits"`
	}
	vars := map[string]any{"depositor": strings.ToLower(strings.TrimSpace(account))}
	if err := c.query(ctx, queryDepositsToWithdraw, vars, &out); err != nil {
		return nil, err
	}

	deposits := make([]round.Deposit, 0, len(out.Deposits))
	for _, p := range out.Deposits {
		d, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, nil
}

func (c *Client) WonRounds(ctx context.Context, account string) ([]round.Round, error) {
	var out struct {
		Rounds []roundPayload `json:"rounds"`
	}
	vars := map[string]any{"winner": strings.ToLower(strings.TrimSpace(account))}
	if err := c.query(ctx, queryWonRounds, vars, &out); err != nil {
		return nil, err
	}

	rounds := make([]round.Round, 0, len(out.Rounds))
	for _, p := range out.Rounds {
		r, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, nil
}

func (c *Client) AllowedCurrencies(ctx context.Context) ([]usecase.Currency, error) {
	var out struct {
		Currencies []currencyPayload `json:"currencies"`
	}
	if err := c.query(ctx, queryAllowedCurrencies, nil, &out); err != nil {
		return nil, err
	}

	currencies := make([]usecase.Currency, 0, len(out.Currencies))
	for _, p := range out.Currencies {
		cur, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, cur)
	}
	return currencies, nil
}

// query posts one GraphQL operation and decodes data into target.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, target any) error {
	if c.breakerEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.Warn(ctx, "breaker rejected subgraph request", "state", c.breaker.State().String())
			return fmt.Errorf("%w: indexer is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	body, err := sonic.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	key := query + string(body)
	raw, err, _ := c.flight.Do(key, func() ([]byte, error) {
		raw, reqErr := c.post(ctx, body)
		if c.breakerEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSubgraphTransient) {
				c.breaker.Observe(reqErr)
			} else {
				c.breaker.Observe(nil)
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: decode graphql envelope: %v", ErrMalformedPayload, err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("%w: empty data object", ErrMalformedPayload)
	}
	if err := sonic.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("%w: decode graphql data: %v", ErrMalformedPayload, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("content-type", "application/json")
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSubgraphTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSubgraphTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				lastErr = fmt.Errorf("%w: indexer status=%d", errSubgraphTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("indexer status=%d body=%s", resp.StatusCode, abbreviate(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * 500 * time.Millisecond
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("indexer request failed")
	}
	c.logger.Warn(ctx, "subgraph request failed", "url", c.url, "error", lastErr)
	return nil, lastErr
}

func abbreviate(raw []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
