package oracle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/nftearth/fortune/internal/domain/selection"
	"github.com/nftearth/fortune/internal/platform/logging"
	"github.com/nftearth/fortune/internal/platform/resilience"
	"github.com/nftearth/fortune/internal/usecase"
)

var (
	errOracleTransient = crerr.New("oracle transient failure")

	// ErrNoAttestation marks a response that carries no usable signed
	// floor price for the collection.
	ErrNoAttestation = errors.New("no floor price attestation")
)

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
	Breaker    resilience.BreakerSettings
}

// Client fetches signed floor-price attestations from the price
// oracle. The attestation rides into the deposit transaction; the
// contract verifies the signature, so the client only checks shape.
type Client struct {
	http           *fasthttp.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.Breaker
	breakerEnabled bool
	flight         resilience.Flight[selection.Attestation]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     max(cfg.MaxRetries, 0),
		timeout:        timeout,
		logger:         logger.Named("oracle"),
		breaker:        resilience.NewBreaker(cfg.Breaker),
		breakerEnabled: cfg.Breaker.Enabled,
	}
}

type floorPriceResponse struct {
	Price   json.Number `json:"price"`
	Message struct {
		ID        string `json:"id"`
		Payload   string `json:"payload"`
		Timestamp int64  `json:"timestamp"`
		Signature string `json:"signature"`
	} `json:"message"`
}

// FloorPrice returns the signed floor price for a collection.
// Concurrent lookups for the same collection share one request.
func (c *Client) FloorPrice(ctx context.Context, collection string) (selection.Attestation, error) {
	collection = strings.ToLower(strings.TrimSpace(collection))
	if collection == "" {
		return selection.Attestation{}, fmt.Errorf("%w: collection is required", usecase.ErrInvalidInput)
	}

	if c.breakerEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.Warn(ctx, "breaker rejected oracle request", "state", c.breaker.State().String())
			return selection.Attestation{}, fmt.Errorf("%w: price oracle is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	att, err, _ := c.flight.Do(collection, func() (selection.Attestation, error) {
		att, reqErr := c.fetch(ctx, collection)
		if c.breakerEnabled {
			if reqErr != nil && crerr.Is(reqErr, errOracleTransient) {
				c.breaker.Observe(reqErr)
			} else {
				c.breaker.Observe(nil)
			}
		}
		return att, reqErr
	})
	return att, err
}

func (c *Client) fetch(ctx context.Context, collection string) (selection.Attestation, error) {
	uri := bytebufferpool.Get()
	defer bytebufferpool.Put(uri)
	uri.WriteString(c.baseURL)
	uri.WriteString("/oracle/collections/floor-ask/v6?kind=twap&currency=eth&collection=")
	uri.WriteString(collection)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return selection.Attestation{}, err
		}

		raw, status, err := c.doRequest(uri.String())
		switch {
		case err != nil:
			lastErr = fmt.Errorf("%w: send request: %v", errOracleTransient, err)
		case status >= 200 && status < 300:
			return parseAttestation(raw)
		case status == fasthttp.StatusTooManyRequests || status >= 500:
			lastErr = fmt.Errorf("%w: oracle status=%d", errOracleTransient, status)
		default:
			return selection.Attestation{}, fmt.Errorf("oracle status=%d", status)
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * 500 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return selection.Attestation{}, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("oracle request failed")
	}
	c.logger.Warn(ctx, "oracle request failed", "collection", collection, "error", lastErr)
	return selection.Attestation{}, lastErr
}

func (c *Client) doRequest(uri string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, 0, err
	}
	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func parseAttestation(raw []byte) (selection.Attestation, error) {
	var payload floorPriceResponse
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return selection.Attestation{}, fmt.Errorf("decode oracle payload: %w", err)
	}

	price, err := priceToWei(string(payload.Price))
	if err != nil {
		return selection.Attestation{}, err
	}

	att := selection.Attestation{
		ID:        strings.TrimSpace(payload.Message.ID),
		Payload:   decodeHex(payload.Message.Payload),
		Timestamp: payload.Message.Timestamp,
		Signature: decodeHex(payload.Message.Signature),
		Price:     price,
	}
	if !att.Valid() {
		return selection.Attestation{}, ErrNoAttestation
	}
	return att, nil
}

// priceToWei converts the oracle's decimal ETH price to wei, flooring
// sub-wei precision.
func priceToWei(price string) (*big.Int, error) {
	price = strings.TrimSpace(price)
	if price == "" {
		return nil, ErrNoAttestation
	}
	r, ok := new(big.Rat).SetString(price)
	if !ok || r.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price %q", ErrNoAttestation, price)
	}
	r.Mul(r, new(big.Rat).SetInt(big.NewInt(1e18)))
	return new(big.Int).Quo(r.Num(), r.Denom()), nil
}

func decodeHex(value string) []byte {
	value = strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if value == "" {
		return nil
	}
	out, err := hex.DecodeString(value)
	if err != nil {
		return nil
	}
	return out
}
