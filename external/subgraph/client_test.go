package subgraph

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nftearth/fortune/internal/domain/round"
)

const currentRoundBody = `{"data":{"rounds":[{
  "roundId":"12",
  "status":"Open",
  "cutoffTime":"1700000600",
  "duration":"600",
  "valuePerEntry":"10000000000000000",
  "numberOfEntries":"3",
  "numberOfParticipants":"2",
  "maximumNumberOfDeposits":"100",
  "maximumNumberOfParticipants":"50",
  "winner":"",
  "drawnHash":"",
  "protocolFeeBp":"300",
  "deposits":[
    {"id":"12-0","round":"12","depositor":"0xAAA","tokenAddress":"0x0000000000000000000000000000000000000000","tokenAmount":"20000000000000000","tokenId":null,"tokenType":"ETH","entriesCount":"2","indice":"0","claimed":false,"roundValuePerEntry":"10000000000000000"},
    {"id":"12-1","round":"12","depositor":"0xbbb","tokenAddress":"0xfff","tokenAmount":"10000000000000000","tokenId":null,"tokenType":"ERC20","entriesCount":"1","indice":"1","claimed":false,"roundValuePerEntry":"10000000000000000"}
  ]
}]}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{URL: server.URL})
}

func TestCurrentRound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(currentRoundBody))
	})

	r, err := c.CurrentRound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != 12 || r.Status != round.StatusOpen {
		t.Fatalf("unexpected round: %+v", r)
	}
	if len(r.Deposits) != 2 {
		t.Fatalf("deposits = %d, want 2", len(r.Deposits))
	}
	if r.Deposits[0].Depositor != "0xaaa" {
		t.Fatalf("depositor not normalized: %q", r.Deposits[0].Depositor)
	}
	if r.Deposits[0].EntriesCount != 2 {
		t.Fatalf("entries = %d, want 2", r.Deposits[0].EntriesCount)
	}
}

func TestMalformedPayloadsFailFast(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown status", body: `{"data":{"rounds":[{"roundId":"1","status":"WEIRD","cutoffTime":"1","duration":"1","valuePerEntry":"1","numberOfEntries":"0","numberOfParticipants":"0","maximumNumberOfDeposits":"1","maximumNumberOfParticipants":"1","protocolFeeBp":"0","deposits":[]}]}}`},
		{name: "non numeric round id", body: `{"data":{"rounds":[{"roundId":"abc","status":"OPEN","cutoffTime":"1","duration":"1","valuePerEntry":"1","numberOfEntries":"0","numberOfParticipants":"0","maximumNumberOfDeposits":"1","maximumNumberOfParticipants":"1","protocolFeeBp":"0","deposits":[]}]}}`},
		{name: "negative value per entry", body: `{"data":{"rounds":[{"roundId":"1","status":"OPEN","cutoffTime":"1","duration":"1","valuePerEntry":"-5","numberOfEntries":"0","numberOfParticipants":"0","maximumNumberOfDeposits":"1","maximumNumberOfParticipants":"1","protocolFeeBp":"0","deposits":[]}]}}`},
		{name: "missing data object", body: `{"ok":true}`},
		{name: "not json", body: `<html>gateway error</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.CurrentRound(context.Background())
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestGraphQLErrorSurfaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"indexing in progress"}]}`))
	})
	_, err := c.CurrentRound(context.Background())
	if err == nil || errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected graphql error, got %v", err)
	}
}

func TestRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(currentRoundBody))
	}))
	t.Cleanup(server.Close)

	c := NewClient(ClientConfig{URL: server.URL, MaxRetries: 2})
	r, err := c.CurrentRound(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != 12 {
		t.Fatalf("round id = %d, want 12", r.ID)
	}
	if hits.Load() != 2 {
		t.Fatalf("hits = %d, want 2", hits.Load())
	}
}

func TestRoundByIDMiss(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"rounds":[]}}`))
	})
	_, ok, err := c.RoundByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestAllowedCurrencies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"currencies":[{"address":"0xWETH","symbol":"WETH","decimals":"18","isAllowed":true}]}}`))
	})
	currencies, err := c.AllowedCurrencies(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(currencies) != 1 || currencies[0].Address != "0xweth" || currencies[0].Decimals != 18 {
		t.Fatalf("unexpected currencies: %+v", currencies)
	}
}
