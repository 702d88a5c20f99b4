package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appproduct "github.com/Zhima-Mochi/minishop-ledger/internal/application/product"
	appshop "github.com/Zhima-Mochi/minishop-ledger/internal/application/shop"
	appwallet "github.com/Zhima-Mochi/minishop-ledger/internal/application/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/settlement"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/sqlite"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type sinkFunc func(context.Context, settlement.Instruction) error

func (f sinkFunc) Settle(ctx context.Context, in settlement.Instruction) error { return f(ctx, in) }

type server struct {
	*httptest.Server
	settled []settlement.Instruction
	reg     *prometheus.Registry
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{reg: prometheus.NewRegistry()}

	tel := infraobs.New(infraobs.WithMetrics(prometrics.Instruments(prometrics.NewWithRegisterer(s.reg, "", ""))))

	shops := memory.NewShopRepository()
	products := memory.NewProductRepository()
	wallets := memory.NewWalletRepository()
	shopSvc := appshop.NewService(shops)
	sink := sinkFunc(func(_ context.Context, in settlement.Instruction) error {
		s.settled = append(s.settled, in)
		return nil
	})

	h := NewHandler(Deps{
		RegisterShop: appshop.NewRegisterShopUseCase(shops, nil, tel),
		Shops:        shopSvc,
		ListProduct:  appproduct.NewListProductUseCase(products, shopSvc, nil, tel),
		Purchase:     appproduct.NewPurchaseUseCase(products, wallets, sink, nil, tel),
		Products:     appproduct.NewService(products),
		CreditWallet: appwallet.NewCreditUseCase(wallets, tel),
		Wallets:      wallets,
		Metrics:      promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}),
	}, nil, tel)

	s.Server = httptest.NewServer(h.Router())
	t.Cleanup(s.Close)
	return s
}

func (s *server) do(t *testing.T, method, path, caller, body string) (int, map[string]any, http.Header) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if caller != "" {
		req.Header.Set(headerCallerID, caller)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var raw any
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			t.Fatal(err)
		}
		switch v := raw.(type) {
		case map[string]any:
			out = v
		case []any:
			out = map[string]any{"items": v}
		}
	}
	return resp.StatusCode, out, resp.Header
}

func TestPurchaseFlowOverHTTP(t *testing.T) {
	s := newServer(t)

	if code, _, _ := s.do(t, http.MethodPost, "/shop", "A", `{"id":"s1","name":"Corner","location":"Main St"}`); code != http.StatusCreated {
		t.Fatalf("register shop: %d", code)
	}
	if code, _, _ := s.do(t, http.MethodPost, "/product", "A", `{"shop_id":"s1","id":"p1","name":"Widget","category":"tools","unit_price":"10","total_supply":5}`); code != http.StatusCreated {
		t.Fatalf("list product: %d", code)
	}
	if code, body, _ := s.do(t, http.MethodPost, "/wallet/credit", "B", `{"amount":"100"}`); code != http.StatusOK || body["balance"] != "100" {
		t.Fatalf("credit wallet: %d %v", code, body)
	}

	code, body, hdr := s.do(t, http.MethodPost, "/purchase", "B", `{"product_id":"p1","quantity":3}`)
	if code != http.StatusCreated {
		t.Fatalf("purchase: %d %v", code, body)
	}
	if hdr.Get(headerRequestID) == "" {
		t.Fatal("request id not echoed")
	}
	if body["total"] != "30" {
		t.Fatalf("total: %v", body["total"])
	}
	holding := body["holding"].(map[string]any)
	if holding["shop_id"] != nil || holding["owner"] != "B" || holding["remaining_supply"] != float64(3) {
		t.Fatalf("holding: %v", holding)
	}
	if len(s.settled) != 1 || s.settled[0].Payee != "A" || s.settled[0].Amount.String() != "30" {
		t.Fatalf("settlement: %+v", s.settled)
	}

	code, body, _ = s.do(t, http.MethodGet, "/product?id=p1", "", "")
	if code != http.StatusOK || body["remaining_supply"] != float64(2) || body["shop_id"] != "s1" {
		t.Fatalf("get product: %d %v", code, body)
	}

	code, body, _ = s.do(t, http.MethodGet, "/products?owner=B", "", "")
	if items := body["items"].([]any); code != http.StatusOK || len(items) != 1 {
		t.Fatalf("products by owner: %d %v", code, body)
	}

	code, body, _ = s.do(t, http.MethodPost, "/purchase", "B", `{"product_id":"p1","quantity":3}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("over purchase: want 422, got %d %v", code, body)
	}
	if len(s.settled) != 1 {
		t.Fatalf("failed purchase emitted settlement: %+v", s.settled)
	}

	code, body, _ = s.do(t, http.MethodGet, "/wallet?owner=B", "", "")
	if code != http.StatusOK || body["balance"] != "100" || body["available"] != "70" {
		t.Fatalf("wallet while settlement is pending: %d %v", code, body)
	}
	s.do(t, http.MethodPost, "/product", "A", `{"shop_id":"s1","id":"p2","name":"Lamp","unit_price":"50","total_supply":5}`)
	code, body, _ = s.do(t, http.MethodPost, "/purchase", "B", `{"product_id":"p2","quantity":2}`)
	if code != http.StatusPaymentRequired {
		t.Fatalf("purchase beyond held funds: want 402, got %d %v", code, body)
	}

	if n, err := testutil.GatherAndCount(s.reg, "http_requests_total"); err != nil || n == 0 {
		t.Fatalf("http metrics not recorded: %d %v", n, err)
	}
	code, _, _ = s.do(t, http.MethodGet, "/metrics", "", "")
	if code != http.StatusOK {
		t.Fatalf("metrics endpoint: %d", code)
	}
}

func TestStatusForStorageLimits(t *testing.T) {
	err := fmt.Errorf("%w: %w", appproduct.ErrRepository, sqlite.ErrSupplyRange)
	if got := statusFor(err); got != http.StatusUnprocessableEntity {
		t.Fatalf("supply beyond the store's range: want 422, got %d", got)
	}
	if got := statusFor(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("unknown error: want 500, got %d", got)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodPost, "/shop", "A", `{"id":"s1","name":"Corner","location":"Main St"}`)

	cases := []struct {
		name   string
		method string
		path   string
		caller string
		body   string
		want   int
	}{
		{"missing caller", http.MethodPost, "/shop", "", `{"id":"s2"}`, http.StatusUnauthorized},
		{"duplicate shop", http.MethodPost, "/shop", "B", `{"id":"s1"}`, http.StatusConflict},
		{"unknown field", http.MethodPost, "/shop", "A", `{"id":"s3","bogus":1}`, http.StatusBadRequest},
		{"not shop owner", http.MethodPost, "/product", "B", `{"shop_id":"s1","id":"p1","unit_price":"1","total_supply":1}`, http.StatusForbidden},
		{"unknown shop", http.MethodPost, "/product", "A", `{"shop_id":"nope","id":"p1","unit_price":"1","total_supply":1}`, http.StatusNotFound},
		{"zero price", http.MethodPost, "/product", "A", `{"shop_id":"s1","id":"p1","unit_price":"0","total_supply":1}`, http.StatusBadRequest},
		{"non numeric price", http.MethodPost, "/product", "A", `{"shop_id":"s1","id":"p1","unit_price":"1.5","total_supply":1}`, http.StatusBadRequest},
		{"unknown product", http.MethodGet, "/product?id=nope", "", "", http.StatusNotFound},
		{"ambiguous listing query", http.MethodGet, "/products?owner=A&shop_id=s1", "", "", http.StatusBadRequest},
		{"unknown product purchase", http.MethodPost, "/purchase", "B", `{"product_id":"p9","quantity":1}`, http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/shop", "A", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, body, _ := s.do(t, tc.method, tc.path, tc.caller, tc.body); code != tc.want {
				t.Fatalf("want %d, got %d %v", tc.want, code, body)
			}
		})
	}

	s.do(t, http.MethodPost, "/product", "A", `{"shop_id":"s1","id":"p1","name":"Widget","unit_price":"10","total_supply":5}`)
	if code, body, _ := s.do(t, http.MethodPost, "/purchase", "B", `{"product_id":"p1","quantity":1}`); code != http.StatusPaymentRequired {
		t.Fatalf("want 402 without funds, got %d %v", code, body)
	}

	code, body, _ := s.do(t, http.MethodGet, "/shops?owner=nobody", "", "")
	if items, ok := body["items"].([]any); code != http.StatusOK || !ok || len(items) != 0 {
		t.Fatalf("want empty list for unknown owner, got %d %v", code, body)
	}
}
