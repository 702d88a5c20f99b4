package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/minishop-ledger/internal/application"
	appproduct "github.com/Zhima-Mochi/minishop-ledger/internal/application/product"
	appshop "github.com/Zhima-Mochi/minishop-ledger/internal/application/shop"
	appwallet "github.com/Zhima-Mochi/minishop-ledger/internal/application/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/identity"
	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	domproduct "github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
	domshop "github.com/Zhima-Mochi/minishop-ledger/internal/domain/shop"
	domwallet "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerCallerID       = "X-Caller-ID"
	maxBodyBytes         = 1 << 20
)

var errCallerRequired = errors.New("identity: " + headerCallerID + " header is required")

// Deps are the application entry points served over HTTP.
type Deps struct {
	RegisterShop application.UseCase[appshop.RegisterShopInput, domshop.Shop]
	Shops        *appshop.Service
	ListProduct  application.UseCase[appproduct.ListProductInput, domproduct.Record]
	Purchase     application.UseCase[appproduct.PurchaseInput, *appproduct.PurchaseResult]
	Products     *appproduct.Service
	CreditWallet application.UseCase[appwallet.CreditInput, money.Amount]
	Wallets      domwallet.Repository
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	deps Deps
	log  observability.Logger
	tel  observability.Observability

	httpRequests observability.Counter   // http_requests_total{method,route,status}
	httpDuration observability.Histogram // http_request_duration_seconds{method,route,status}
}

func NewHandler(deps Deps, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	return &Handler{
		deps:         deps,
		log:          baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:          tel,
		httpRequests: tel.Metrics().Counter(observability.MHTTPRequests),
		httpDuration: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, http.MethodPost, "/shop", h.handleRegisterShop)
	h.muxHandle(mux, http.MethodGet, "/shops", h.handleListShops)
	h.muxHandle(mux, http.MethodPost, "/product", h.handleListProduct)
	h.muxHandle(mux, http.MethodGet, "/product", h.handleGetProduct)
	h.muxHandle(mux, http.MethodGet, "/products", h.handleListProducts)
	h.muxHandle(mux, http.MethodPost, "/purchase", h.handlePurchase)
	h.muxHandle(mux, http.MethodPost, "/wallet/credit", h.handleCreditWallet)
	h.muxHandle(mux, http.MethodGet, "/wallet", h.handleGetWallet)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	if h.deps.Metrics != nil {
		mux.Handle("GET /metrics", h.deps.Metrics)
	}
	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, path string, handler http.HandlerFunc) {
	route := method + " " + path
	// Trace → request logger → HTTP metrics → access log → handler
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			func(r *http.Request) string { return r.Header.Get(headerCallerID) },
		)(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)
	mux.Handle(route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), route)))
	}))
}

type shopResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Owner    string `json:"owner"`
}

func toShopResponse(s domshop.Shop) shopResponse {
	return shopResponse{ID: s.ID, Name: s.Name, Location: s.Location, Owner: s.Owner.String()}
}

// productResponse renders shop_id as null for holdings.
type productResponse struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Category        string       `json:"category"`
	UnitPrice       money.Amount `json:"unit_price"`
	RemainingSupply uint64       `json:"remaining_supply"`
	Owner           string       `json:"owner"`
	ShopID          *string      `json:"shop_id"`
}

func toProductResponse(r domproduct.Record) productResponse {
	resp := productResponse{
		ID:              r.ID,
		Name:            r.Name,
		Category:        r.Category,
		UnitPrice:       r.UnitPrice,
		RemainingSupply: r.RemainingSupply,
		Owner:           r.Owner.String(),
	}
	if r.IsListing() {
		shopID := r.ShopID
		resp.ShopID = &shopID
	}
	return resp
}

func toProductResponses(recs []domproduct.Record) []productResponse {
	out := make([]productResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toProductResponse(r))
	}
	return out
}

type registerShopRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Handler) handleRegisterShop(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req registerShopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s, err := h.deps.RegisterShop.Execute(r.Context(), appshop.RegisterShopInput{
		Caller:   caller,
		ID:       req.ID,
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShopResponse(s))
}

func (h *Handler) handleListShops(w http.ResponseWriter, r *http.Request) {
	owner := identity.Identity(strings.TrimSpace(r.URL.Query().Get("owner")))
	if owner.IsZero() {
		writeError(w, http.StatusBadRequest, application.Validation("owner query parameter is required"))
		return
	}
	shops, err := h.deps.Shops.ListByOwner(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]shopResponse, 0, len(shops))
	for _, s := range shops {
		out = append(out, toShopResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

type listProductRequest struct {
	ShopID      string       `json:"shop_id"`
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	UnitPrice   money.Amount `json:"unit_price"`
	TotalSupply uint64       `json:"total_supply"`
	Owner       string       `json:"owner"`
}

func (h *Handler) handleListProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req listProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.deps.ListProduct.Execute(r.Context(), appproduct.ListProductInput{
		Caller:      caller,
		ShopID:      req.ShopID,
		ID:          req.ID,
		Name:        req.Name,
		Category:    req.Category,
		UnitPrice:   req.UnitPrice,
		TotalSupply: req.TotalSupply,
		Owner:       identity.Identity(req.Owner),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(rec))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.Products.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(rec))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shopID, owner := strings.TrimSpace(q.Get("shop_id")), strings.TrimSpace(q.Get("owner"))

	var (
		recs []domproduct.Record
		err  error
	)
	switch {
	case shopID != "" && owner == "":
		recs, err = h.deps.Products.ListByShop(r.Context(), shopID)
	case owner != "" && shopID == "":
		recs, err = h.deps.Products.ListByOwner(r.Context(), identity.Identity(owner))
	default:
		err = application.Validation("exactly one of shop_id or owner is required")
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(recs))
}

type purchaseRequest struct {
	ProductID string `json:"product_id"`
	Quantity  uint64 `json:"quantity"`
}

type settlementResponse struct {
	Payer     string       `json:"payer"`
	Payee     string       `json:"payee"`
	Amount    money.Amount `json:"amount"`
	Reference string       `json:"reference"`
}

type purchaseResponse struct {
	Sequence        uint64             `json:"sequence"`
	Listing         productResponse    `json:"listing"`
	Holding         productResponse    `json:"holding"`
	Total           money.Amount       `json:"total"`
	Settlement      settlementResponse `json:"settlement"`
	SettlementError string             `json:"settlement_error,omitempty"`
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	buyer, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.deps.Purchase.Execute(r.Context(), appproduct.PurchaseInput{
		Buyer:     buyer,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := purchaseResponse{
		Sequence: res.Sequence,
		Listing:  toProductResponse(res.Listing),
		Holding:  toProductResponse(res.Holding),
		Total:    res.Total,
		Settlement: settlementResponse{
			Payer:     res.Settlement.Payer.String(),
			Payee:     res.Settlement.Payee.String(),
			Amount:    res.Settlement.Amount,
			Reference: res.Settlement.Reference,
		},
	}
	if res.SettlementErr != nil {
		resp.SettlementError = res.SettlementErr.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

type creditWalletRequest struct {
	Owner  string       `json:"owner"`
	Amount money.Amount `json:"amount"`
}

// walletResponse reports Available, the balance minus funds held for unsettled
// purchases, on reads only.
type walletResponse struct {
	Owner     string        `json:"owner"`
	Balance   money.Amount  `json:"balance"`
	Available *money.Amount `json:"available,omitempty"`
}

func (h *Handler) handleCreditWallet(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req creditWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner := identity.Identity(req.Owner)
	if owner.IsZero() {
		owner = caller
	}

	balance, err := h.deps.CreditWallet.Execute(r.Context(), appwallet.CreditInput{Owner: owner, Amount: req.Amount})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Owner: owner.String(), Balance: balance})
}

func (h *Handler) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	owner := identity.Identity(strings.TrimSpace(r.URL.Query().Get("owner")))
	balance, err := appwallet.Balance(r.Context(), h.deps.Wallets, owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	available, err := appwallet.Available(r.Context(), h.deps.Wallets, owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Owner: owner.String(), Balance: balance, Available: &available})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func requireCaller(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	caller := identity.Identity(strings.TrimSpace(r.Header.Get(headerCallerID)))
	if caller.IsZero() {
		writeError(w, http.StatusUnauthorized, errCallerRequired)
		return "", false
	}
	return caller, true
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
