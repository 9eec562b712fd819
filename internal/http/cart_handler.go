package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type CartHandler struct {
	carts   *cart.Registry
	catalog Catalog
	bill    pricing.BillOptions
	locale  language.Tag
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(carts *cart.Registry, catalog Catalog, bill pricing.BillOptions, locale language.Tag, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		bill:    bill,
		locale:  locale,
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// BillResponse is the priced cart with display strings for the totals.
type BillResponse struct {
	*domain.Order
	Formatted FormattedAmounts `json:"formatted"`
}

type FormattedAmounts struct {
	OrderAmount string `json:"order_amount"`
	BillAmount  string `json:"bill_amount"`
}

func (h *CartHandler) store(ctx context.Context) (*cart.Store, error) {
	return h.carts.Get(ctx, ownerFromContext(ctx))
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.State())
}

// GetBill prices the cart with the store-wide tax and fees.
func (h *CartHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		handleError(w, err)
		return
	}

	order, err := pricing.BuildOrder(s.Items(), h.bill)
	if errors.Is(err, pricing.ErrNoItems) {
		order = &domain.Order{
			Items:       []domain.OrderItem{},
			BillDetails: []domain.BillDetail{},
			Currency:    h.bill.Currency,
			CreatedAt:   time.Now(),
		}
	} else if err != nil {
		handleError(w, fmt.Errorf("%w: %w", checkout.ErrPricing, err))
		return
	}

	resp := BillResponse{Order: order}
	if resp.Formatted, err = h.format(order.OrderAmount, order.BillAmount); err != nil {
		h.logger.Warn("currency formatting failed", zap.String("currency", order.Currency), zap.Error(err))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) format(orderAmount, billAmount decimal.Decimal) (FormattedAmounts, error) {
	var f FormattedAmounts
	var err error
	if f.OrderAmount, err = pricing.FormatCurrency(h.locale, orderAmount, h.bill.Currency, h.bill.Places); err != nil {
		return FormattedAmounts{}, err
	}
	if f.BillAmount, err = pricing.FormatCurrency(h.locale, billAmount, h.bill.Currency, h.bill.Places); err != nil {
		return FormattedAmounts{}, err
	}
	return f, nil
}

// AddItem looks the product up in the catalog and merges it into the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleError(w, err)
		return
	}

	s, err := h.store(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := s.AddToCart(ctx, product.ToCartItem(req.Quantity)); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, s.State())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s, err := h.store(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := s.UpdateQuantity(ctx, productID, req.Quantity); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.State())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	s, err := h.store(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := s.RemoveFromCart(ctx, productID); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.State())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := s.ClearCart(ctx); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.State())
}

// Events streams the cart as server-sent events: the current state first, then one event
// per change until the client goes away.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	loadCtx, cancel := context.WithTimeout(r.Context(), h.timeout)
	s, err := h.store(loadCtx)
	cancel()
	if err != nil {
		handleError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	// the stream outlives the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	updates := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func([]domain.CartItem) {
		select {
		case updates <- struct{}{}:
		default: // a wake-up is already pending; it will read the latest state
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func() bool {
		data, err := json.Marshal(s.State())
		if err != nil {
			h.logger.Error("encode cart event failed", zap.Error(err))
			return false
		}
		if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-updates:
			if !send() {
				return
			}
		}
	}
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
