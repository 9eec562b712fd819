package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_market/internal/backend"
	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/domain"
	"github.com/fjod/go_market/internal/pricing"
	"github.com/fjod/go_market/internal/repository"
	"github.com/fjod/go_market/internal/session"
	"github.com/fjod/go_market/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"
)

const testOwner = "user-1"

var testBill = pricing.BillOptions{
	Currency:   "USD",
	TaxPercent: decimal.NewFromInt(8),
	Fees:       []pricing.Fee{{Description: "Service fee", Amount: decimal.RequireFromString("1.00")}},
	Places:     pricing.DefaultPlaces,
}

var testAddress = domain.ShippingAddress{
	FullName: "Ann Lee",
	Phone:    "555-0100",
	Street:   "1 Main St",
	City:     "Springfield",
}

type fakeCatalog struct {
	products map[int64]*domain.Product
	err      error
}

func (c *fakeCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, &backend.APIError{StatusCode: http.StatusNotFound, Code: 404, Message: "product not found"}
	}
	return p, nil
}

func (c *fakeCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *p)
	}
	return out, nil
}

type fakeProfiles struct {
	profile   *domain.UserProfile
	addresses []domain.ShippingAddress
	err       error
	tokens    []string // access tokens GetProfile was called with
}

func (p *fakeProfiles) GetProfile(ctx context.Context) (*domain.UserProfile, error) {
	p.tokens = append(p.tokens, session.AccessToken(ctx))
	return p.profile, p.err
}

func (p *fakeProfiles) ListAddresses(context.Context) ([]domain.ShippingAddress, error) {
	return p.addresses, p.err
}

type fakeOrders struct {
	mu     sync.Mutex
	err    error
	keys   []string
	orders []*domain.Order
}

func (o *fakeOrders) SubmitOrder(_ context.Context, key string, order *domain.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.keys = append(o.keys, key)
	o.orders = append(o.orders, order)
	return o.err
}

type fakeLedger struct {
	mu       sync.Mutex
	attempts map[string]repository.Attempt
}

func (l *fakeLedger) GetAttempt(_ context.Context, key string) (*repository.Attempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.attempts[key]
	if !ok {
		return nil, repository.ErrAttemptNotFound
	}
	return &a, nil
}

func (l *fakeLedger) SaveAttempt(_ context.Context, a *repository.Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts[a.Key] = *a
	return nil
}

type fixture struct {
	router    http.Handler
	storage   *storage.MemoryStorage
	carts     *cart.Registry
	sessions  *checkout.Sessions
	tokens    *session.TokenStore
	redis     *miniredis.Miniredis
	catalog   *fakeCatalog
	profiles  *fakeProfiles
	orders    *fakeOrders
	token     string
	sessionID string
}

func newFixture(t *testing.T) *fixture {
	logger := zaptest.NewLogger(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &fixture{
		storage: storage.NewMemoryStorage(),
		tokens:  session.NewTokenStore(client, 30*time.Minute),
		redis:   mr,
		catalog: &fakeCatalog{products: map[int64]*domain.Product{
			1: {ID: 1, Name: "Apples", Price: decimal.RequireFromString("2.50"), Stock: 5},
			2: {ID: 2, Name: "Milk", Price: decimal.RequireFromString("1.99"), Stock: 0},
		}},
		profiles: &fakeProfiles{profile: &domain.UserProfile{ID: testOwner, FullName: "Ann Lee"}},
		orders:   &fakeOrders{},
		token:    accessToken(t, testOwner),
	}
	f.carts = cart.NewRegistry(f.storage, logger)
	f.sessions = checkout.NewSessions(f.orders, &fakeLedger{attempts: map[string]repository.Attempt{}}, testBill, logger)

	f.router = NewRouter(RouterConfig{
		Tokens:             f.tokens,
		Cart:               NewCartHandler(f.carts, f.catalog, testBill, language.AmericanEnglish, 5*time.Second, logger),
		Checkout:           NewCheckoutHandler(f.carts, f.sessions, 5*time.Second),
		Session:            NewSessionHandler(f.tokens, f.profiles, f.carts, f.sessions, 5*time.Second, logger),
		Profile:            NewProfileHandler(f.profiles, 5*time.Second),
		Product:            NewProductHandler(f.catalog, 5*time.Second),
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	})

	id, err := f.tokens.Save(context.Background(), session.Record{
		Subject:   testOwner,
		TokenPair: session.TokenPair{AccessToken: f.token},
	}, false)
	require.NoError(t, err)
	f.sessionID = id
	return f
}

func accessToken(t *testing.T, sub string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

// do sends a request through the router on the fixture's session.
func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	req := newRequest(t, method, path, body)
	req.Header.Set(SessionHeader, f.sessionID)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func newRequest(t *testing.T, method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, path, &buf)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}
