package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Pauloph98/giocakes/internal/cart/catalog"
	"github.com/Pauloph98/giocakes/internal/cart/domain"
	"github.com/Pauloph98/giocakes/internal/cart/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCartAPI struct {
	addErr       error
	updateErr    error
	storeOK      bool
	catalogOK    bool
	clearedID    string
	lastAdd      AddItemRequestDTO
	lastQuantity int
}

func (f *fakeCartAPI) CreateSession(context.Context) (*service.Session, error) {
	return &service.Session{
		SessionID: "session-1",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

func (f *fakeCartAPI) GetCart(_ context.Context, sessionID string) (*service.CartView, error) {
	return &service.CartView{SessionID: sessionID, Items: []service.CartViewItem{}}, nil
}

func (f *fakeCartAPI) AddItem(_ context.Context, sessionID string, productID int64, quantity int) (*domain.Cart, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.lastAdd = AddItemRequestDTO{ProductID: productID, Quantity: quantity}
	return &domain.Cart{
		SessionID: sessionID,
		Items:     []domain.CartItem{{ProductID: productID, Quantity: quantity}},
	}, nil
}

func (f *fakeCartAPI) UpdateQuantity(_ context.Context, sessionID string, productID int64, quantity int) (*domain.Cart, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.lastQuantity = quantity
	return &domain.Cart{
		SessionID: sessionID,
		Items:     []domain.CartItem{{ProductID: productID, Quantity: quantity}},
	}, nil
}

func (f *fakeCartAPI) RemoveItem(_ context.Context, sessionID string, _ int64) (*domain.Cart, error) {
	return &domain.Cart{SessionID: sessionID, Items: []domain.CartItem{}}, nil
}

func (f *fakeCartAPI) ClearCart(_ context.Context, sessionID string) error {
	f.clearedID = sessionID
	return nil
}

func (f *fakeCartAPI) Health(context.Context) (bool, bool) {
	return f.storeOK, f.catalogOK
}

func newTestServer(api *fakeCartAPI) *httptest.Server {
	h := NewCartHandler(api, zap.NewNop(), 5*time.Second)
	return httptest.NewServer(h.Routes())
}

func decodeResponse(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()
	defer resp.Body.Close()

	var body apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateSession(t *testing.T) {
	srv := newTestServer(&fakeCartAPI{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cart/session", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.True(t, body.Success)

	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "session-1", data["session_id"])
}

func TestGetCart(t *testing.T) {
	srv := newTestServer(&fakeCartAPI{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/cart/session-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.True(t, body.Success)
}

func TestAddItem(t *testing.T) {
	api := &fakeCartAPI{}
	srv := newTestServer(api)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cart/session-1/items", `{"product_id": 3, "quantity": 2}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, int64(3), api.lastAdd.ProductID)
	assert.Equal(t, 2, api.lastAdd.Quantity)
}

func TestAddItem_BadRequests(t *testing.T) {
	srv := newTestServer(&fakeCartAPI{})
	defer srv.Close()

	for _, body := range []string{`not json`, `{"product_id": 0, "quantity": 1}`, `{"quantity": 1}`} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/cart/session-1/items", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		resp.Body.Close()
	}
}

func TestAddItem_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid quantity", service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_input"},
		{"insufficient stock", service.ErrInsufficientStock, http.StatusBadRequest, "insufficient_stock"},
		{"unknown product", catalog.ErrProductNotFound, http.StatusNotFound, "not_found"},
		{"catalog unavailable", catalog.ErrUnavailable, http.StatusServiceUnavailable, "dependency_unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&fakeCartAPI{addErr: tc.err})
			defer srv.Close()

			resp := doJSON(t, http.MethodPost, srv.URL+"/api/cart/session-1/items", `{"product_id": 1, "quantity": 1}`)
			assert.Equal(t, tc.status, resp.StatusCode)

			body := decodeResponse(t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	api := &fakeCartAPI{}
	srv := newTestServer(api)
	defer srv.Close()

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/cart/session-1/items/3", `{"quantity": 5}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 5, api.lastQuantity)
}

func TestUpdateQuantity_ItemNotFound(t *testing.T) {
	srv := newTestServer(&fakeCartAPI{updateErr: service.ErrItemNotFound})
	defer srv.Close()

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/cart/session-1/items/3", `{"quantity": 5}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.Equal(t, "not_found", body.Code)
}

func TestUpdateQuantity_InvalidProductID(t *testing.T) {
	srv := newTestServer(&fakeCartAPI{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/cart/session-1/items/abc", `{"quantity": 5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRemoveItem(t *testing.T) {
	srv := newTestServer(&fakeCartAPI{})
	defer srv.Close()

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/cart/session-1/items/3", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeResponse(t, resp)
	assert.True(t, body.Success)
}

func TestClearCart(t *testing.T) {
	api := &fakeCartAPI{}
	srv := newTestServer(api)
	defer srv.Close()

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/cart/session-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, "session-1", api.clearedID)
}

func TestHealthCheck_States(t *testing.T) {
	cases := []struct {
		name      string
		storeOK   bool
		catalogOK bool
		status    int
		state     string
	}{
		{"healthy", true, true, http.StatusOK, "healthy"},
		{"degraded when catalog is down", true, false, http.StatusOK, "degraded"},
		{"unhealthy when store is down", false, true, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&fakeCartAPI{storeOK: tc.storeOK, catalogOK: tc.catalogOK})
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.state, body["status"])
			assert.Equal(t, "cart", body["service"])
		})
	}
}
