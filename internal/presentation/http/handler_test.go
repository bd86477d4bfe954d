package httppresentation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appCatalog "github.com/keisui/shopcore/internal/application/catalog"
	appOrder "github.com/keisui/shopcore/internal/application/order"
	"github.com/keisui/shopcore/internal/application/reservation"
	"github.com/keisui/shopcore/internal/infrastructure/id"
	"github.com/keisui/shopcore/internal/infrastructure/memory"
	"github.com/keisui/shopcore/internal/infrastructure/memtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	idGen := id.NewUUIDGenerator()

	engine := reservation.NewEngine(products)
	orderService := appOrder.NewService(orders, engine, memtx.NewManager(), idGen, nil)
	catalogService := appCatalog.NewService(products, idGen)

	return NewHandler(orderService, catalogService, nil, nil).Router()
}

func do(t *testing.T, router http.Handler, method, target, actorID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
	}
	if role != "" {
		req.Header.Set("X-Actor-Role", role)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func createProduct(t *testing.T, router http.Handler, name string, price int64, stock int) productResponse {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/products", "root", "admin", createProductRequest{
		Name: name, Price: price, Stock: stock,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[productResponse](t, rec)
}

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	router := newTestRouter()

	rec := do(t, router, http.MethodPost, "/products", "user-1", "customer", createProductRequest{
		Name: "Mug", Price: 900, Stock: 5,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPost, "/products", "root", "admin", createProductRequest{
		Name: "Mug", Price: 900, Stock: 5,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter()
	product := createProduct(t, router, "Espresso Beans", 1850, 10)

	// create
	rec := do(t, router, http.MethodPost, "/orders", "user-1", "customer", createOrderRequest{
		Items: []orderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[orderResponse](t, rec)
	assert.Equal(t, "user-1", created.UserID)
	assert.Equal(t, int64(3700), created.Total)
	assert.Equal(t, "created", string(created.Status))

	// stock visible through the catalog
	rec = do(t, router, http.MethodGet, "/products", "user-1", "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]productResponse](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, 8, listed[0].Stock)

	// pay, twice (second is an idempotent replay)
	rec = do(t, router, http.MethodPost, "/orders/"+created.ID+"/pay", "user-1", "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid", string(decode[orderResponse](t, rec).Status))

	rec = do(t, router, http.MethodPost, "/orders/"+created.ID+"/pay", "user-1", "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid", string(decode[orderResponse](t, rec).Status))

	// owner cannot cancel a paid order
	rec = do(t, router, http.MethodPost, "/orders/"+created.ID+"/cancel", "user-1", "customer", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// admin can; stock comes back
	rec = do(t, router, http.MethodPost, "/orders/"+created.ID+"/cancel", "root", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", string(decode[orderResponse](t, rec).Status))

	rec = do(t, router, http.MethodGet, "/products", "user-1", "customer", nil)
	listed = decode[[]productResponse](t, rec)
	assert.Equal(t, 10, listed[0].Stock)
}

func TestGetProduct(t *testing.T) {
	router := newTestRouter()
	product := createProduct(t, router, "Espresso Beans", 1850, 10)

	rec := do(t, router, http.MethodGet, "/products/"+product.ID, "user-1", "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[productResponse](t, rec)
	assert.Equal(t, product.ID, got.ID)
	assert.Equal(t, int64(1850), got.Price)

	rec = do(t, router, http.MethodGet, "/products/ghost", "user-1", "customer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	router := newTestRouter()
	product := createProduct(t, router, "Grinder", 7900, 1)

	rec := do(t, router, http.MethodPost, "/orders", "user-1", "customer", createOrderRequest{
		Items: []orderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateOrder_Validation(t *testing.T) {
	router := newTestRouter()

	rec := do(t, router, http.MethodPost, "/orders", "user-1", "customer", createOrderRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_ScopedByRole(t *testing.T) {
	router := newTestRouter()
	product := createProduct(t, router, "Filters", 450, 100)

	for _, user := range []string{"user-1", "user-2", "user-1"} {
		rec := do(t, router, http.MethodPost, "/orders", user, "customer", createOrderRequest{
			Items: []orderItemRequest{{ProductID: product.ID, Quantity: 1}},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, router, http.MethodGet, "/orders", "user-1", "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderResponse](t, rec), 2)

	rec = do(t, router, http.MethodGet, "/orders", "root", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderResponse](t, rec), 3)
}

func TestMissingActorIsUnauthorized(t *testing.T) {
	router := newTestRouter()

	rec := do(t, router, http.MethodGet, "/orders", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRoleFallsBackToCustomer(t *testing.T) {
	router := newTestRouter()

	rec := do(t, router, http.MethodPost, "/products", "user-1", "superuser", createProductRequest{
		Name: "Mug", Price: 900, Stock: 5,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPayUnknownOrder(t *testing.T) {
	router := newTestRouter()

	rec := do(t, router, http.MethodPost, "/orders/ghost/pay", "user-1", "customer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter()

	rec := do(t, router, http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
