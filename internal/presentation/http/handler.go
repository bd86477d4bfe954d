package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	appCatalog "github.com/keisui/shopcore/internal/application/catalog"
	appOrder "github.com/keisui/shopcore/internal/application/order"
	"github.com/keisui/shopcore/internal/application/reservation"
	"github.com/keisui/shopcore/internal/domain/actor"
	domainCatalog "github.com/keisui/shopcore/internal/domain/catalog"
	domainOrder "github.com/keisui/shopcore/internal/domain/order"
	"github.com/keisui/shopcore/internal/observability"
)

const (
	componentHTTPHandler = "http_server"

	// The boundary layer upstream authenticates callers; these headers carry
	// the resulting identity into the transport-agnostic actor context.
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

type Handler struct {
	orders  *appOrder.Service
	catalog *appCatalog.Service
	log     observability.Logger
	tel     observability.Observability
}

func NewHandler(orders *appOrder.Service, catalog *appCatalog.Service, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if logger == nil {
		logger = tel.Logger()
	}
	return &Handler{
		orders:  orders,
		catalog: catalog,
		log:     logger.With(observability.F("component", componentHTTPHandler)),
		tel:     tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.handle(mux, "POST /orders", h.handleCreateOrder)
	h.handle(mux, "GET /orders", h.handleListOrders)
	h.handle(mux, "POST /orders/{id}/pay", h.handlePayOrder)
	h.handle(mux, "POST /orders/{id}/cancel", h.handleCancelOrder)
	h.handle(mux, "POST /products", h.handleCreateProduct)
	h.handle(mux, "GET /products", h.handleListProducts)
	h.handle(mux, "GET /products/{id}", h.handleGetProduct)
	h.handle(mux, "GET /health", h.handleHealth)

	return mux
}

// handle wires one route with the observability chain:
// trace span → request logger + metrics → access log → handler.
func (h *Handler) handle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stable route template keeps metric labels low-cardinality.
		ctx := contextWithRoute(r.Context(), pattern)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(h.log, h.tel)(
				h.withAccessLog(handler),
			),
		)
		wrapped.ServeHTTP(w, r)
	}))
}

// actorFrom extracts the authenticated identity. An unknown role falls
// back to customer so header tampering can never grant privilege.
func actorFrom(r *http.Request) (actor.Actor, bool) {
	id := r.Header.Get(headerActorID)
	if id == "" {
		return actor.Actor{}, false
	}
	role := actor.RoleCustomer
	if actor.Role(r.Header.Get(headerActorRole)) == actor.RoleAdmin {
		role = actor.RoleAdmin
	}
	return actor.Actor{ID: id, Role: role}, true
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	// UserID lets an admin create an order on a customer's behalf; everyone
	// else orders for themselves.
	UserID string             `json:"user_id,omitempty"`
	Items  []orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Items     []orderItemResponse `json:"items"`
	Total     int64               `json:"total"`
	Status    domainOrder.Status  `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Items:     items,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity is required"))
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	userID := act.ID
	if req.UserID != "" && act.IsAdmin() {
		userID = req.UserID
	}

	demands := make([]reservation.Demand, 0, len(req.Items))
	for _, item := range req.Items {
		demands = append(demands, reservation.Demand{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	created, err := h.orders.Create(r.Context(), appOrder.CreateOrderInput{
		UserID: userID,
		Items:  demands,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity is required"))
		return
	}

	orders, err := h.orders.List(r.Context(), act)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePayOrder(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity is required"))
		return
	}

	paid, err := h.orders.Pay(r.Context(), r.PathValue("id"), act)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(paid))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity is required"))
		return
	}

	cancelled, err := h.orders.Cancel(r.Context(), r.PathValue("id"), act)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(cancelled))
}

type createProductRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

type productResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

func toProductResponse(p *domainCatalog.Product) productResponse {
	return productResponse{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("actor identity is required"))
		return
	}

	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.catalog.Create(r.Context(), act, appCatalog.CreateProductInput{
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError translates the core error taxonomy into HTTP statuses:
// invalid input 400, forbidden 403, not found 404, stock/state conflicts 409.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainOrder.ErrInvalidInput),
		errors.Is(err, domainCatalog.ErrInvalidQuantity),
		errors.Is(err, domainCatalog.ErrInvalidPrice),
		errors.Is(err, domainCatalog.ErrInvalidStock),
		errors.Is(err, domainCatalog.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domainOrder.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainCatalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainCatalog.ErrInsufficientStock),
		errors.Is(err, domainOrder.ErrInvalidTransition),
		errors.Is(err, domainOrder.ErrConflict):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
