package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/middleware"
	"github.com/sajian-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, tenant service.Tenant, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateOrder(ctx context.Context, tenant service.Tenant, orderID uuid.UUID, req service.UpdateOrderRequest) (*database.Order, error)
	DeleteOrder(ctx context.Context, tenant service.Tenant, orderID uuid.UUID) error
	AddItem(ctx context.Context, tenant service.Tenant, orderID uuid.UUID, req service.CreateOrderItemRequest) (*service.OrderItemResult, error)
	UpdateItem(ctx context.Context, tenant service.Tenant, orderID, itemID uuid.UUID, req service.UpdateOrderItemRequest) (*service.OrderItemResult, error)
	UpdateItemStatus(ctx context.Context, tenant service.Tenant, orderID, itemID uuid.UUID, status string) (*database.OrderItem, error)
	DeleteItem(ctx context.Context, tenant service.Tenant, orderID, itemID uuid.UUID) error
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemDetailsByItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemDetail, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/items", h.AddItem)
	r.Patch("/{id}/items/{itemID}", h.UpdateItem)
	r.Patch("/{id}/items/{itemID}/status", h.UpdateItemStatus)
	r.Delete("/{id}/items/{itemID}", h.DeleteItem)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderNo    string                   `json:"order_no"`
	OrderType  string                   `json:"order_type"`
	TableID    string                   `json:"table_id"`
	DeliveryID string                   `json:"delivery_id"`
	DiscountID string                   `json:"discount_id"`
	Notes      string                   `json:"notes"`
	Status     string                   `json:"status"`
	Items      []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ProductID      string                         `json:"product_id"`
	Quantity       int32                          `json:"quantity"`
	DiscountAmount string                         `json:"discount_amount"`
	Notes          string                         `json:"notes"`
	Details        []createOrderItemDetailRequest `json:"details"`
}

type createOrderItemDetailRequest struct {
	Name       string `json:"name"`
	ExtraPrice string `json:"extra_price"`
}

type updateOrderRequest struct {
	TableID    *string `json:"table_id"`
	DeliveryID *string `json:"delivery_id"`
	DiscountID *string `json:"discount_id"`
	Notes      *string `json:"notes"`
	Status     *string `json:"status"`
}

type updateOrderItemRequest struct {
	Quantity       *int32                         `json:"quantity"`
	DiscountAmount *string                        `json:"discount_amount"`
	Notes          *string                        `json:"notes"`
	Status         *string                        `json:"status"`
	Details        []createOrderItemDetailRequest `json:"details"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	BranchID       uuid.UUID           `json:"branch_id"`
	OrderNo        string              `json:"order_no"`
	OrderType      string              `json:"order_type"`
	Status         string              `json:"status"`
	TableID        *string             `json:"table_id"`
	DeliveryID     *string             `json:"delivery_id"`
	DiscountID     *string             `json:"discount_id"`
	Notes          *string             `json:"notes"`
	SubTotal       string              `json:"sub_total"`
	DiscountAmount string              `json:"discount_amount"`
	Vat            string              `json:"vat"`
	TotalAmount    string              `json:"total_amount"`
	ReceivedAmount string              `json:"received_amount"`
	ChangeAmount   string              `json:"change_amount"`
	CreatedBy      uuid.UUID           `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Items          []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID             uuid.UUID                 `json:"id"`
	ProductID      uuid.UUID                 `json:"product_id"`
	Quantity       int32                     `json:"quantity"`
	UnitPrice      string                    `json:"unit_price"`
	DiscountAmount string                    `json:"discount_amount"`
	TotalPrice     string                    `json:"total_price"`
	Notes          *string                   `json:"notes"`
	Status         string                    `json:"status"`
	Details        []orderItemDetailResponse `json:"details"`
}

type orderItemDetailResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	ExtraPrice string    `json:"extra_price"`
}

type paymentResponse struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"order_id"`
	MethodID       uuid.UUID `json:"method_id"`
	ShiftID        uuid.UUID `json:"shift_id"`
	Amount         string    `json:"amount"`
	AmountReceived string    `json:"amount_received"`
	ChangeAmount   string    `json:"change_amount"`
	Status         string    `json:"status"`
	CreatedBy      uuid.UUID `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// orderDetailResponse extends orderResponse with payments for the GET detail endpoint.
type orderDetailResponse struct {
	orderResponse
	Payments []paymentResponse `json:"payments"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Create handles POST /branches/{bid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_type is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "product_id is required"),
			})
			return
		}
		if item.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatItemError(i, "quantity must be > 0"),
			})
			return
		}
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = toServiceItem(item)
	}

	result, err := h.svc.CreateOrder(r.Context(), tenant, service.CreateOrderRequest{
		OrderNo:    req.OrderNo,
		OrderType:  req.OrderType,
		TableID:    req.TableID,
		DeliveryID: req.DeliveryID,
		DiscountID: req.DiscountID,
		Notes:      req.Notes,
		Status:     req.Status,
		Items:      svcItems,
	})
	if err != nil {
		serviceError(w, err, "create order")
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result))
}

// List handles GET /branches/{bid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		BranchID: tenant.BranchID,
		Limit:    int32(limit),
		Offset:   int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		normalized, err := service.NormalizeOrderStatus(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: normalized, Valid: true}
	}
	if s := r.URL.Query().Get("type"); s != "" {
		params.OrderType = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /branches/{bid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:       orderID,
		BranchID: tenant.BranchID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	itemResponses := make([]orderItemResponse, len(items))
	for i, item := range items {
		details, err := h.store.ListOrderItemDetailsByItem(r.Context(), item.ID)
		if err != nil {
			log.Printf("ERROR: list order item details: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		itemResponses[i] = dbOrderItemToResponse(item, details)
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	paymentResps := make([]paymentResponse, len(payments))
	for i, p := range payments {
		paymentResps[i] = dbPaymentToResponse(p)
	}

	orderResp := dbOrderToResponse(order)
	orderResp.Items = itemResponses

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: orderResp,
		Payments:      paymentResps,
	})
}

// Update handles PATCH /branches/{bid}/orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.UpdateOrder(r.Context(), tenant, orderID, service.UpdateOrderRequest{
		TableID:    req.TableID,
		DeliveryID: req.DeliveryID,
		DiscountID: req.DiscountID,
		Notes:      req.Notes,
		Status:     req.Status,
	})
	if err != nil {
		serviceError(w, err, "update order")
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(*order))
}

// Delete handles DELETE /branches/{bid}/orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), tenant, orderID); err != nil {
		serviceError(w, err, "delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /branches/{bid}/orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req createOrderItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id is required"})
		return
	}
	if req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be > 0"})
		return
	}

	result, err := h.svc.AddItem(r.Context(), tenant, orderID, toServiceItem(req))
	if err != nil {
		serviceError(w, err, "add order item")
		return
	}

	writeJSON(w, http.StatusCreated, toOrderItemResponse(*result))
}

// UpdateItem handles PATCH /branches/{bid}/orders/{id}/items/{itemID}.
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, itemID, ok := orderItemIDs(w, r)
	if !ok {
		return
	}

	var req updateOrderItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcReq := service.UpdateOrderItemRequest{
		Quantity:       req.Quantity,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
		Status:         req.Status,
	}
	if req.Details != nil {
		svcReq.Details = make([]service.CreateOrderItemDetailRequest, len(req.Details))
		for i, d := range req.Details {
			svcReq.Details[i] = service.CreateOrderItemDetailRequest{
				Name:       d.Name,
				ExtraPrice: d.ExtraPrice,
			}
		}
	}

	result, err := h.svc.UpdateItem(r.Context(), tenant, orderID, itemID, svcReq)
	if err != nil {
		serviceError(w, err, "update order item")
		return
	}

	writeJSON(w, http.StatusOK, toOrderItemResponse(*result))
}

// UpdateItemStatus handles PATCH /branches/{bid}/orders/{id}/items/{itemID}/status.
func (h *OrderHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, itemID, ok := orderItemIDs(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	item, err := h.svc.UpdateItemStatus(r.Context(), tenant, orderID, itemID, req.Status)
	if err != nil {
		serviceError(w, err, "update order item status")
		return
	}

	writeJSON(w, http.StatusOK, dbOrderItemToResponse(*item, nil))
}

// DeleteItem handles DELETE /branches/{bid}/orders/{id}/items/{itemID}.
func (h *OrderHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, itemID, ok := orderItemIDs(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteItem(r.Context(), tenant, orderID, itemID); err != nil {
		serviceError(w, err, "delete order item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// requestTenant extracts the branch scope from the URL and the acting user
// from the JWT claims. Writes the error response itself on failure.
func requestTenant(w http.ResponseWriter, r *http.Request) (service.Tenant, bool) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return service.Tenant{}, false
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return service.Tenant{}, false
	}

	return service.Tenant{BranchID: branchID, UserID: claims.UserID}, true
}

func orderItemIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, itemID, true
}

func formatItemError(idx int, msg string) string {
	return "items[" + strconv.Itoa(idx) + "]: " + msg
}

// serviceError maps known service errors to HTTP status codes. Unknown
// errors are logged and surface as 500.
func serviceError(w http.ResponseWriter, err error, action string) {
	switch {
	case isNotFoundError(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isConflictError(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		var pending *service.PendingOrdersError
		if errors.As(err, &pending) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":          pending.Error(),
				"pending_orders": pendingCounts(pending),
			})
			return
		}
		log.Printf("ERROR: %s: %v", action, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidTableID) ||
		errors.Is(err, service.ErrInvalidDeliveryID) ||
		errors.Is(err, service.ErrInvalidDiscountID) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrInvalidAmount) ||
		errors.Is(err, service.ErrInvalidStatus) ||
		errors.Is(err, service.ErrInvalidPriority)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, service.ErrOrderNotFound) ||
		errors.Is(err, service.ErrItemNotFound) ||
		errors.Is(err, service.ErrTableNotFound) ||
		errors.Is(err, service.ErrDeliveryNotFound) ||
		errors.Is(err, service.ErrDiscountNotFound) ||
		errors.Is(err, service.ErrProductNotFound) ||
		errors.Is(err, service.ErrPaymentNotFound) ||
		errors.Is(err, service.ErrMethodNotFound) ||
		errors.Is(err, service.ErrQueueEntryNotFound) ||
		errors.Is(err, service.ErrShiftNotFound)
}

func isConflictError(err error) bool {
	return errors.Is(err, service.ErrDuplicateOrderNo) ||
		errors.Is(err, service.ErrOrderHasPayments) ||
		errors.Is(err, service.ErrAlreadyQueued) ||
		errors.Is(err, service.ErrShiftClosed) ||
		errors.Is(err, service.ErrNoActiveShift) ||
		errors.Is(err, service.ErrOrderCancelled) ||
		errors.Is(err, service.ErrPaymentRelink)
}

func pendingCounts(e *service.PendingOrdersError) []map[string]interface{} {
	counts := make([]map[string]interface{}, len(e.Counts))
	for i, c := range e.Counts {
		counts[i] = map[string]interface{}{
			"order_type": c.OrderType,
			"count":      c.OrderCount,
		}
	}
	return counts
}

func toServiceItem(item createOrderItemRequest) service.CreateOrderItemRequest {
	details := make([]service.CreateOrderItemDetailRequest, len(item.Details))
	for i, d := range item.Details {
		details[i] = service.CreateOrderItemDetailRequest{
			Name:       d.Name,
			ExtraPrice: d.ExtraPrice,
		}
	}
	return service.CreateOrderItemRequest{
		ProductID:      item.ProductID,
		Quantity:       item.Quantity,
		DiscountAmount: item.DiscountAmount,
		Notes:          item.Notes,
		Details:        details,
	}
}

func toOrderResponse(result *service.CreateOrderResult) orderResponse {
	resp := dbOrderToResponse(result.Order)
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, ir := range result.Items {
		resp.Items[i] = toOrderItemResponse(ir)
	}
	return resp
}

func toOrderItemResponse(ir service.OrderItemResult) orderItemResponse {
	return dbOrderItemToResponse(ir.Item, ir.Details)
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func pgUUIDToString(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

// dbOrderToResponse converts a database.Order to an orderResponse.
func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID,
		BranchID:       o.BranchID,
		OrderNo:        o.OrderNo,
		OrderType:      o.OrderType,
		Status:         o.Status,
		TableID:        pgUUIDToString(o.TableID),
		DeliveryID:     pgUUIDToString(o.DeliveryID),
		DiscountID:     pgUUIDToString(o.DiscountID),
		SubTotal:       numericToString(o.SubTotal),
		DiscountAmount: numericToString(o.DiscountAmount),
		Vat:            numericToString(o.Vat),
		TotalAmount:    numericToString(o.TotalAmount),
		ReceivedAmount: numericToString(o.ReceivedAmount),
		ChangeAmount:   numericToString(o.ChangeAmount),
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}

	return resp
}

// dbOrderItemToResponse converts a database.OrderItem and its modifier lines
// to an orderItemResponse.
func dbOrderItemToResponse(item database.OrderItem, details []database.OrderItemDetail) orderItemResponse {
	resp := orderItemResponse{
		ID:             item.ID,
		ProductID:      item.ProductID,
		Quantity:       item.Quantity,
		UnitPrice:      numericToString(item.UnitPrice),
		DiscountAmount: numericToString(item.DiscountAmount),
		TotalPrice:     numericToString(item.TotalPrice),
		Status:         item.Status,
	}

	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}

	resp.Details = make([]orderItemDetailResponse, len(details))
	for i, d := range details {
		resp.Details[i] = orderItemDetailResponse{
			ID:         d.ID,
			Name:       d.Name,
			ExtraPrice: numericToString(d.ExtraPrice),
		}
	}

	return resp
}

// dbPaymentToResponse converts a database.Payment to a paymentResponse.
func dbPaymentToResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		MethodID:       p.MethodID,
		ShiftID:        p.ShiftID,
		Amount:         numericToString(p.Amount),
		AmountReceived: numericToString(p.AmountReceived),
		ChangeAmount:   numericToString(p.ChangeAmount),
		Status:         p.Status,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
	}
}
