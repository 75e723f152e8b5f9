package saleshandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bhatta/internal/domain/audit"
	"bhatta/internal/domain/sales"
	"bhatta/internal/transport/http/api"
	"bhatta/internal/transport/http/middleware"
	"bhatta/internal/transport/http/shared"
)

type Handler struct {
	Store *sales.Store
	Audit *audit.Recorder
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Store: sales.NewStore(db), Audit: audit.NewRecorder(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.handleListCustomers)
		r.Post("/", h.handleCreateCustomer)
		r.Get("/{customerID}", h.handleGetCustomer)
		r.Put("/{customerID}", h.handleUpdateCustomer)
	})
	r.Route("/sales-orders", func(r chi.Router) {
		r.Get("/", h.handleListOrders)
		r.Post("/", h.handleCreateOrder)
		r.Get("/{orderID}", h.handleGetOrder)
		r.Put("/{orderID}", h.handleUpdateOrder)
		r.Post("/{orderID}/status", h.handleTransitionStatus)
	})
	r.Route("/trips", func(r chi.Router) {
		r.Get("/", h.handleListTrips)
		r.Post("/", h.handleCreateTrip)
	})
}

type customerPayload struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	RatePerBrick string `json:"ratePerBrick"`
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Store.ListCustomers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customers_list_failed", "failed to list customers", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, customers, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.Store.GetCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if errors.Is(err, sales.ErrCustomerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "customer not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_get_failed", "failed to load customer", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, customer, middleware.GetRequestID(r.Context()))
}

func validateCustomer(payload customerPayload) (sales.Customer, *shared.Validator) {
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	rate, _ := v.Amount("ratePerBrick", payload.RatePerBrick)
	return sales.Customer{
		Name:         strings.TrimSpace(payload.Name),
		Phone:        payload.Phone,
		Address:      payload.Address,
		RatePerBrick: rate,
	}, v
}

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	toCreate, v := validateCustomer(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Store.CreateCustomer(r.Context(), toCreate)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_create_failed", "failed to create customer", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	toUpdate, v := validateCustomer(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	toUpdate.ID = chi.URLParam(r, "customerID")

	updated, err := h.Store.UpdateCustomer(r.Context(), toUpdate)
	if errors.Is(err, sales.ErrCustomerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "customer not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_update_failed", "failed to update customer", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

type orderPayload struct {
	CustomerID     string `json:"customerId"`
	Quantity       int    `json:"quantity"`
	RatePerBrick   string `json:"ratePerBrick"`
	VehicleType    string `json:"vehicleType"`
	VehicleNumber  string `json:"vehicleNumber"`
	DriverName     string `json:"driverName"`
	OwnFleet       bool   `json:"ownFleet"`
	DriverWorkerID string `json:"driverWorkerId"`
	OrderDate      string `json:"orderDate"`
	Notes          string `json:"notes"`
}

func validateOrder(payload orderPayload) (sales.SalesOrder, *shared.Validator) {
	v := shared.NewValidator()
	v.Required("customerId", payload.CustomerID, "is required")
	v.Positive("quantity", payload.Quantity, "must be greater than zero")
	rate, _ := v.Amount("ratePerBrick", payload.RatePerBrick)
	v.Required("vehicleType", payload.VehicleType, "is required")
	if payload.VehicleType != "" && !sales.ValidVehicleType(payload.VehicleType) {
		v.Add("vehicleType", "must be 'truck' or 'tractor'")
	}
	if payload.OwnFleet && payload.DriverWorkerID == "" {
		v.Add("driverWorkerId", "is required for own-fleet deliveries")
	}

	order := sales.SalesOrder{
		CustomerID:     payload.CustomerID,
		Quantity:       payload.Quantity,
		RatePerBrick:   rate,
		VehicleType:    payload.VehicleType,
		VehicleNumber:  payload.VehicleNumber,
		DriverName:     payload.DriverName,
		OwnFleet:       payload.OwnFleet,
		DriverWorkerID: payload.DriverWorkerID,
		Notes:          payload.Notes,
	}
	if payload.OrderDate != "" {
		if orderDate, ok := v.Date("orderDate", payload.OrderDate); ok {
			order.OrderDate = shared.DateOnly(orderDate)
		}
	}
	return order, v
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListOrders(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "orders_list_failed", "failed to list sales orders", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, orders, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Store.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if errors.Is(err, sales.ErrOrderNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "sales order not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "order_get_failed", "failed to load sales order", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, order, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	toCreate, v := validateOrder(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Store.CreateOrder(r.Context(), toCreate)
	if errors.Is(err, sales.ErrCustomerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "customer not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "order_create_failed", "failed to create sales order", middleware.GetRequestID(r.Context()))
		return
	}

	user, _ := middleware.GetUser(r.Context())
	h.Audit.Record(r.Context(), user.UserID, "sales.order.create", "sales_order", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	toUpdate, v := validateOrder(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	toUpdate.ID = chi.URLParam(r, "orderID")

	updated, err := h.Store.UpdateOrder(r.Context(), toUpdate)
	if errors.Is(err, sales.ErrOrderNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "sales order not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "order_update_failed", "failed to update sales order", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

type statusPayload struct {
	Status string `json:"status"`
}

func (h *Handler) handleTransitionStatus(w http.ResponseWriter, r *http.Request) {
	var payload statusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if !sales.ValidStatus(payload.Status) {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{
			{Field: "status", Reason: "must be one of pending, delivered, invoiced, cancelled"},
		})
		return
	}

	before, err := h.Store.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if errors.Is(err, sales.ErrOrderNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "sales order not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "order_status_failed", "failed to update order status", middleware.GetRequestID(r.Context()))
		return
	}

	updated, err := h.Store.TransitionStatus(r.Context(), before.ID, payload.Status)
	if errors.Is(err, sales.ErrInvalidTransition) {
		api.Fail(w, http.StatusConflict, "invalid_transition", "order cannot move from "+before.Status+" to "+payload.Status, middleware.GetRequestID(r.Context()))
		return
	}
	if errors.Is(err, sales.ErrOrderNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "sales order not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "order_status_failed", "failed to update order status", middleware.GetRequestID(r.Context()))
		return
	}

	user, _ := middleware.GetUser(r.Context())
	h.Audit.Record(r.Context(), user.UserID, "sales.order.status", "sales_order", updated.ID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

type tripPayload struct {
	DriverID       string   `json:"driverId"`
	TripDate       string   `json:"tripDate"`
	VehicleType    string   `json:"vehicleType"`
	AmountPerTrip  string   `json:"amountPerTrip"`
	SalesOrderID   string   `json:"salesOrderId"`
	ParticipantIDs []string `json:"participantIds"`
}

func (h *Handler) handleListTrips(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	var weekStart, weekEnd *time.Time
	if raw := r.URL.Query().Get("weekStart"); raw != "" {
		if parsed, ok := v.Date("weekStart", raw); ok {
			day := shared.DateOnly(parsed)
			weekStart = &day
		}
	}
	if raw := r.URL.Query().Get("weekEnd"); raw != "" {
		if parsed, ok := v.Date("weekEnd", raw); ok {
			day := shared.DateOnly(parsed)
			weekEnd = &day
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	trips, err := h.Store.ListTrips(r.Context(), r.URL.Query().Get("driverId"), weekStart, weekEnd)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "trips_list_failed", "failed to list trips", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, trips, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var payload tripPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("driverId", payload.DriverID, "is required")
	v.Required("vehicleType", payload.VehicleType, "is required")
	if payload.VehicleType != "" && !sales.ValidVehicleType(payload.VehicleType) {
		v.Add("vehicleType", "must be 'truck' or 'tractor'")
	}
	amount := decimal.Zero
	if payload.AmountPerTrip != "" {
		amount, _ = v.Amount("amountPerTrip", payload.AmountPerTrip)
	}
	trip := sales.Trip{
		DriverID:      payload.DriverID,
		VehicleType:   payload.VehicleType,
		AmountPerTrip: amount,
		SalesOrderID:  payload.SalesOrderID,
		Participants:  payload.ParticipantIDs,
	}
	if payload.TripDate != "" {
		if tripDate, ok := v.Date("tripDate", payload.TripDate); ok {
			trip.TripDate = shared.DateOnly(tripDate)
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Store.CreateTrip(r.Context(), trip)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "trip_create_failed", "failed to create trip", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}
