package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/nopgate/twocheckout/infra/config"
	"github.com/nopgate/twocheckout/infra/response"
	"github.com/nopgate/twocheckout/order"
	"github.com/nopgate/twocheckout/provider"
	"github.com/nopgate/twocheckout/provider/twocheckout"
)

// CreateOrderRequest is the payload for placing a new order
type CreateOrderRequest struct {
	CustomOrderNumber string           `json:"customOrderNumber,omitempty"`
	Total             float64          `json:"total" validate:"required,gt=0"`
	CurrencyCode      string           `json:"currencyCode" validate:"required,len=3"`
	Billing           provider.Address `json:"billing"`
	Items             []provider.Item  `json:"items,omitempty"`
}

// OrderHandler exposes the store-side order endpoints the plugin works against
type OrderHandler struct {
	orders   *order.Store
	settings *config.SettingsStorage
	validate *validator.Validate
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Store, settings *config.SettingsStorage, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		settings: settings,
		validate: validate,
	}
}

// Create places a new order. The payment method's additional handling fee is
// applied to the total when the method is installed and active.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	total := req.Total
	if method, err := h.initializedMethod(); err == nil {
		total += method.AdditionalFee(req.Total)
	}

	o := &order.Order{
		CustomOrderNumber: req.CustomOrderNumber,
		Total:             total,
		CurrencyCode:      req.CurrencyCode,
		Billing:           req.Billing,
		Items:             req.Items,
	}

	if err := h.orders.Create(r.Context(), o); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to create order", err)
		return
	}

	response.Success(w, http.StatusCreated, "Order created", o)
}

// Get returns a single order
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderFromURL(r)
	if err != nil {
		h.orderError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Order loaded", o)
}

// Notes returns the append-only note trail of an order
func (h *OrderHandler) Notes(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderFromURL(r)
	if err != nil {
		h.orderError(w, err)
		return
	}

	notes, err := h.orders.Notes(r.Context(), o.ID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load order notes", err)
		return
	}

	response.Success(w, http.StatusOK, "Order notes loaded", notes)
}

// Redirect sends the buyer to the hosted checkout page for an order
func (h *OrderHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderFromURL(r)
	if err != nil {
		h.orderError(w, err)
		return
	}

	method, err := h.initializedMethod()
	if err != nil {
		response.Error(w, http.StatusServiceUnavailable, "Payment method is not available", err)
		return
	}

	redirectURL, err := method.BuildRedirectURL(provider.RedirectRequest{
		OrderID:           o.ID,
		CustomOrderNumber: o.CustomOrderNumber,
		OrderTotal:        o.Total,
		CurrencyCode:      o.CurrencyCode,
		Items:             o.Items,
		Billing:           o.Billing,
	})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to build redirect URL", err)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// initializedMethod returns the payment method initialized from active settings
func (h *OrderHandler) initializedMethod() (provider.PaymentMethod, error) {
	active, err := h.settings.IsActive(twocheckout.SystemName)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrMethodNotActive
	}

	conf, err := h.settings.Load(twocheckout.SystemName)
	if err != nil {
		return nil, err
	}

	method, err := provider.CreateMethod(twocheckout.SystemName)
	if err != nil {
		return nil, err
	}

	if err := method.Initialize(conf); err != nil {
		return nil, err
	}

	return method, nil
}

// orderFromURL resolves the {orderID} path parameter
func (h *OrderHandler) orderFromURL(r *http.Request) (*order.Order, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		return nil, order.ErrNotFound
	}

	return h.orders.ByID(r.Context(), id)
}

func (h *OrderHandler) orderError(w http.ResponseWriter, err error) {
	if errors.Is(err, order.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Order not found", err)
		return
	}
	response.Error(w, http.StatusInternalServerError, "Failed to load order", err)
}
