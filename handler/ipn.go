package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nopgate/twocheckout/infra/config"
	"github.com/nopgate/twocheckout/infra/logger"
	"github.com/nopgate/twocheckout/infra/middle"
	"github.com/nopgate/twocheckout/infra/opensearch"
	"github.com/nopgate/twocheckout/order"
	"github.com/nopgate/twocheckout/provider"
	"github.com/nopgate/twocheckout/provider/twocheckout"
)

// Store page destinations the notification handler redirects to
const (
	routeHomepage          = "/"
	routeOrderDetails      = "/order/details/%d"
	routeCheckoutCompleted = "/checkout/completed/%d"
)

// ErrMethodNotActive is returned when the payment method is not installed or disabled
var ErrMethodNotActive = errors.New("2Checkout module cannot be loaded")

// IPNHandler processes Instant Payment Notification callbacks from 2Checkout
type IPNHandler struct {
	settings   *config.SettingsStorage
	orders     *order.Store
	processing *order.ProcessingService
	osLogger   *opensearch.Logger
}

// NewIPNHandler creates a new IPN handler
func NewIPNHandler(settings *config.SettingsStorage, orders *order.Store, processing *order.ProcessingService, osLogger *opensearch.Logger) *IPNHandler {
	return &IPNHandler{
		settings:   settings,
		orders:     orders,
		processing: processing,
		osLogger:   osLogger,
	}
}

// Handle processes one inbound notification end-to-end. The provider retries
// on failures, so any classifiable condition completes with a redirect rather
// than an error status; redelivery stays safe through the CanMarkAsPaid guard.
func (h *IPNHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logIPNError(nil, 0, "", fmt.Errorf("panic: %v", rec), requestID, r)
			http.Redirect(w, r, routeHomepage, http.StatusFound)
		}
	}()

	params, fromForm := extractParams(r)

	// Ensure the payment method is installed and active
	method, err := h.activeMethod()
	if err != nil {
		h.logIPNError(params, 0, "", err, requestID, r)
		http.Redirect(w, r, routeHomepage, http.StatusFound)
		return
	}

	// Resolve the order by the custom order number, falling back to the raw
	// numeric id used by older integrations
	customOrderNumber := params["x_invoice_num"]
	o, err := h.resolveOrder(ctx, customOrderNumber)
	if err != nil {
		h.logIPNError(params, 0, customOrderNumber, fmt.Errorf("order %q not found", customOrderNumber), requestID, r)
		http.Redirect(w, r, routeHomepage, http.StatusFound)
		return
	}

	// Record the raw request as an order note before doing anything else with it
	if err := h.orders.AddNote(ctx, &order.Note{
		OrderID: o.ID,
		Note:    buildAuditNote(params, fromForm, r.URL.RawQuery),
	}); err != nil {
		h.logIPNError(params, o.ID, customOrderNumber, err, requestID, r)
		http.Redirect(w, r, routeHomepage, http.StatusFound)
		return
	}

	if err := method.VerifyNotification(params); err != nil {
		if errors.Is(err, twocheckout.ErrHashMismatch) {
			// Verification failure is not an error: note it and move on unpaid
			_ = h.orders.AddNote(ctx, &order.Note{
				OrderID: o.ID,
				Note:    "Hash validation failed",
			})
			http.Redirect(w, r, fmt.Sprintf(routeOrderDetails, o.ID), http.StatusFound)
			return
		}

		// Anything else is a configuration error
		h.logIPNError(params, o.ID, customOrderNumber, err, requestID, r)
		http.Redirect(w, r, routeHomepage, http.StatusFound)
		return
	}

	status := method.NotificationStatus(params)

	if status != provider.StatusPaid || !h.processing.CanMarkAsPaid(o) {
		http.Redirect(w, r, fmt.Sprintf(routeOrderDetails, o.ID), http.StatusFound)
		return
	}

	if err := h.processing.MarkAsPaid(ctx, o); err != nil {
		h.logIPNError(params, o.ID, customOrderNumber, err, requestID, r)
		http.Redirect(w, r, fmt.Sprintf(routeOrderDetails, o.ID), http.StatusFound)
		return
	}

	logger.Info("Order marked as paid", logger.LogContext{
		OrderID:     o.ID,
		OrderNumber: o.CustomOrderNumber,
		RequestID:   requestID,
	})

	http.Redirect(w, r, fmt.Sprintf(routeCheckoutCompleted, o.ID), http.StatusFound)
}

// activeMethod loads the persisted settings and initializes the payment method
func (h *IPNHandler) activeMethod() (provider.PaymentMethod, error) {
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

// resolveOrder looks an order up by custom order number first, then by numeric id
func (h *IPNHandler) resolveOrder(ctx context.Context, customOrderNumber string) (*order.Order, error) {
	if customOrderNumber == "" {
		return nil, order.ErrNotFound
	}

	o, err := h.orders.ByCustomOrderNumber(ctx, customOrderNumber)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, order.ErrNotFound) {
		return nil, err
	}

	id, parseErr := strconv.ParseInt(customOrderNumber, 10, 64)
	if parseErr != nil {
		return nil, order.ErrNotFound
	}

	return h.orders.ByID(ctx, id)
}

// logIPNError records an IPN failure. Console logging always happens;
// OpenSearch indexing is gated by the logIpnErrors setting.
func (h *IPNHandler) logIPNError(params map[string]string, orderID int64, orderNumber string, err error, requestID string, r *http.Request) {
	logger.Error("IPN processing failed", err, logger.LogContext{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		RequestID:   requestID,
	})

	if h.osLogger == nil || !h.logErrorsEnabled() {
		return
	}

	entry := opensearch.IPNLog{
		RequestID:   requestID,
		Level:       "error",
		OrderID:     orderID,
		OrderNumber: orderNumber,
		Message:     "IPN processing failed",
		Error:       err.Error(),
		ClientIP:    middle.GetClientIP(r),
		Params:      params,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if logErr := h.osLogger.LogIPN(ctx, entry); logErr != nil {
		logger.Warn("Failed to index IPN error", logger.LogContext{
			Fields: map[string]any{"error": logErr.Error()},
		})
	}
}

// logErrorsEnabled reads the logIpnErrors flag from the persisted settings
func (h *IPNHandler) logErrorsEnabled() bool {
	conf, err := h.settings.Load(twocheckout.SystemName)
	if err != nil {
		return false
	}
	return conf["logIpnErrors"] == "true"
}

// extractParams reads the notification fields once, from the form body when
// the request is form-encoded and non-empty, else from the query string.
// The two sources are never combined.
func extractParams(r *http.Request) (map[string]string, bool) {
	params := make(map[string]string)

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err == nil && len(r.PostForm) > 0 {
			for key, values := range r.PostForm {
				if len(values) > 0 {
					params[key] = values[0]
				}
			}
			return params, true
		}
	}

	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params, false
}

// buildAuditNote renders every inbound key/value pair verbatim, the same way
// the admin panel expects to read it back
func buildAuditNote(params map[string]string, fromForm bool, rawQuery string) string {
	var builder strings.Builder
	builder.WriteString("2Checkout IPN:\n")

	if fromForm {
		keys := make([]string, 0, len(params))
		for key := range params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			builder.WriteString(fmt.Sprintf("%s: %s\n", key, params[key]))
		}
	} else {
		builder.WriteString(rawQuery)
		builder.WriteString("\n")
	}

	return builder.String()
}
