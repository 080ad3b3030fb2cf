package twocheckout

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/nopgate/twocheckout/provider"
)

const (
	// SystemName is the payment method system name used in routes and settings storage
	SystemName = "payments-twocheckout"

	// Hosted checkout page URLs
	purchaseURL        = "https://www.2checkout.com/checkout/purchase"
	sandboxPurchaseURL = "https://sandbox.2checkout.com/checkout/purchase"

	// Provider-fixed IPN field names
	fieldInvoiceNum    = "x_invoice_num"
	fieldOrderNumber   = "order_number"
	fieldAmount        = "x_amount"
	fieldMD5Hash       = "x_md5_hash"
	fieldMD5HashAlt    = "md5_hash"
	fieldMessageType   = "message_type"
	fieldInvoiceStatus = "invoice_status"
	fieldFraudStatus   = "fraud_status"
	fieldPaymentType   = "payment_type"

	// The sandbox environment always reports order number "1" in the hash input
	sandboxOrderNumber = "1"
)

var (
	// ErrHashMismatch is returned when the received hash does not match the computed one.
	// It is a verification failure, not a configuration error: callers log it as an
	// order note and complete the request without marking payment.
	ErrHashMismatch = errors.New("twocheckout: hash validation failed")

	// ErrHashNotConfigured is returned when MD5 hashing is enabled but no secret
	// word or account number is configured. This is a hard configuration error.
	ErrHashNotConfigured = errors.New("twocheckout: md5 hashing enabled but secret word and account number are not configured")
)

// Method implements provider.PaymentMethod for 2Checkout hosted payment pages
type Method struct {
	accountNumber           string
	secretWord              string
	useSandbox              bool
	useMD5Hashing           bool
	additionalFee           float64
	additionalFeePercentage bool
	logIPNErrors            bool
}

// NewMethod creates a new 2Checkout payment method
func NewMethod() provider.PaymentMethod {
	return &Method{}
}

// Initialize sets up the 2Checkout method from its persisted settings
func (m *Method) Initialize(conf map[string]string) error {
	m.accountNumber = conf["accountNumber"]
	m.secretWord = conf["secretWord"]
	m.useSandbox = conf["useSandbox"] == "true"
	m.useMD5Hashing = conf["useMd5Hashing"] == "true"
	m.additionalFeePercentage = conf["additionalFeePercentage"] == "true"
	m.logIPNErrors = conf["logIpnErrors"] == "true"

	if fee := conf["additionalFee"]; fee != "" {
		parsed, err := strconv.ParseFloat(fee, 64)
		if err != nil {
			return fmt.Errorf("twocheckout: invalid additionalFee %q: %w", fee, err)
		}
		m.additionalFee = parsed
	}

	if !m.useSandbox && m.accountNumber == "" {
		return errors.New("twocheckout: accountNumber is required outside sandbox mode")
	}

	return nil
}

// RequiredConfig returns the configuration fields required by 2Checkout
func (m *Method) RequiredConfig() []provider.ConfigField {
	return []provider.ConfigField{
		{Key: "accountNumber", Required: true, Type: "string", Description: "2Checkout account (vendor) number", Example: "901234567"},
		{Key: "secretWord", Required: true, Type: "string", Description: "Secret word set on the provider's site management page"},
		{Key: "useSandbox", Required: false, Type: "boolean", Description: "Use the sandbox (testing) environment", Example: "false"},
		{Key: "useMd5Hashing", Required: false, Type: "boolean", Description: "Verify IPN authenticity with the MD5 hash", Example: "true"},
		{Key: "additionalFee", Required: false, Type: "number", Description: "Additional handling fee charged to the customer", Example: "0"},
		{Key: "additionalFeePercentage", Required: false, Type: "boolean", Description: "Treat the additional fee as a percentage of the cart total", Example: "false"},
		{Key: "logIpnErrors", Required: false, Type: "boolean", Description: "Log IPN processing errors", Example: "true"},
	}
}

// ValidateConfig validates settings before they are persisted.
// Account number and secret word are only required outside sandbox mode.
func (m *Method) ValidateConfig(conf map[string]string) error {
	sandbox := conf["useSandbox"] == "true"

	if !sandbox {
		if strings.TrimSpace(conf["accountNumber"]) == "" {
			return errors.New("twocheckout: accountNumber is required")
		}
		if strings.TrimSpace(conf["secretWord"]) == "" {
			return errors.New("twocheckout: secretWord is required")
		}
	}

	for _, key := range []string{"useSandbox", "useMd5Hashing", "additionalFeePercentage", "logIpnErrors"} {
		if value, ok := conf[key]; ok && value != "" && value != "true" && value != "false" {
			return fmt.Errorf("twocheckout: field '%s' must be 'true' or 'false'", key)
		}
	}

	if fee, ok := conf["additionalFee"]; ok && fee != "" {
		if _, err := strconv.ParseFloat(fee, 64); err != nil {
			return fmt.Errorf("twocheckout: field 'additionalFee' must be a number")
		}
	}

	return nil
}

// DefaultConfig returns the settings seeded when the plugin is installed
func (m *Method) DefaultConfig() map[string]string {
	return map[string]string{
		"accountNumber":           "",
		"secretWord":              "",
		"useSandbox":              "false",
		"useMd5Hashing":           "true",
		"additionalFee":           "0",
		"additionalFeePercentage": "false",
		"logIpnErrors":            "false",
	}
}

// BuildRedirectURL serializes the order into the hosted checkout URL
func (m *Method) BuildRedirectURL(req provider.RedirectRequest) (string, error) {
	if req.CustomOrderNumber == "" {
		return "", errors.New("twocheckout: custom order number is required")
	}

	base := purchaseURL
	if m.useSandbox {
		base = sandboxPurchaseURL
	}

	var builder strings.Builder
	builder.WriteString(base)
	builder.WriteString("?id_type=1")

	for i, item := range req.Items {
		n := i + 1

		fmt.Fprintf(&builder, "&c_prod_%d=%s", n, url.QueryEscape(fmt.Sprintf("%s,%d", item.SKU, item.Quantity)))
		fmt.Fprintf(&builder, "&c_name_%d=%s", n, url.QueryEscape(item.Name))

		description := item.Name
		if item.Description != "" {
			description = description + ". " + item.Description
		}
		fmt.Fprintf(&builder, "&c_description_%d=%s", n, url.QueryEscape(description))

		fmt.Fprintf(&builder, "&c_price_%d=%s", n, formatAmount(item.UnitPrice))

		tangible := "Y"
		if item.Downloadable {
			tangible = "N"
		}
		fmt.Fprintf(&builder, "&c_tangible_%d=%s", n, tangible)
	}

	fmt.Fprintf(&builder, "&x_login=%s", url.QueryEscape(m.accountNumber))
	fmt.Fprintf(&builder, "&sid=%s", url.QueryEscape(m.accountNumber))
	fmt.Fprintf(&builder, "&x_amount=%s", formatAmount(req.OrderTotal))
	fmt.Fprintf(&builder, "&currency_code=%s", url.QueryEscape(req.CurrencyCode))
	fmt.Fprintf(&builder, "&x_invoice_num=%s", url.QueryEscape(req.CustomOrderNumber))

	if m.useSandbox {
		builder.WriteString("&demo=Y")
	}

	fmt.Fprintf(&builder, "&x_First_Name=%s", url.QueryEscape(req.Billing.FirstName))
	fmt.Fprintf(&builder, "&x_Last_Name=%s", url.QueryEscape(req.Billing.LastName))
	fmt.Fprintf(&builder, "&x_Address=%s", url.QueryEscape(req.Billing.Address1))
	fmt.Fprintf(&builder, "&x_City=%s", url.QueryEscape(req.Billing.City))
	fmt.Fprintf(&builder, "&x_State=%s", url.QueryEscape(req.Billing.State))
	fmt.Fprintf(&builder, "&x_Zip=%s", url.QueryEscape(req.Billing.Zip))
	fmt.Fprintf(&builder, "&x_Country=%s", url.QueryEscape(req.Billing.Country))
	fmt.Fprintf(&builder, "&x_EMail=%s", url.QueryEscape(req.Billing.Email))
	fmt.Fprintf(&builder, "&x_Phone=%s", url.QueryEscape(req.Billing.Phone))

	return builder.String(), nil
}

// VerifyNotification checks the MD5 hash of an inbound IPN.
// Hash input: secret word + account number + ("1" in sandbox, else order_number) + x_amount.
// The received hash is compared case-insensitively.
func (m *Method) VerifyNotification(data map[string]string) error {
	if !m.useMD5Hashing {
		return nil
	}

	if m.secretWord == "" && m.accountNumber == "" {
		return ErrHashNotConfigured
	}

	orderNumber := data[fieldOrderNumber]
	if m.useSandbox {
		orderNumber = sandboxOrderNumber
	}

	computed := md5Hex(m.secretWord + m.accountNumber + orderNumber + data[fieldAmount])

	received := data[fieldMD5Hash]
	if received == "" {
		received = data[fieldMD5HashAlt]
	}

	if !strings.EqualFold(computed, received) {
		return ErrHashMismatch
	}

	return nil
}

// NotificationStatus classifies an inbound IPN as paid or pending.
//
// Per the provider's return documentation, direct-return and header-redirect
// flows carry no status fields at all; their presence at the IPN endpoint
// implies a successful sale.
func (m *Method) NotificationStatus(data map[string]string) provider.PaymentStatus {
	messageType := data[fieldMessageType]
	invoiceStatus := data[fieldInvoiceStatus]
	fraudStatus := data[fieldFraudStatus]
	paymentType := data[fieldPaymentType]

	if messageType+invoiceStatus+fraudStatus+paymentType == "" {
		return provider.StatusPaid
	}

	if strings.EqualFold(messageType, "FRAUD_STATUS_CHANGED") &&
		fraudStatus == "pass" &&
		(invoiceStatus == "approved" || invoiceStatus == "deposited" || paymentType == "paypal ec") {
		return provider.StatusPaid
	}

	return provider.StatusPending
}

// AdditionalFee returns the handling fee for the given cart total
func (m *Method) AdditionalFee(cartTotal float64) float64 {
	if m.additionalFeePercentage {
		return cartTotal * m.additionalFee / 100
	}
	return m.additionalFee
}

// LogIPNErrors reports whether IPN processing errors should be logged
func (m *Method) LogIPNErrors() bool {
	return m.logIPNErrors
}

// UseMD5Hashing reports whether IPN hash verification is enabled
func (m *Method) UseMD5Hashing() bool {
	return m.useMD5Hashing
}

// Capabilities reports the gateway operations 2Checkout supports.
// Reposting is disabled: the provider can take several hours to review an order.
func (m *Method) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportCapture:         false,
		SupportRefund:          false,
		SupportPartialRefund:   false,
		SupportVoid:            false,
		SupportRecurring:       false,
		CanRePostProcess:       false,
		SkipPaymentInfo:        false,
		MethodType:             provider.MethodTypeRedirection,
		PaymentMethodDescValue: "You will be redirected to 2Checkout site to complete the order.",
	}
}

// formatAmount renders an amount with fixed two-decimal formatting
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// md5Hex returns the lowercase hex MD5 digest of the input
func md5Hex(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
