package provider

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
)

// MethodType describes how a payment method collects payment
type MethodType string

const (
	// MethodTypeRedirection sends the buyer to a hosted page on the provider's site
	MethodTypeRedirection MethodType = "redirection"
	MethodTypeStandard    MethodType = "standard"
)

// ConfigField represents a required configuration field for a payment method
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "number", "boolean"
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// Capabilities describes which gateway operations a payment method supports
type Capabilities struct {
	SupportCapture         bool       `json:"supportCapture"`
	SupportRefund          bool       `json:"supportRefund"`
	SupportPartialRefund   bool       `json:"supportPartialRefund"`
	SupportVoid            bool       `json:"supportVoid"`
	SupportRecurring       bool       `json:"supportRecurring"`
	CanRePostProcess       bool       `json:"canRePostProcess"`
	SkipPaymentInfo        bool       `json:"skipPaymentInfo"`
	MethodType             MethodType `json:"methodType"`
	PaymentMethodDescValue string     `json:"description"`
}

// Address represents the billing address of the buyer
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	City      string `json:"city"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip"`
	Country   string `json:"country,omitempty"` // three-letter ISO code
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// Item represents one order line on the hosted checkout page
type Item struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	Downloadable bool    `json:"downloadable"`
}

// RedirectRequest contains the order fields serialized into the hosted checkout URL
type RedirectRequest struct {
	OrderID           int64   `json:"orderId"`
	CustomOrderNumber string  `json:"customOrderNumber"`
	OrderTotal        float64 `json:"orderTotal"`
	CurrencyCode      string  `json:"currencyCode"`
	Items             []Item  `json:"items,omitempty"`
	Billing           Address `json:"billing"`
}

// PaymentMethod defines the contract every hosted-payment plugin implements.
// A method instance is initialized per request from the persisted settings and
// treated as read-only afterwards.
type PaymentMethod interface {
	// Initialize sets up the payment method from its persisted settings
	Initialize(conf map[string]string) error

	// RequiredConfig returns the configuration fields required by this method
	RequiredConfig() []ConfigField

	// ValidateConfig validates settings before they are persisted
	ValidateConfig(conf map[string]string) error

	// DefaultConfig returns the settings seeded when the plugin is installed
	DefaultConfig() map[string]string

	// BuildRedirectURL serializes the order into the hosted checkout URL
	BuildRedirectURL(req RedirectRequest) (string, error)

	// VerifyNotification checks the authenticity hash of an inbound notification
	VerifyNotification(data map[string]string) error

	// NotificationStatus classifies an inbound notification as paid or pending
	NotificationStatus(data map[string]string) PaymentStatus

	// AdditionalFee returns the handling fee for the given cart total
	AdditionalFee(cartTotal float64) float64

	// Capabilities reports the gateway operations this method supports
	Capabilities() Capabilities
}

// MethodFactory is a function type that creates a new PaymentMethod
type MethodFactory func() PaymentMethod
