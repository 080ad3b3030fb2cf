package twocheckout

import (
	"errors"
	"strings"
	"testing"

	"github.com/nopgate/twocheckout/provider"
)

func TestMethod_Initialize(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]string
		wantErr bool
	}{
		{
			name: "Valid configuration",
			config: map[string]string{
				"accountNumber": "901234567",
				"secretWord":    "tango",
				"useMd5Hashing": "true",
			},
			wantErr: false,
		},
		{
			name: "Missing account number outside sandbox",
			config: map[string]string{
				"secretWord": "tango",
			},
			wantErr: true,
		},
		{
			name: "Sandbox mode without account number",
			config: map[string]string{
				"useSandbox": "true",
			},
			wantErr: false,
		},
		{
			name: "Invalid additional fee",
			config: map[string]string{
				"accountNumber": "901234567",
				"additionalFee": "not-a-number",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMethod()
			err := m.Initialize(tt.config)

			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				tc := m.(*Method)
				if tc.accountNumber != tt.config["accountNumber"] {
					t.Errorf("Expected accountNumber %s, got %s", tt.config["accountNumber"], tc.accountNumber)
				}
				if tc.secretWord != tt.config["secretWord"] {
					t.Errorf("Expected secretWord %s, got %s", tt.config["secretWord"], tc.secretWord)
				}
			}
		})
	}
}

func TestMethod_ValidateConfig(t *testing.T) {
	m := NewMethod()

	tests := []struct {
		name    string
		config  map[string]string
		wantErr bool
	}{
		{
			name: "Valid production config",
			config: map[string]string{
				"accountNumber": "901234567",
				"secretWord":    "tango",
			},
			wantErr: false,
		},
		{
			name: "Missing account number",
			config: map[string]string{
				"secretWord": "tango",
			},
			wantErr: true,
		},
		{
			name: "Missing secret word",
			config: map[string]string{
				"accountNumber": "901234567",
			},
			wantErr: true,
		},
		{
			name: "Sandbox skips credential checks",
			config: map[string]string{
				"useSandbox": "true",
			},
			wantErr: false,
		},
		{
			name: "Invalid boolean field",
			config: map[string]string{
				"accountNumber": "901234567",
				"secretWord":    "tango",
				"useMd5Hashing": "yes",
			},
			wantErr: true,
		},
		{
			name: "Invalid fee",
			config: map[string]string{
				"accountNumber": "901234567",
				"secretWord":    "tango",
				"additionalFee": "abc",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMethod_NotificationStatus(t *testing.T) {
	m := &Method{}

	tests := []struct {
		name string
		data map[string]string
		want provider.PaymentStatus
	}{
		{
			name: "All fields empty means paid",
			data: map[string]string{},
			want: provider.StatusPaid,
		},
		{
			name: "All fields present but empty means paid",
			data: map[string]string{
				"message_type":   "",
				"invoice_status": "",
				"fraud_status":   "",
				"payment_type":   "",
			},
			want: provider.StatusPaid,
		},
		{
			name: "Fraud pass with approved invoice",
			data: map[string]string{
				"message_type":   "FRAUD_STATUS_CHANGED",
				"invoice_status": "approved",
				"fraud_status":   "pass",
			},
			want: provider.StatusPaid,
		},
		{
			name: "Fraud pass with deposited invoice",
			data: map[string]string{
				"message_type":   "FRAUD_STATUS_CHANGED",
				"invoice_status": "deposited",
				"fraud_status":   "pass",
			},
			want: provider.StatusPaid,
		},
		{
			name: "Message type casing is ignored",
			data: map[string]string{
				"message_type":   "fraud_status_changed",
				"invoice_status": "approved",
				"fraud_status":   "pass",
			},
			want: provider.StatusPaid,
		},
		{
			name: "PayPal EC overrides declined invoice",
			data: map[string]string{
				"message_type":   "FRAUD_STATUS_CHANGED",
				"invoice_status": "declined",
				"fraud_status":   "pass",
				"payment_type":   "paypal ec",
			},
			want: provider.StatusPaid,
		},
		{
			name: "Fraud fail stays pending",
			data: map[string]string{
				"message_type":   "FRAUD_STATUS_CHANGED",
				"invoice_status": "approved",
				"fraud_status":   "fail",
			},
			want: provider.StatusPending,
		},
		{
			name: "Fraud status casing is not ignored",
			data: map[string]string{
				"message_type":   "FRAUD_STATUS_CHANGED",
				"invoice_status": "approved",
				"fraud_status":   "PASS",
			},
			want: provider.StatusPending,
		},
		{
			name: "Unrelated message type stays pending",
			data: map[string]string{
				"message_type": "REFUND_ISSUED",
				"fraud_status": "pass",
			},
			want: provider.StatusPending,
		},
		{
			name: "Declined invoice without paypal stays pending",
			data: map[string]string{
				"message_type":   "FRAUD_STATUS_CHANGED",
				"invoice_status": "declined",
				"fraud_status":   "pass",
			},
			want: provider.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.NotificationStatus(tt.data); got != tt.want {
				t.Errorf("NotificationStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMethod_VerifyNotification(t *testing.T) {
	newMethod := func() *Method {
		return &Method{
			accountNumber: "A",
			secretWord:    "S",
			useMD5Hashing: true,
		}
	}

	t.Run("Valid hash", func(t *testing.T) {
		m := newMethod()
		data := map[string]string{
			"order_number": "42",
			"x_amount":     "10.00",
			"x_md5_hash":   md5Hex("SA4210.00"),
		}

		if err := m.VerifyNotification(data); err != nil {
			t.Errorf("VerifyNotification() error = %v, want nil", err)
		}
	})

	t.Run("Received hash compared case-insensitively", func(t *testing.T) {
		m := newMethod()
		data := map[string]string{
			"order_number": "42",
			"x_amount":     "10.00",
			"x_md5_hash":   strings.ToUpper(md5Hex("SA4210.00")),
		}

		if err := m.VerifyNotification(data); err != nil {
			t.Errorf("VerifyNotification() error = %v, want nil", err)
		}
	})

	t.Run("Alternate hash field accepted", func(t *testing.T) {
		m := newMethod()
		data := map[string]string{
			"order_number": "42",
			"x_amount":     "10.00",
			"md5_hash":     md5Hex("SA4210.00"),
		}

		if err := m.VerifyNotification(data); err != nil {
			t.Errorf("VerifyNotification() error = %v, want nil", err)
		}
	})

	t.Run("Mismatch returns ErrHashMismatch", func(t *testing.T) {
		m := newMethod()
		data := map[string]string{
			"order_number": "42",
			"x_amount":     "10.00",
			"x_md5_hash":   md5Hex("wrong"),
		}

		if err := m.VerifyNotification(data); !errors.Is(err, ErrHashMismatch) {
			t.Errorf("VerifyNotification() error = %v, want ErrHashMismatch", err)
		}
	})

	t.Run("Sandbox uses literal order number 1", func(t *testing.T) {
		m := newMethod()
		m.useSandbox = true
		data := map[string]string{
			"order_number": "42",
			"x_amount":     "10.00",
			"x_md5_hash":   md5Hex("SA110.00"),
		}

		if err := m.VerifyNotification(data); err != nil {
			t.Errorf("VerifyNotification() error = %v, want nil", err)
		}
	})

	t.Run("Hashing disabled skips verification", func(t *testing.T) {
		m := &Method{useMD5Hashing: false}
		data := map[string]string{
			"x_md5_hash": "garbage",
		}

		if err := m.VerifyNotification(data); err != nil {
			t.Errorf("VerifyNotification() error = %v, want nil", err)
		}
	})

	t.Run("Unconfigured verifier is a hard error", func(t *testing.T) {
		m := &Method{useMD5Hashing: true}
		data := map[string]string{
			"order_number": "42",
			"x_amount":     "10.00",
			"x_md5_hash":   md5Hex("42" + "10.00"),
		}

		if err := m.VerifyNotification(data); !errors.Is(err, ErrHashNotConfigured) {
			t.Errorf("VerifyNotification() error = %v, want ErrHashNotConfigured", err)
		}
	})
}

func TestMD5Hex_Deterministic(t *testing.T) {
	first := md5Hex("SA4210.00")
	second := md5Hex("SA4210.00")
	if first != second {
		t.Errorf("md5Hex() not deterministic: %s != %s", first, second)
	}

	if first != strings.ToLower(first) {
		t.Errorf("md5Hex() must be lowercase hex, got %s", first)
	}
	if len(first) != 32 {
		t.Errorf("md5Hex() length = %d, want 32", len(first))
	}

	// Each adjacent input variation must change the digest
	variants := []string{"sA4210.00", "SB4210.00", "SA4310.00", "SA4210.01"}
	for _, v := range variants {
		if md5Hex(v) == first {
			t.Errorf("md5Hex(%q) collides with md5Hex(%q)", v, "SA4210.00")
		}
	}
}

func TestMethod_BuildRedirectURL(t *testing.T) {
	m := &Method{accountNumber: "901234567"}

	req := provider.RedirectRequest{
		OrderID:           10,
		CustomOrderNumber: "A-100",
		OrderTotal:        125.5,
		CurrencyCode:      "USD",
		Items: []provider.Item{
			{SKU: "SKU-1", Name: "Widget", Description: "Blue widget", Quantity: 2, UnitPrice: 50, Downloadable: false},
			{SKU: "SKU-2", Name: "Ebook", Quantity: 1, UnitPrice: 25.5, Downloadable: true},
		},
		Billing: provider.Address{
			FirstName: "John",
			LastName:  "Smith",
			Address1:  "1 Main St",
			City:      "Springfield",
			State:     "IL",
			Zip:       "62701",
			Country:   "USA",
			Email:     "john@example.com",
			Phone:     "555-0101",
		},
	}

	got, err := m.BuildRedirectURL(req)
	if err != nil {
		t.Fatalf("BuildRedirectURL() error = %v", err)
	}

	if !strings.HasPrefix(got, "https://www.2checkout.com/checkout/purchase?id_type=1") {
		t.Errorf("unexpected URL prefix: %s", got)
	}

	wantParts := []string{
		"c_prod_1=SKU-1%2C2",
		"c_name_1=Widget",
		"c_description_1=Widget.+Blue+widget",
		"c_price_1=50.00",
		"c_tangible_1=Y",
		"c_prod_2=SKU-2%2C1",
		"c_price_2=25.50",
		"c_tangible_2=N",
		"x_login=901234567",
		"sid=901234567",
		"x_amount=125.50",
		"currency_code=USD",
		"x_invoice_num=A-100",
		"x_First_Name=John",
		"x_Last_Name=Smith",
		"x_Address=1+Main+St",
		"x_City=Springfield",
		"x_State=IL",
		"x_Zip=62701",
		"x_Country=USA",
		"x_EMail=john%40example.com",
		"x_Phone=555-0101",
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("URL missing %q:\n%s", part, got)
		}
	}

	if strings.Contains(got, "demo=Y") {
		t.Errorf("demo flag must not be set outside sandbox: %s", got)
	}
}

func TestMethod_BuildRedirectURL_Sandbox(t *testing.T) {
	m := &Method{accountNumber: "901234567", useSandbox: true}

	got, err := m.BuildRedirectURL(provider.RedirectRequest{
		CustomOrderNumber: "7",
		OrderTotal:        10,
		CurrencyCode:      "USD",
	})
	if err != nil {
		t.Fatalf("BuildRedirectURL() error = %v", err)
	}

	if !strings.HasPrefix(got, "https://sandbox.2checkout.com/checkout/purchase") {
		t.Errorf("sandbox must use the sandbox purchase URL: %s", got)
	}
	if !strings.Contains(got, "demo=Y") {
		t.Errorf("sandbox must set demo=Y: %s", got)
	}
}

func TestMethod_BuildRedirectURL_MissingOrderNumber(t *testing.T) {
	m := &Method{accountNumber: "901234567"}

	if _, err := m.BuildRedirectURL(provider.RedirectRequest{OrderTotal: 10}); err == nil {
		t.Error("BuildRedirectURL() expected error for missing custom order number")
	}
}

func TestMethod_AdditionalFee(t *testing.T) {
	tests := []struct {
		name       string
		fee        float64
		percentage bool
		cartTotal  float64
		want       float64
	}{
		{"Fixed fee", 5, false, 200, 5},
		{"Percentage fee", 10, true, 200, 20},
		{"Zero fee", 0, false, 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Method{additionalFee: tt.fee, additionalFeePercentage: tt.percentage}
			if got := m.AdditionalFee(tt.cartTotal); got != tt.want {
				t.Errorf("AdditionalFee() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMethod_Capabilities(t *testing.T) {
	m := &Method{}
	caps := m.Capabilities()

	if caps.SupportCapture || caps.SupportRefund || caps.SupportVoid || caps.SupportRecurring {
		t.Error("2Checkout supports no gateway-side operations")
	}
	if caps.CanRePostProcess {
		t.Error("reposting must be disabled")
	}
	if caps.MethodType != provider.MethodTypeRedirection {
		t.Errorf("MethodType = %v, want redirection", caps.MethodType)
	}
}

func TestMethod_DefaultConfig(t *testing.T) {
	m := NewMethod()
	defaults := m.DefaultConfig()

	if defaults["useMd5Hashing"] != "true" {
		t.Errorf("useMd5Hashing default = %q, want true", defaults["useMd5Hashing"])
	}
	if defaults["useSandbox"] != "false" {
		t.Errorf("useSandbox default = %q, want false", defaults["useSandbox"])
	}
	if defaults["accountNumber"] != "" || defaults["secretWord"] != "" {
		t.Error("credentials must default to empty")
	}
}
