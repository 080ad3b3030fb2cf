// Package provider defines the payment method contract and the registry the
// handlers resolve methods from.
//
// A payment method is registered once at startup, usually from an init
// function in its own package, and instantiated per request:
//
//	provider.Register("payments-twocheckout", twocheckout.NewMethod)
//
//	method, err := provider.CreateMethod("payments-twocheckout")
//	if err != nil {
//	    return err
//	}
//	if err := method.Initialize(settings); err != nil {
//	    return err
//	}
//
// The PaymentMethod interface covers the full plugin surface: configuration
// (RequiredConfig, ValidateConfig, DefaultConfig), checkout (BuildRedirectURL,
// AdditionalFee), notifications (VerifyNotification, NotificationStatus) and
// the Capabilities report the store uses to decide which gateway operations
// to offer.
package provider
