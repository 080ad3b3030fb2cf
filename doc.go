// Package twocheckout provides a hosted-payment-page integration for the
// 2Checkout payment provider. It exposes the plugin surface an e-commerce
// store works against: building the hosted checkout redirect URL, receiving
// and verifying Instant Payment Notifications (IPN), and flipping orders to
// paid exactly once.
//
// # Overview
//
// 2Checkout is a redirection-style gateway: the buyer leaves the store,
// pays on the provider's hosted page, and the provider calls back with the
// payment result. The service owns three concerns:
//
//   - Redirect: serialize an order into the hosted checkout URL
//   - Notification: verify the IPN hash and classify the payment status
//   - Processing: mark the order paid with an idempotency guard
//
// # Architecture
//
// The payment flow follows this pattern:
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│     Buyer       │◄──►│    nopgate      │◄──►│   2Checkout     │
//	│   (browser)     │    │   (this app)    │    │  (hosted page)  │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// The buyer is redirected to 2Checkout with the order serialized into the
// query string. After payment the provider notifies the IPN endpoint, which
// verifies the MD5 hash, records the raw payload as an order note, and, for
// a successful sale, marks the order as paid.
//
// # Layout
//
//   - cmd: application entry point
//   - router: route table
//   - handler: HTTP handlers (IPN, admin configuration, orders, health)
//   - provider: payment method contract and registry
//   - provider/twocheckout: the 2Checkout implementation
//   - order: order and note persistence plus the processing service
//   - infra: configuration, SQLite connection, response envelope,
//     middleware, logging, OpenSearch
//
// # Quick Start
//
// Start the service, install the payment method, then configure it:
//
//	POST /plugins/payments-twocheckout/admin/install
//	POST /plugins/payments-twocheckout/admin/configure
//	{
//	    "accountNumber": "901234567",
//	    "secretWord":    "tango",
//	    "useMd5Hashing": true
//	}
//
// Point the 2Checkout approved URL at /plugins/payments-twocheckout/ipn.
package twocheckout
