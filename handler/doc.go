// Package handler provides the HTTP handlers for the 2Checkout payment
// service: the IPN endpoint, admin install/uninstall/configure, the
// store-side order endpoints, and the health check.
//
// The IPN handler is deliberately forgiving. The provider retries failed
// deliveries, so every classifiable condition completes with a redirect to
// a store page instead of an error status, and redelivery of a successful
// sale stays safe through the order processing guard.
package handler
