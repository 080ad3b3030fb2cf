package twocheckout

import "github.com/nopgate/twocheckout/provider"

// Register the 2Checkout method with the gateway registry
func init() {
	provider.Register(SystemName, NewMethod)
}
