package config

import (
	"os"
	"strings"
)

// LenientStatusJumps restores the legacy behavior where an order item may be
// moved to any later fulfillment status instead of the single next step.
//
// Side effects stay keyed to the status actually entered: a jump over InStock
// (e.g. InTransit straight to Installing) skips the standard-stock
// consumption that the arrival step performs, so standard quantities drift
// until cmd/stock-recount reconciles them.
//
// Set via env:
// - LENIENT_STATUS_JUMPS=true
func LenientStatusJumps() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("LENIENT_STATUS_JUMPS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// AutoReserveOnArrival reserves a customized inventory unit for its order item
// as soon as the item reaches InStock.
//
// Set via env:
// - AUTO_RESERVE_ON_ARRIVAL=true
func AutoReserveOnArrival() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("AUTO_RESERVE_ON_ARRIVAL")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
