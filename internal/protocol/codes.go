package protocol

// Success outcomes.
const (
	OKPurchased     = "OK_PURCHASED"
	OKPlaced        = "OK_PLACED"
	OKAlreadyPlaced = "OK_ALREADY_PLACED"
	OKSwapRequired  = "OK_SWAP_REQUIRED"
	OKUpdated       = "OK_UPDATED"
	OKNoop          = "OK_NOOP"
)

// Error outcomes.
const (
	// Catalog miss; indicates a client/catalog mismatch, not retryable.
	ErrUnknownItem = "E_UNKNOWN_ITEM"

	// Precondition violations; surfaced as a no-op with a message.
	ErrNotInInventory = "E_NOT_IN_INVENTORY"
	ErrAlreadyOwned   = "E_ALREADY_OWNED"

	ErrInsufficientFunds = "E_INSUFFICIENT_FUNDS"
	ErrInvalidInput      = "E_INVALID_INPUT"

	// Transport/infrastructure failure; the in-memory mutation was discarded
	// and the remote document is untouched.
	ErrStoreUnavailable = "E_STORE_UNAVAILABLE"

	ErrBadRequest = "E_BAD_REQUEST"

	// The stored document fails integrity checks against the catalog
	// (dangling ids, duplicated ownership). Never silently repaired.
	ErrRecordInvalid = "E_RECORD_INVALID"
)

var knownCodes = map[string]struct{}{
	OKPurchased:          {},
	OKPlaced:             {},
	OKAlreadyPlaced:      {},
	OKSwapRequired:       {},
	OKUpdated:            {},
	OKNoop:               {},
	ErrUnknownItem:       {},
	ErrNotInInventory:    {},
	ErrAlreadyOwned:      {},
	ErrInsufficientFunds: {},
	ErrInvalidInput:      {},
	ErrStoreUnavailable:  {},
	ErrBadRequest:        {},
	ErrRecordInvalid:     {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// IsErrorCode reports whether code names a failed outcome.
func IsErrorCode(code string) bool {
	return len(code) >= 2 && code[:2] == "E_"
}
