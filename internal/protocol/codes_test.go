package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		OKPurchased,
		OKPlaced,
		OKAlreadyPlaced,
		OKSwapRequired,
		OKUpdated,
		OKNoop,
		ErrUnknownItem,
		ErrNotInInventory,
		ErrAlreadyOwned,
		ErrInsufficientFunds,
		ErrInvalidInput,
		ErrStoreUnavailable,
		ErrBadRequest,
		ErrRecordInvalid,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestIsErrorCode(t *testing.T) {
	if !IsErrorCode(ErrUnknownItem) || !IsErrorCode(ErrStoreUnavailable) {
		t.Fatalf("error codes not recognized")
	}
	if IsErrorCode(OKPlaced) || IsErrorCode("") {
		t.Fatalf("non-error codes misclassified")
	}
}
