package evaluate

import (
	"errors"
	"fmt"
)

// Sentinel errors for offer evaluation.
var (
	ErrInvalidWeights = errors.New("invalid weight configuration")
	ErrInvalidOffer   = errors.New("invalid offer")
	ErrNoValidOffers  = errors.New("no valid offers")
	ErrEmptyInput     = errors.New("empty input")
)

// OfferError records why a single offer was excluded from a batch. The batch
// itself proceeds; exclusions are returned alongside the ranked results.
type OfferError struct {
	VendorID string
	Err      error
}

func (e OfferError) Error() string {
	return fmt.Sprintf("offer from %s: %v", e.VendorID, e.Err)
}

func (e OfferError) Unwrap() error {
	return e.Err
}
