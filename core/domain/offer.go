package domain

import "github.com/shopspring/decimal"

// OfferStatus tracks where an offer sits in the procurement flow.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Offer is a vendor's quote for a procurement request. Offers exist only
// for the duration of one evaluation call; they carry no persistent identity
// beyond the vendor id.
type Offer struct {
	VendorID        string          `json:"vendor_id"`
	Price           decimal.Decimal `json:"price"`
	DeliveryDays    int             `json:"delivery_days"`
	Reliability     float64         `json:"reliability"`
	PastPerformance float64         `json:"past_performance"`
	Terms           string          `json:"terms,omitempty"`
	Status          OfferStatus     `json:"status,omitempty"`
}
