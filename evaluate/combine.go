package evaluate

import (
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/procure/core/domain"
)

// CombineTopOffers builds a synthetic hybrid offer from the best aspects of
// the top n ranked results: the lowest price, the shortest delivery, and the
// highest reliability and past-performance scores found among them. The
// hybrid's terms name the contributing vendors so a buyer can see which
// concessions it would take to realize the deal. Fails with ErrEmptyInput
// when results is empty; n larger than the result set is clamped.
func (e *Evaluator) CombineTopOffers(results []Result, n int) (domain.Offer, error) {
	if len(results) == 0 {
		return domain.Offer{}, fmt.Errorf("%w: no evaluation results to combine", ErrEmptyInput)
	}
	if n <= 0 {
		n = 1
	}
	if n > len(results) {
		n = len(results)
	}

	top := results[:n]
	hybrid := top[0].Offer
	vendors := make([]string, 0, n)

	for _, r := range top {
		vendors = append(vendors, r.Offer.VendorID)

		if r.Offer.Price.LessThan(hybrid.Price) {
			hybrid.Price = r.Offer.Price
		}
		if r.Offer.DeliveryDays < hybrid.DeliveryDays {
			hybrid.DeliveryDays = r.Offer.DeliveryDays
		}
		if r.Offer.Reliability > hybrid.Reliability {
			hybrid.Reliability = r.Offer.Reliability
		}
		if r.Offer.PastPerformance > hybrid.PastPerformance {
			hybrid.PastPerformance = r.Offer.PastPerformance
		}
	}

	hybrid.VendorID = "hybrid:" + strings.Join(vendors, "+")
	hybrid.Status = domain.OfferPending
	hybrid.Terms = fmt.Sprintf("hybrid of best terms from %s", strings.Join(vendors, ", "))

	return hybrid, nil
}
