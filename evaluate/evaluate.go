// Package evaluate scores and ranks competing vendor offers against a
// weighted multi-criteria model. Evaluation is pure: no state is shared
// between calls and identical inputs always produce identical rankings,
// so an Evaluator is safe for unbounded concurrent use.
package evaluate

import (
	"fmt"
	"math"
	"sort"

	"github.com/tailored-agentic-units/procure/core/domain"
)

const weightTolerance = 1e-6

// Weights assigns the relative importance of each offer criterion.
// The four weights must be non-negative and sum to 1.0 (±1e-6).
type Weights struct {
	Price           float64 `json:"price"`
	Delivery        float64 `json:"delivery"`
	Reliability     float64 `json:"reliability"`
	PastPerformance float64 `json:"past_performance"`
}

// DefaultWeights returns the standard procurement weighting: price dominant,
// then delivery, reliability, and past performance.
func DefaultWeights() Weights {
	return Weights{
		Price:           0.40,
		Delivery:        0.25,
		Reliability:     0.20,
		PastPerformance: 0.15,
	}
}

// Validate checks that the weights are non-negative and sum to 1.0 within
// tolerance. Returns ErrInvalidWeights otherwise.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Price, w.Delivery, w.Reliability, w.PastPerformance} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
	}

	sum := w.Price + w.Delivery + w.Reliability + w.PastPerformance
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// Config holds the fixed normalization constants for scoring. Reference
// values are deliberately not derived from the batch so that scores stay
// comparable across evaluation calls.
type Config struct {
	// RefPrice is the price at which the price criterion scores 1.0.
	RefPrice float64 `json:"ref_price,omitempty"`
	// RefDeliveryDays is the delivery time at which the delivery criterion scores 1.0.
	RefDeliveryDays float64 `json:"ref_delivery_days,omitempty"`
	// ScaleMax is the top of the reliability / past-performance scale
	// (10 or 5 depending on the scoring convention; consistent per call).
	ScaleMax float64 `json:"scale_max,omitempty"`
	// Weights is the default weight set used when the caller passes none.
	Weights Weights `json:"weights,omitempty"`
}

// DefaultConfig returns the standard evaluation constants.
func DefaultConfig() Config {
	return Config{
		RefPrice:        10000,
		RefDeliveryDays: 30,
		ScaleMax:        10,
		Weights:         DefaultWeights(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.RefPrice > 0 {
		c.RefPrice = source.RefPrice
	}
	if source.RefDeliveryDays > 0 {
		c.RefDeliveryDays = source.RefDeliveryDays
	}
	if source.ScaleMax > 0 {
		c.ScaleMax = source.ScaleMax
	}
	if source.Weights != (Weights{}) {
		c.Weights = source.Weights
	}
}

// Result pairs an offer with its computed score and 1-based rank. The weight
// snapshot records the configuration the score was computed under; scores are
// never cached across differing weight sets.
type Result struct {
	Offer   domain.Offer
	Score   float64
	Rank    int
	Weights Weights
}

// Evaluation holds the ranked results of one batch together with the offers
// that were excluded for failing validation.
type Evaluation struct {
	Results []Result
	Invalid []OfferError
}

// Selection is the outcome of picking the optimal offer from a ranked batch.
type Selection struct {
	Result
	TotalOffers int
}

// Evaluator scores offers using fixed normalization constants.
type Evaluator struct {
	cfg Config
}

// New creates an Evaluator from configuration.
func New(cfg Config) *Evaluator {
	def := DefaultConfig()
	def.Merge(&cfg)
	return &Evaluator{cfg: def}
}

// Evaluate scores each offer and returns them ranked descending by score.
// Ties preserve input order (stable sort). Offers with non-positive price or
// delivery days are excluded and reported in Evaluation.Invalid without
// aborting the batch. An empty input yields an empty result; a non-empty
// input with no valid offers fails with ErrNoValidOffers.
func (e *Evaluator) Evaluate(offers []domain.Offer, w Weights) (Evaluation, error) {
	if err := w.Validate(); err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{Results: make([]Result, 0, len(offers))}

	for _, offer := range offers {
		if err := validateOffer(offer); err != nil {
			eval.Invalid = append(eval.Invalid, OfferError{VendorID: offer.VendorID, Err: err})
			continue
		}

		eval.Results = append(eval.Results, Result{
			Offer:   offer,
			Score:   e.score(offer, w),
			Weights: w,
		})
	}

	if len(offers) > 0 && len(eval.Results) == 0 {
		return eval, fmt.Errorf("%w: all %d offers failed validation", ErrNoValidOffers, len(offers))
	}

	sort.SliceStable(eval.Results, func(i, j int) bool {
		return eval.Results[i].Score > eval.Results[j].Score
	})
	for i := range eval.Results {
		eval.Results[i].Rank = i + 1
	}

	return eval, nil
}

// SelectOptimal returns the top-ranked entry from a ranked result set.
// Fails with ErrEmptyInput when there is nothing to select.
func (e *Evaluator) SelectOptimal(results []Result) (Selection, error) {
	if len(results) == 0 {
		return Selection{}, fmt.Errorf("%w: no evaluation results", ErrEmptyInput)
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Rank < best.Rank {
			best = r
		}
	}

	best.Rank = 1
	return Selection{Result: best, TotalOffers: len(results)}, nil
}

func (e *Evaluator) score(offer domain.Offer, w Weights) float64 {
	price, _ := offer.Price.Float64()

	return w.Price*(e.cfg.RefPrice/price) +
		w.Delivery*(e.cfg.RefDeliveryDays/float64(offer.DeliveryDays)) +
		w.Reliability*(offer.Reliability/e.cfg.ScaleMax) +
		w.PastPerformance*(offer.PastPerformance/e.cfg.ScaleMax)
}

func validateOffer(offer domain.Offer) error {
	if !offer.Price.IsPositive() {
		return fmt.Errorf("%w: price %s must be positive", ErrInvalidOffer, offer.Price)
	}
	if offer.DeliveryDays <= 0 {
		return fmt.Errorf("%w: delivery days %d must be positive", ErrInvalidOffer, offer.DeliveryDays)
	}
	return nil
}
