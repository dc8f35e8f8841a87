package engine

import (
	"context"
	"runtime"
	"sync"

	"github.com/tailored-agentic-units/procure/core/domain"
	"github.com/tailored-agentic-units/procure/observability"
	"github.com/tailored-agentic-units/procure/urgency"
)

// workerCap bounds auto-detected worker counts.
const workerCap = 16

type indexedItem struct {
	index int
	item  domain.InventoryItem
}

type indexedAssessment struct {
	index      int
	assessment urgency.Assessment
}

// classifyAll distributes items to a bounded worker pool and returns their
// assessments in original item order. Classification is pure, so workers
// share nothing but the read-only sales slice.
func (e *Engine) classifyAll(ctx context.Context, items []domain.InventoryItem, sales []domain.SalesRecord) []urgency.Assessment {
	if len(items) == 0 {
		return []urgency.Assessment{}
	}

	workerCount := calculateWorkerCount(e.workers, len(items))

	work := make(chan indexedItem, len(items))
	results := make(chan indexedAssessment, len(items))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range work {
				if ctx.Err() != nil {
					return
				}
				a := urgency.Assess(w.item, sales)
				e.emit(ctx, EventItemClassified, observability.LevelVerbose, map[string]any{
					"sku":      a.SKU,
					"priority": string(a.Priority),
				})
				results <- indexedAssessment{index: w.index, assessment: a}
			}
		}()
	}

	for i, item := range items {
		work <- indexedItem{index: i, item: item}
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]urgency.Assessment, len(items))
	seen := make([]bool, len(items))
	for r := range results {
		out[r.index] = r.assessment
		seen[r.index] = true
	}

	// A cancelled context can leave gaps; fill them with a zero
	// assessment so the slice stays aligned with the input.
	for i, ok := range seen {
		if !ok {
			out[i] = urgency.Assessment{SKU: items[i].SKU}
		}
	}
	return out
}

func calculateWorkerCount(configured, itemCount int) int {
	if configured > 0 {
		return min(configured, itemCount)
	}
	return min(runtime.NumCPU()*2, workerCap, itemCount)
}
