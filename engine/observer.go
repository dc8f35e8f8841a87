package engine

import "github.com/tailored-agentic-units/procure/observability"

// Engine event types emitted during a batch analysis pass.
const (
	EventRunStart             observability.EventType = "engine.run.start"
	EventRunComplete          observability.EventType = "engine.run.complete"
	EventItemClassified       observability.EventType = "engine.item.classified"
	EventRecommendation       observability.EventType = "engine.recommendation"
	EventRecommendationFailed observability.EventType = "engine.recommendation.failed"
	EventDispatchFailed       observability.EventType = "engine.dispatch.failed"
)
