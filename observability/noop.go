package observability

import "context"

// NoOpObserver discards all events with zero overhead. It is the default
// for tests that exercise the engine without caring about emissions.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
