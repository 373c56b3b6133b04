package outbound

import "time"

// PipelineMetrics records what the generation and moderation services do
type PipelineMetrics interface {
	ObserveModelCall(provider, outcome string, elapsed time.Duration)
	ObserveGeneration(outcome string, elapsed time.Duration)
	AddDraftsCreated(n int)
	ObserveModeration(action, outcome string)
	AddCascadePromotions(n int64)
}
