package kafka

// Topic definitions for event streaming
const (
	// TopicPipelineRuns carries run-completed events with the partial-success report
	TopicPipelineRuns = "pipeline.runs"

	// TopicOpportunities carries opportunity scan results
	TopicOpportunities = "market.opportunities"
)
