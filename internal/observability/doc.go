// Package observability provides logging, metrics, and request context
// support for the research report service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//
// Enrich it with whatever the request context carries:
//
//	log := observability.LoggerFromContext(ctx, logger)
//	log.Info().Str("query", query).Msg("report pipeline started")
//
// # Metrics
//
//	metrics := observability.NewMetrics("research_report")
//	metrics.RecordPipelineStarted("report")
//	metrics.RecordLLMRequest("paper_analysis", "gpt-4o-mini", 1.4)
//
// A nil *Metrics is valid and records nothing.
//
// # Standard Fields
//
//   - request_id: per-request identifier from the router
//   - correlation_id: caller-supplied X-Correlation-ID
//   - user_id: authenticated owner
//   - pipeline: report, search, refinement, analysis
//   - query: the user's research query
//   - source: paper source (arxiv)
package observability
