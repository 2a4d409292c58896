package cleaner

import (
	"github.com/ladlehq/ladle/internal/logger"
)

// Orchestrator runs strategies in a fixed priority order and accepts
// the first candidate that clears its thresholds. This is a greedy
// selection, not a best-of-all-candidates search: first acceptable wins
// to bound latency.
type Orchestrator struct {
	strategies []Strategy
	config     Config
}

// NewOrchestrator creates an orchestrator with the default strategy
// order: structured data, section scoring, content-area filter, raw
// passthrough.
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		strategies: []Strategy{
			NewStructuredData(),
			NewSection(cfg.SectionKeywords, cfg.SectionMinTextLength),
			NewContentArea(),
			NewRaw(),
		},
		config: cfg,
	}
}

// NewOrchestratorWithStrategies creates an orchestrator with a custom
// strategy list. Ordering is a property of this registry, not of any
// individual strategy.
func NewOrchestratorWithStrategies(cfg Config, strategies ...Strategy) *Orchestrator {
	return &Orchestrator{strategies: strategies, config: cfg}
}

// Clean reduces raw HTML using the first qualifying strategy.
// It never fails: if nothing qualifies the raw document is returned
// tagged with strategy "raw".
func (o *Orchestrator) Clean(rawHTML string) *Document {
	rawSize := len(rawHTML)

	for _, strategy := range o.strategies {
		candidate, ok := strategy.Clean(rawHTML)
		if !ok {
			logger.Debug("cleanup strategy declined", "strategy", strategy.Name())
			continue
		}

		if !o.accepts(candidate) {
			logger.Debug("cleanup candidate rejected",
				"strategy", candidate.Strategy,
				"confidence", candidate.Confidence,
				"output_size", len(candidate.Content))
			continue
		}

		candidate.Reduction = reduction(rawSize, len(candidate.Content))
		logger.Debug("cleanup candidate accepted",
			"strategy", candidate.Strategy,
			"confidence", candidate.Confidence,
			"input_size", rawSize,
			"output_size", len(candidate.Content),
			"reduction", candidate.Reduction)
		return candidate
	}

	// Unreachable with the default strategy list (raw always succeeds),
	// but a custom registry may contain no passthrough.
	logger.Debug("no cleanup strategy qualified, returning raw document", "size", rawSize)
	return &Document{Content: rawHTML, Strategy: StrategyRaw}
}

// accepts applies the per-strategy confidence and size thresholds.
func (o *Orchestrator) accepts(candidate *Document) bool {
	threshold, ok := o.config.threshold(candidate.Strategy)
	if !ok {
		// Raw passthrough and unknown strategies have no bar to clear.
		return true
	}
	if candidate.Confidence < threshold.MinConfidence {
		return false
	}
	if len(candidate.Content) < threshold.MinOutputBytes {
		return false
	}
	return true
}

func reduction(rawSize, cleanedSize int) float64 {
	if rawSize == 0 {
		return 0
	}
	r := 1 - float64(cleanedSize)/float64(rawSize)
	if r < 0 {
		return 0
	}
	return r
}
