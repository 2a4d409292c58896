package cleaner

// StrategyRaw is the name of the passthrough strategy.
const StrategyRaw = "raw"

// Raw is the identity strategy. It always succeeds and is used only as
// the terminal fallback when every other strategy declines or fails the
// acceptance thresholds.
type Raw struct{}

// NewRaw creates the passthrough strategy.
func NewRaw() *Raw {
	return &Raw{}
}

// Name returns the strategy identifier.
func (r *Raw) Name() string {
	return StrategyRaw
}

// Clean returns the input unmodified.
func (r *Raw) Clean(html string) (*Document, bool) {
	return &Document{
		Content:  html,
		Strategy: StrategyRaw,
	}, true
}
