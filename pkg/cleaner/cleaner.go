// Package cleaner reduces noisy recipe-page HTML before LLM extraction.
// Strategies transform raw markup into a smaller, recipe-relevant fragment.
package cleaner

// Document is the output of a cleanup strategy.
// It exists only for the lifetime of one extraction call.
type Document struct {
	// Content is the cleaned markup.
	Content string

	// Strategy is the name of the strategy that produced this document.
	Strategy string

	// Confidence is the strategy's certainty in [0,100] that Content
	// holds the recipe-relevant part of the page.
	Confidence float64

	// Reduction is the size reduction versus the raw input, in [0,1].
	// 0 means no reduction (raw passthrough), 0.9 means 90% smaller.
	Reduction float64
}

// Strategy is one noise-reduction technique over raw HTML.
//
// Clean returns a candidate document and true, or declines by returning
// false. Strategies never return errors: a parse failure inside a
// strategy is a decline, not a pipeline failure.
type Strategy interface {
	Clean(html string) (*Document, bool)

	// Name returns the strategy identifier for logging and selection.
	Name() string
}
