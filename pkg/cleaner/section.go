package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ladlehq/ladle/internal/logger"
)

// StrategySection is the name of the section-scoring strategy.
const StrategySection = "section"

// Scoring weights for candidate subtrees. The score is capped at 100 so
// it stays comparable with strategy confidences.
const (
	keywordWeight   = 10
	listBonus       = 20
	subheadingBonus = 10
	textLengthBonus = 10
	maxSectionScore = 100
	minListElements = 2
	minSubheadings  = 2
)

// sectionCandidates are the container elements worth scoring.
var sectionCandidates = []string{"article", "main", "section", "div[class*='recipe']", "div[id*='recipe']"}

// boilerplateSelectors match elements stripped from a winning subtree.
var boilerplateSelectors = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "footer", "aside", "form",
	"[class*='nav']", "[class*='footer']", "[class*='sidebar']",
	"[class*='ad-']", "[class*='ads']", "[id*='ad-']",
	"[class*='social']", "[class*='share']", "[class*='comment']",
	"[class*='newsletter']", "[class*='cookie']", "[class*='popup']",
}

// Section scores candidate DOM subtrees by recipe signal and returns
// the highest scorer, stripped of boilerplate.
type Section struct {
	keywords      []string
	minTextLength int
}

// NewSection creates the section strategy with the given signal keywords.
func NewSection(keywords []string, minTextLength int) *Section {
	return &Section{keywords: keywords, minTextLength: minTextLength}
}

// Name returns the strategy identifier.
func (s *Section) Name() string {
	return StrategySection
}

// Clean picks the best-scoring container subtree. The confidence of the
// returned document is the subtree's score; the orchestrator decides
// whether it clears the configured bar.
func (s *Section) Clean(html string) (*Document, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Debug("section strategy declined", "error", err)
		return nil, false
	}

	var best *goquery.Selection
	bestScore := 0

	for _, candidate := range sectionCandidates {
		doc.Find(candidate).Each(func(_ int, sel *goquery.Selection) {
			score := s.score(sel)
			if score > bestScore {
				bestScore = score
				best = sel
			}
		})
	}

	if best == nil || bestScore == 0 {
		return nil, false
	}

	stripBoilerplate(best)

	content, err := goquery.OuterHtml(best)
	if err != nil {
		logger.Debug("section strategy declined", "error", err)
		return nil, false
	}

	logger.Debug("section strategy scored subtree", "score", bestScore, "output_size", len(content))

	return &Document{
		Content:    content,
		Strategy:   StrategySection,
		Confidence: float64(bestScore),
	}, true
}

// score applies the weighted heuristic to one subtree.
func (s *Section) score(sel *goquery.Selection) int {
	text := strings.ToLower(sel.Text())
	if text == "" {
		return 0
	}

	score := 0
	for _, keyword := range s.keywords {
		if strings.Contains(text, keyword) {
			score += keywordWeight
		}
	}
	if sel.Find("ul, ol").Length() >= minListElements {
		score += listBonus
	}
	if sel.Find("h2, h3, h4").Length() >= minSubheadings {
		score += subheadingBonus
	}
	if len(text) > s.minTextLength {
		score += textLengthBonus
	}

	if score > maxSectionScore {
		score = maxSectionScore
	}
	return score
}

// stripBoilerplate removes navigation, ads, and script noise in place.
func stripBoilerplate(sel *goquery.Selection) {
	for _, selector := range boilerplateSelectors {
		sel.Find(selector).Remove()
	}
}
