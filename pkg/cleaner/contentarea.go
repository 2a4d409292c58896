package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ladlehq/ladle/internal/logger"
)

// StrategyContentArea is the name of the content-area filter strategy.
const StrategyContentArea = "content_area"

// contentAreaConfidence is deliberately low: this filter removes known
// boilerplate but makes no attempt to localize the recipe.
const contentAreaConfidence = 30

// ContentArea removes known-boilerplate elements from the whole
// document without trying to find a specific section. It is the weaker,
// more permissive sibling of the section strategy.
type ContentArea struct{}

// NewContentArea creates the content-area filter strategy.
func NewContentArea() *ContentArea {
	return &ContentArea{}
}

// Name returns the strategy identifier.
func (c *ContentArea) Name() string {
	return StrategyContentArea
}

// Clean strips boilerplate from the full document body.
func (c *ContentArea) Clean(html string) (*Document, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Debug("content-area strategy declined", "error", err)
		return nil, false
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return nil, false
	}

	stripBoilerplate(body)

	content, err := body.Html()
	if err != nil {
		logger.Debug("content-area strategy declined", "error", err)
		return nil, false
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false
	}

	return &Document{
		Content:    content,
		Strategy:   StrategyContentArea,
		Confidence: contentAreaConfidence,
	}, true
}
