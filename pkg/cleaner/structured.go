package cleaner

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ladlehq/ladle/internal/logger"
)

// StrategyStructured is the name of the structured-data strategy.
const StrategyStructured = "structured"

// structuredConfidence reflects that machine-readable recipe markup is
// authoritative: the page author declared it a recipe.
const structuredConfidence = 95

// StructuredData extracts embedded schema.org Recipe markup.
// JSON-LD blocks are preferred; microdata subtrees are a fallback.
type StructuredData struct{}

// NewStructuredData creates the structured-data strategy.
func NewStructuredData() *StructuredData {
	return &StructuredData{}
}

// Name returns the strategy identifier.
func (s *StructuredData) Name() string {
	return StrategyStructured
}

// Clean returns the machine-readable recipe blocks found in the page,
// or declines when none exist.
func (s *StructuredData) Clean(html string) (*Document, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Debug("structured strategy declined", "error", err)
		return nil, false
	}

	var blocks []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		if containsRecipeNode(raw) {
			blocks = append(blocks, raw)
		}
	})

	if len(blocks) > 0 {
		return &Document{
			Content:    strings.Join(blocks, "\n"),
			Strategy:   StrategyStructured,
			Confidence: structuredConfidence,
		}, true
	}

	// Microdata fallback: itemtype pointing at schema.org/Recipe.
	var microdata []string
	doc.Find(`[itemtype]`).Each(func(_ int, sel *goquery.Selection) {
		itemType, _ := sel.Attr("itemtype")
		if !strings.Contains(strings.ToLower(itemType), "schema.org/recipe") {
			return
		}
		if fragment, err := goquery.OuterHtml(sel); err == nil {
			microdata = append(microdata, fragment)
		}
	})

	if len(microdata) > 0 {
		return &Document{
			Content:    strings.Join(microdata, "\n"),
			Strategy:   StrategyStructured,
			Confidence: structuredConfidence,
		}, true
	}

	return nil, false
}

// containsRecipeNode reports whether a JSON-LD payload declares a
// schema.org Recipe anywhere in it, including @graph containers.
func containsRecipeNode(raw string) bool {
	var node any
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		logger.Debug("structured strategy skipping malformed JSON-LD", "size", len(raw))
		return false
	}
	return nodeIsRecipe(node)
}

func nodeIsRecipe(node any) bool {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if nodeIsRecipe(item) {
				return true
			}
		}
	case map[string]any:
		if typeIsRecipe(v["@type"]) {
			return true
		}
		if graph, ok := v["@graph"]; ok {
			return nodeIsRecipe(graph)
		}
	}
	return false
}

// typeIsRecipe handles @type as both a string and a list of strings.
func typeIsRecipe(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Recipe")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}
