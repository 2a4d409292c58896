package cleaner

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func newTestSection() *Section {
	cfg := DefaultConfig()
	return NewSection(cfg.SectionKeywords, cfg.SectionMinTextLength)
}

func parseFragment(html string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return doc.Find("article").First(), nil
}

func TestSectionScoring(t *testing.T) {
	s := newTestSection()

	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "keywords only",
			html: `<article><p>ingredients and instructions</p></article>`,
			want: 2 * keywordWeight,
		},
		{
			name: "keywords plus lists",
			html: `<article><p>ingredients</p><ul><li>a</li></ul><ol><li>b</li></ol></article>`,
			want: keywordWeight + listBonus,
		},
		{
			name: "single list earns no bonus",
			html: `<article><p>ingredients</p><ul><li>a</li></ul></article>`,
			want: keywordWeight,
		},
		{
			name: "subheadings",
			html: `<article><p>ingredients</p><h2>Ingredients</h2><h3>Steps</h3></article>`,
			want: keywordWeight + subheadingBonus,
		},
		{
			name: "long text",
			html: `<article><p>ingredients ` + strings.Repeat("filler text ", 50) + `</p></article>`,
			want: keywordWeight + textLengthBonus,
		},
		{
			name: "no signal",
			html: `<article><p>an unrelated story</p></article>`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseFragment(tt.html)
			if err != nil {
				t.Fatal(err)
			}
			if got := s.score(doc); got != tt.want {
				t.Errorf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSectionScoreIsCapped(t *testing.T) {
	cfg := DefaultConfig()
	s := NewSection(cfg.SectionKeywords, 10)

	var b strings.Builder
	b.WriteString("<article>")
	for _, kw := range cfg.SectionKeywords {
		b.WriteString("<p>" + kw + "</p>")
	}
	b.WriteString("<ul><li>a</li></ul><ol><li>b</li></ol><h2>A</h2><h3>B</h3></article>")

	doc, err := parseFragment(b.String())
	if err != nil {
		t.Fatal(err)
	}
	if got := s.score(doc); got != maxSectionScore {
		t.Errorf("score = %d, want cap %d", got, maxSectionScore)
	}
}

func TestSectionPicksHighestScoringSubtree(t *testing.T) {
	html := `<html><body>
<article><p>an unrelated story about travel</p></article>
<article>
<h2>Ingredients</h2>
<ul><li>2 cups flour</li></ul>
<h2>Instructions</h2>
<ol><li>Mix.</li></ol>
</article>
</body></html>`

	s := newTestSection()
	doc, ok := s.Clean(html)
	if !ok {
		t.Fatal("expected the section strategy to qualify")
	}
	if !strings.Contains(doc.Content, "2 cups flour") {
		t.Error("expected the recipe article to win")
	}
	if strings.Contains(doc.Content, "travel") {
		t.Error("expected the unrelated article to lose")
	}
}

func TestSectionStripsBoilerplate(t *testing.T) {
	html := `<html><body>
<article>
<h2>Ingredients</h2>
<ul><li>flour</li></ul>
<h2>Instructions</h2>
<ol><li>Mix.</li></ol>
<div class="social-share">Share this!</div>
<script>trackPageView()</script>
</article>
</body></html>`

	s := newTestSection()
	doc, ok := s.Clean(html)
	if !ok {
		t.Fatal("expected the section strategy to qualify")
	}
	if strings.Contains(doc.Content, "Share this!") {
		t.Error("expected social widgets to be stripped")
	}
	if strings.Contains(doc.Content, "trackPageView") {
		t.Error("expected scripts to be stripped")
	}
}

func TestSectionDeclinesWithoutSignal(t *testing.T) {
	s := newTestSection()

	if _, ok := s.Clean(`<html><body><article><p>nothing relevant</p></article></body></html>`); ok {
		t.Error("expected the strategy to decline a zero-score page")
	}
	if _, ok := s.Clean(`<html><body><p>no candidate containers</p></body></html>`); ok {
		t.Error("expected the strategy to decline without candidates")
	}
}
