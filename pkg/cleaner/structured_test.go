package cleaner

import (
	"strings"
	"testing"
)

func TestStructuredDataJSONLD(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "plain recipe node",
			html: `<html><head><script type="application/ld+json">{"@type":"Recipe","name":"Soup"}</script></head></html>`,
			want: true,
		},
		{
			name: "recipe inside @graph",
			html: `<html><head><script type="application/ld+json">{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":"Recipe","name":"Soup"}]}</script></head></html>`,
			want: true,
		},
		{
			name: "type as list",
			html: `<html><head><script type="application/ld+json">{"@type":["Recipe","NewsArticle"],"name":"Soup"}</script></head></html>`,
			want: true,
		},
		{
			name: "top-level array",
			html: `<html><head><script type="application/ld+json">[{"@type":"Organization"},{"@type":"Recipe"}]</script></head></html>`,
			want: true,
		},
		{
			name: "no recipe node",
			html: `<html><head><script type="application/ld+json">{"@type":"NewsArticle"}</script></head></html>`,
			want: false,
		},
		{
			name: "malformed JSON-LD",
			html: `<html><head><script type="application/ld+json">{"@type": "Recipe",</script></head></html>`,
			want: false,
		},
		{
			name: "no structured data at all",
			html: `<html><body><p>Just a page.</p></body></html>`,
			want: false,
		},
	}

	s := NewStructuredData()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, ok := s.Clean(tt.html)
			if ok != tt.want {
				t.Fatalf("Clean() ok = %v, want %v", ok, tt.want)
			}
			if ok && doc.Strategy != StrategyStructured {
				t.Errorf("strategy = %q", doc.Strategy)
			}
		})
	}
}

func TestStructuredDataMicrodataFallback(t *testing.T) {
	html := `<html><body>
<div itemscope itemtype="https://schema.org/Recipe">
<span itemprop="name">Tomato Soup</span>
</div>
</body></html>`

	s := NewStructuredData()
	doc, ok := s.Clean(html)
	if !ok {
		t.Fatal("expected microdata to qualify")
	}
	if !strings.Contains(doc.Content, "Tomato Soup") {
		t.Error("expected the microdata subtree in the output")
	}
	if doc.Confidence != structuredConfidence {
		t.Errorf("confidence = %v, want %v", doc.Confidence, structuredConfidence)
	}
}

func TestStructuredDataCollectsAllBlocks(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{"@type":"Recipe","name":"Starter"}</script>
<script type="application/ld+json">{"@type":"Recipe","name":"Main"}</script>
</head></html>`

	s := NewStructuredData()
	doc, ok := s.Clean(html)
	if !ok {
		t.Fatal("expected JSON-LD to qualify")
	}
	if !strings.Contains(doc.Content, "Starter") || !strings.Contains(doc.Content, "Main") {
		t.Error("expected both recipe blocks in the output")
	}
}
