package edgar

import (
	"strings"
	"testing"
)

func TestExtractText_StripMarkup(t *testing.T) {
	raw := `<html>
	<head><title>8-K</title><style>p { color: red; }</style></head>
	<body>
		<script>var tracking = true;</script>
		<p>Item 8.01 Other Events.</p>
		<p>The Company announced positive topline results.</p>
	</body>
	</html>`

	text, err := ExtractText(raw)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if !strings.Contains(text, "Item 8.01 Other Events.") {
		t.Errorf("content lost: %q", text)
	}
	if strings.Contains(text, "tracking") {
		t.Error("script content must be removed")
	}
	if strings.Contains(text, "color: red") {
		t.Error("style content must be removed")
	}
	if strings.Contains(text, "8-K</title>") || strings.Contains(text, "<p>") {
		t.Error("markup must be removed")
	}
}

func TestExtractText_CollapsesWhitespace(t *testing.T) {
	raw := "<html><body><p>first   line</p>\n\n\n<p>second\tline</p></body></html>"

	text, err := ExtractText(raw)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if strings.Contains(text, "  ") || strings.Contains(text, "\n") {
		t.Errorf("whitespace not collapsed: %q", text)
	}
}

func TestExtractText_PlainTextPassthrough(t *testing.T) {
	text, err := ExtractText("PLAIN   TEXT\nFILING")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if text != "PLAIN TEXT FILING" {
		t.Errorf("got %q", text)
	}
}

func TestExtractText_NoBody(t *testing.T) {
	text, err := ExtractText("<div>fragment without body</div>")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(text, "fragment without body") {
		t.Errorf("fragment text lost: %q", text)
	}
}
