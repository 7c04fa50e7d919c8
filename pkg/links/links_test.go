package links

import (
	"net/url"
	"reflect"
	"testing"
)

func TestExtractResolvesAndFiltersByOrigin(t *testing.T) {
	base, _ := url.Parse("https://example.com/en/otherpage")
	html := `<html><body>
		<a href="/en/page">abs path</a>
		<a href="sibling">relative</a>
		<a href="https://otherexample.com/en/page">external</a>
		<a href="http://example.com/insecure">other scheme</a>
		<a href="https://example.com:443/explicit-port">port</a>
		<a href="#section">fragment</a>
		<a href="mailto:a@example.com">mail</a>
		<a>no href</a>
		<a href="/en/page">dup</a>
	</body></html>`

	got, err := NewExtractor().Extract(html, base)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{
		"https://example.com/en/page",
		"https://example.com/en/sibling",
		"https://example.com:443/explicit-port",
		"https://example.com/en/otherpage#section",
		"https://example.com/en/page",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v\nwant %v", got, want)
	}
}

func TestExtractRequiresBase(t *testing.T) {
	if _, err := NewExtractor().Extract("<a href='/'>x</a>", nil); err == nil {
		t.Fatalf("expected error without base")
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	got, err := NewExtractor().Extract("", base)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("got %v err %v", got, err)
	}
}
