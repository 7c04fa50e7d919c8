package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPRendererLoadsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html lang="en"><title>ok</title></html>`))
	}))
	defer srv.Close()

	renderer := NewHTTPRenderer(Options{NavigationTimeout: 5 * time.Second})
	sess, err := renderer.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	page, err := sess.NewPage(context.Background())
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if _, ok := page.(ScriptPage); ok {
		t.Fatalf("http pages must not claim script support")
	}
	if _, err := page.HTML(context.Background()); err == nil {
		t.Fatalf("expected error before navigation")
	}

	if err := page.Navigate(context.Background(), srv.URL+"/"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	html, err := page.HTML(context.Background())
	if err != nil || html != `<html lang="en"><title>ok</title></html>` {
		t.Fatalf("html=%q err=%v", html, err)
	}
	if page.URL() != srv.URL+"/" {
		t.Fatalf("url=%q", page.URL())
	}

	err = page.Navigate(context.Background(), srv.URL+"/missing")
	if !errors.Is(err, ErrNavigation) {
		t.Fatalf("expected ErrNavigation, got %v", err)
	}
}

func TestSplitChromeArg(t *testing.T) {
	cases := map[string][2]string{
		"--window-size=1280,800": {"window-size", "1280,800"},
		"disable-gpu":            {"disable-gpu", ""},
		"  --lang=en ":           {"lang", "en"},
	}
	for in, want := range cases {
		name, value := splitChromeArg(in)
		if name != want[0] || value != want[1] {
			t.Fatalf("splitChromeArg(%q)=%q,%q", in, name, value)
		}
	}
}

func TestNavigationTimeoutDefault(t *testing.T) {
	if (Options{}).navigationTimeout() != defaultNavigationTimeout {
		t.Fatalf("expected default timeout")
	}
	if (Options{NavigationTimeout: time.Second}).navigationTimeout() != time.Second {
		t.Fatalf("expected explicit timeout")
	}
}
