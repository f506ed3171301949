package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cbout22/lat/internal/config"
)

// newTestServer creates an httptest.Server with route handling for GitHub API
// and raw content endpoints.
func newTestServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		t.Logf("unhandled request: %s %s", r.Method, r.URL)
		http.NotFound(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

// newTestResolver creates a Resolver whose API base points at ts.
func newTestResolver(t *testing.T, ts *httptest.Server) *Resolver {
	t.Helper()
	s := config.Default()
	s.APIURL = ts.URL
	return New(ts.Client(), s)
}

// listing builds a contents API handler returning the given name→path
// entries. A path of "" yields a directory entry with a null download_url.
func listing(ts **httptest.Server, entries [][2]string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			item := map[string]any{"name": e[0], "type": "file", "download_url": nil}
			if e[1] == "" {
				item["type"] = "dir"
			} else {
				item["download_url"] = (*ts).URL + e[1]
			}
			out = append(out, item)
		}
		json.NewEncoder(w).Encode(out)
	}
}

func text(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func TestScan_PicksImportAndSnippets(t *testing.T) {
	t.Parallel()

	var ts *httptest.Server
	ts = newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": listing(&ts, [][2]string{
			{"a.sty", "/raw/a.sty"},
			{"b.txt", "/raw/b.txt"},
			{"snippets-x.json", "/raw/snippets-x.json"},
		}),
	})
	res := newTestResolver(t, ts)

	got, err := res.Scan(context.Background(), "myorg", "myrepo")
	if err != nil {
		t.Fatalf("Scan: unexpected error: %v", err)
	}
	if got.ImportURL != ts.URL+"/raw/a.sty" {
		t.Errorf("ImportURL = %q", got.ImportURL)
	}
	if got.ImportName != "a.sty" || got.ImportBaseName != "a" {
		t.Errorf("import = %q (base %q), want a.sty (base a)", got.ImportName, got.ImportBaseName)
	}
	if got.SnippetsURL != ts.URL+"/raw/snippets-x.json" {
		t.Errorf("SnippetsURL = %q", got.SnippetsURL)
	}
}

func TestScan_NoImportFile(t *testing.T) {
	t.Parallel()

	var ts *httptest.Server
	ts = newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": listing(&ts, [][2]string{
			{"README.md", "/raw/README.md"},
			{"snippets.json", "/raw/snippets.json"},
		}),
	})
	res := newTestResolver(t, ts)

	_, err := res.Scan(context.Background(), "myorg", "myrepo")
	if !errors.Is(err, ErrResolutionNotFound) {
		t.Fatalf("Scan: got %v, want ErrResolutionNotFound", err)
	}
}

func TestScan_NoSnippetsIsNotAnError(t *testing.T) {
	t.Parallel()

	var ts *httptest.Server
	ts = newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": listing(&ts, [][2]string{
			{"house.sty", "/raw/house.sty"},
		}),
	})
	res := newTestResolver(t, ts)

	got, err := res.Scan(context.Background(), "myorg", "myrepo")
	if err != nil {
		t.Fatalf("Scan: unexpected error: %v", err)
	}
	if got.HasSnippets() || got.SnippetsName != "" {
		t.Errorf("expected no snippets, got %+v", got)
	}
}

func TestSelectCandidates_LastSnippetsMatchWins(t *testing.T) {
	t.Parallel()

	res := New(http.DefaultClient, config.Default())
	u := func(s string) *string { return &s }

	got := res.selectCandidates([]ContentEntry{
		{Name: "snippets-old.json", DownloadURL: u("https://x/old")},
		{Name: "house.sty", DownloadURL: u("https://x/house")},
		{Name: "extra.sty", DownloadURL: u("https://x/extra")},
		{Name: "snippets-new.json", DownloadURL: u("https://x/new")},
	})

	if got.SnippetsURL != "https://x/new" {
		t.Errorf("SnippetsURL = %q, want last match", got.SnippetsURL)
	}
	if got.ImportURL != "https://x/house" {
		t.Errorf("ImportURL = %q, want first import match", got.ImportURL)
	}
}

func TestSelectCandidates_SkipsDirectories(t *testing.T) {
	t.Parallel()

	res := New(http.DefaultClient, config.Default())
	u := func(s string) *string { return &s }

	got := res.selectCandidates([]ContentEntry{
		{Name: "styles.sty", Type: "dir"},
		{Name: "snippets", Type: "dir"},
		{Name: "real.sty", Type: "file", DownloadURL: u("https://x/real")},
	})

	if got.ImportName != "real.sty" {
		t.Errorf("ImportName = %q, want real.sty", got.ImportName)
	}
	if got.HasSnippets() {
		t.Errorf("directory entry selected as snippets: %+v", got)
	}
}

func TestScan_DecodeFailure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": text(`{"message": "this is an object"}`),
	})
	res := newTestResolver(t, ts)

	_, err := res.Scan(context.Background(), "myorg", "myrepo")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Scan: got %v, want ErrDecode", err)
	}
}

func TestScan_TransportFailure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){})
	res := newTestResolver(t, ts)

	_, err := res.Scan(context.Background(), "myorg", "missing")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Scan(404): got %v, want ErrTransport", err)
	}
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	want := "\\ProvidesPackage{house}\n"
	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/myorg/myrepo/raw/main/house.sty": text(want),
	})
	res := newTestResolver(t, ts)

	got, err := res.Fetch(context.Background(), ts.URL+"/myorg/myrepo/raw/main/house.sty")
	if err != nil {
		t.Fatalf("Fetch: unexpected error: %v", err)
	}
	if string(got) != want {
		t.Errorf("Fetch: got %q, want %q", got, want)
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/boom": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusForbidden)
		},
	})
	res := newTestResolver(t, ts)

	_, err := res.Fetch(context.Background(), ts.URL+"/boom")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Fetch(403): got %v, want ErrTransport", err)
	}
}

func TestResolve_RepositoryWithSnippets(t *testing.T) {
	t.Parallel()

	var ts *httptest.Server
	ts = newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": listing(&ts, [][2]string{
			{"house.sty", "/raw/house.sty"},
			{"house-snippets.json", "/raw/house-snippets.json"},
		}),
		"/raw/house.sty":           text("style"),
		"/raw/house-snippets.json": text("{}"),
	})
	res := newTestResolver(t, ts)

	got, err := res.Resolve(context.Background(), config.Classify("myorg/myrepo"))
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}
	if got.ImportName != "house.sty" || string(got.ImportContent) != "style" {
		t.Errorf("import = %q %q", got.ImportName, got.ImportContent)
	}
	if got.SnippetsName != "house.code-snippets" || string(got.SnippetsContent) != "{}" {
		t.Errorf("snippets = %q %q", got.SnippetsName, got.SnippetsContent)
	}
}

func TestResolve_SnippetsFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	var ts *httptest.Server
	ts = newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": listing(&ts, [][2]string{
			{"house.sty", "/raw/house.sty"},
			{"snippets.json", "/raw/gone.json"},
		}),
		"/raw/house.sty": text("style"),
	})
	res := newTestResolver(t, ts)

	got, err := res.Resolve(context.Background(), config.Classify("https://github.com/myorg/myrepo.git"))
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}
	if got.HasSnippets() {
		t.Errorf("snippets should have been dropped, got %q", got.SnippetsName)
	}
	if string(got.ImportContent) != "style" {
		t.Errorf("ImportContent = %q", got.ImportContent)
	}
}

func TestResolve_ImportFetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	var ts *httptest.Server
	ts = newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": listing(&ts, [][2]string{
			{"house.sty", "/raw/missing.sty"},
		}),
	})
	res := newTestResolver(t, ts)

	_, err := res.Resolve(context.Background(), config.Classify("myorg/myrepo"))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Resolve: got %v, want ErrTransport", err)
	}
}

func TestResolve_BlobURLFetchedDirectly(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": func(w http.ResponseWriter, r *http.Request) {
			t.Error("blob URL must not trigger a directory scan")
		},
		"/myorg/myrepo/raw/main/styles/house.sty": text("direct"),
	})
	res := newTestResolver(t, ts)

	ref := config.Reference{
		Kind:     config.KindBlobURL,
		Owner:    "myorg",
		Repo:     "myrepo",
		Branch:   "main",
		FilePath: "styles/house.sty",
		RawURL:   ts.URL + "/myorg/myrepo/raw/main/styles/house.sty",
	}
	got, err := res.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}
	if got.ImportName != "house.sty" || string(got.ImportContent) != "direct" {
		t.Errorf("got %q %q", got.ImportName, got.ImportContent)
	}
	if got.HasSnippets() {
		t.Error("blob URL should not carry snippets")
	}
}

func TestResolve_AliasIsNotFound(t *testing.T) {
	t.Parallel()

	res := New(http.DefaultClient, config.Default())
	_, err := res.Resolve(context.Background(), config.Classify("rt"))
	if !errors.Is(err, ErrResolutionNotFound) {
		t.Fatalf("Resolve(alias): got %v, want ErrResolutionNotFound", err)
	}
}

func TestFetch_BodyOverLimitFails(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/big": text(strings.Repeat("x", 26)),
	})
	res := newTestResolver(t, ts)
	res.maxBody = 16

	got, err := res.Fetch(context.Background(), ts.URL+"/big")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Fetch(26 bytes, limit 16): got %d bytes, err %v; want ErrTransport", len(got), err)
	}
	if got != nil {
		t.Errorf("Fetch returned %d bytes alongside the error", len(got))
	}
}

func TestFetch_BodyAtLimitSucceeds(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/exact": text(strings.Repeat("x", 16)),
	})
	res := newTestResolver(t, ts)
	res.maxBody = 16

	got, err := res.Fetch(context.Background(), ts.URL+"/exact")
	if err != nil {
		t.Fatalf("Fetch(16 bytes, limit 16): unexpected error: %v", err)
	}
	if len(got) != 16 {
		t.Errorf("Fetch: got %d bytes, want 16", len(got))
	}
}

func TestScan_ListingOverLimitFails(t *testing.T) {
	t.Parallel()

	var ts *httptest.Server
	ts = newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/repos/myorg/myrepo/contents/": listing(&ts, [][2]string{
			{"house.sty", "/raw/house.sty"},
		}),
	})
	res := newTestResolver(t, ts)
	res.maxBody = 8

	_, err := res.Scan(context.Background(), "myorg", "myrepo")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Scan: got %v, want ErrTransport", err)
	}
}
