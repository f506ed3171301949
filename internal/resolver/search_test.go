package resolver

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestSearchRepositories_FiltersByPrefix(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/search/repositories": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("q"); got != "user:myorg ho in:name" {
				t.Errorf("query = %q", got)
			}
			w.Write([]byte(`{"items": [
				{"full_name": "myorg/house-style", "description": "Our style"},
				{"full_name": "myorg/other", "description": ""}
			]}`))
		},
	})
	res := newTestResolver(t, ts)

	hits, err := res.SearchRepositories(context.Background(), "myorg/ho")
	if err != nil {
		t.Fatalf("SearchRepositories: unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].FullName != "myorg/house-style" {
		t.Errorf("hits = %+v, want only myorg/house-style", hits)
	}
}

func TestSearchRepositories_EmptyPrefix(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"/search/repositories": func(w http.ResponseWriter, r *http.Request) {
			t.Error("empty prefix must not hit the API")
		},
	})
	res := newTestResolver(t, ts)

	hits, err := res.SearchRepositories(context.Background(), "")
	if err != nil || hits != nil {
		t.Errorf("SearchRepositories(\"\") = %v, %v; want nil, nil", hits, err)
	}
}

func TestSearchRepositories_TransportFailure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){})
	res := newTestResolver(t, ts)

	_, err := res.SearchRepositories(context.Background(), "myorg/ho")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("SearchRepositories: got %v, want ErrTransport", err)
	}
}
