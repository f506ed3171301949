package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	logger "github.com/sirupsen/logrus"
)

// githubTokenEnvVars lists the environment variables checked for a GitHub token,
// in priority order.
var githubTokenEnvVars = []string{
	"GITHUB_TOKEN",
	"GH_TOKEN",
}

// tokenHosts are the hosts that receive the Authorization header. Anything
// else (a custom update_url, for instance) only gets the User-Agent.
var tokenHosts = []string{
	"api.github.com",
	"github.com",
	"raw.githubusercontent.com",
}

// Token returns the GitHub personal access token from the environment.
// It checks GITHUB_TOKEN first, then GH_TOKEN.
func Token() (string, error) {
	for _, env := range githubTokenEnvVars {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf(
		"no GitHub token found: set %s or %s in your environment",
		githubTokenEnvVars[0], githubTokenEnvVars[1],
	)
}

// NewHTTPClient returns an *http.Client for every request lat makes. Each
// request carries userAgent. If a GitHub token is available it also adds
// Bearer auth for GitHub hosts and for apiURL's host; otherwise requests are
// unauthenticated (fine for public repos, but rate-limited).
func NewHTTPClient(userAgent, apiURL string, timeout time.Duration) *http.Client {
	t := &headerTransport{
		userAgent: userAgent,
		hosts:     make(map[string]bool),
		base:      http.DefaultTransport,
	}

	token, err := Token()
	if err != nil {
		logger.Debug("No GitHub token found, using unauthenticated requests (rate-limited)")
	} else {
		t.token = token
		for _, h := range tokenHosts {
			t.hosts[h] = true
		}
		if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
			t.hosts[u.Host] = true
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: t,
	}
}

// headerTransport is a custom http.RoundTripper that adds the identifying
// User-Agent and, for allowed hosts, the Authorization header.
type headerTransport struct {
	userAgent string
	token     string
	hosts     map[string]bool
	base      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Headers are set on a clone; RoundTrippers must not modify the request.
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	if t.token != "" && t.hosts[r.URL.Host] {
		r.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(r)
}
