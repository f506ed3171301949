package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAssetNotFound means the release carries no build for this platform.
	ErrAssetNotFound = errors.New("release asset not found")
	// ErrDecode is a releases payload that is not a usable release.
	ErrDecode = errors.New("decode failure")
)

// Fetcher downloads the body at a URL. The resolver satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type (
	// Release is the subset of a GitHub Release that lat needs.
	Release struct {
		TagName string  `json:"tag_name"`
		Name    string  `json:"name"`
		HTMLURL string  `json:"html_url"`
		Assets  []Asset `json:"assets"`
	}

	// Asset is one downloadable file of a release.
	Asset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
	}

	// ReleaseClient reads release metadata from the GitHub Releases API.
	ReleaseClient struct {
		fetcher Fetcher
		baseURL string
		owner   string
		repo    string
	}

	// ClientOption configures a ReleaseClient during construction.
	ClientOption func(*ReleaseClient)
)

// WithBaseURL overrides the API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(c *ReleaseClient) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithRepo overrides the repository the releases are read from.
func WithRepo(owner, repo string) ClientOption {
	return func(c *ReleaseClient) {
		c.owner = owner
		c.repo = repo
	}
}

// NewReleaseClient creates a ReleaseClient. Defaults: api.github.com and the
// cbout22/lat repository.
func NewReleaseClient(fetcher Fetcher, opts ...ClientOption) *ReleaseClient {
	c := &ReleaseClient{
		fetcher: fetcher,
		baseURL: "https://api.github.com",
		owner:   "cbout22",
		repo:    "lat",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest returns the most recent published release.
func (c *ReleaseClient) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release of %s/%s: %w", c.owner, c.repo, err)
	}

	var r Release
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: latest release of %s/%s: %v", ErrDecode, c.owner, c.repo, err)
	}
	if r.TagName == "" {
		return nil, fmt.Errorf("%w: latest release of %s/%s has no tag", ErrDecode, c.owner, c.repo)
	}
	return &r, nil
}

// findAsset returns the asset called name.
func findAsset(assets []Asset, name string) (*Asset, error) {
	for i := range assets {
		if assets[i].Name == name {
			return &assets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrAssetNotFound, name)
}

// assetName is the release file built for goos/goarch.
func assetName(goos, goarch string) string {
	name := fmt.Sprintf("lat_%s_%s", goos, goarch)
	if goos == "windows" {
		name += ".exe"
	}
	return name
}
