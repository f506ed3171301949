package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/cbout22/lat/internal/config"
)

const (
	// maxBodyBytes caps any single downloaded file or listing.
	maxBodyBytes = 50 << 20
	// maxErrorBodyBytes caps how much of an error response ends up in messages.
	maxErrorBodyBytes = 512
)

var (
	// ErrResolutionNotFound means no import file could be located for a
	// reference: the repository has no import-suffixed file, or an alias is
	// not stored.
	ErrResolutionNotFound = errors.New("import not found")

	// ErrTransport is a network failure or a non-success HTTP status.
	ErrTransport = errors.New("request failed")

	// ErrDecode is a response body that cannot be parsed as expected.
	ErrDecode = errors.New("unexpected response")
)

// Resolver turns references into downloadable URLs and fetches content.
type Resolver struct {
	client         *http.Client
	apiBase        string
	importSuffix   string
	snippetsToken  string
	snippetsSuffix string
	maxBody        int64
}

var _ Source = (*Resolver)(nil)

// New creates a Resolver using the given HTTP client and settings.
func New(client *http.Client, s *config.Settings) *Resolver {
	return &Resolver{
		client:         client,
		apiBase:        strings.TrimRight(s.APIURL, "/"),
		importSuffix:   s.ImportSuffix,
		snippetsToken:  s.SnippetsToken,
		snippetsSuffix: s.SnippetsSuffix,
		maxBody:        maxBodyBytes,
	}
}

// ContentEntry is one item of the GitHub contents API listing.
type ContentEntry struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`         // "file" or "dir"
	DownloadURL *string `json:"download_url"` // null for directories
}

// ScanResult holds the candidates found in a repository root. Empty strings
// mean "absent".
type ScanResult struct {
	ImportURL      string
	ImportName     string // e.g. "house.sty"
	ImportBaseName string // e.g. "house"
	SnippetsURL    string
	SnippetsName   string // the remote file name of the snippets entry
}

// HasSnippets reports whether a snippets candidate was found.
func (s ScanResult) HasSnippets() bool {
	return s.SnippetsURL != ""
}

// Resolve reduces a classified reference to fetched content. Repositories are
// scanned for their import file; blob and raw URLs are fetched directly.
// Aliases must be expanded by the caller first.
func (r *Resolver) Resolve(ctx context.Context, ref config.Reference) (*ResolvedImport, error) {
	switch ref.Kind {
	case config.KindShorthand, config.KindRepoURL:
		return r.resolveRepo(ctx, ref.Owner, ref.Repo)
	case config.KindBlobURL:
		return r.resolveFile(ctx, ref)
	case config.KindAlias:
		return nil, fmt.Errorf("%w: no short named %q", ErrResolutionNotFound, ref.Name)
	}
	return nil, fmt.Errorf("unsupported reference kind %s", ref.Kind)
}

func (r *Resolver) resolveRepo(ctx context.Context, owner, repo string) (*ResolvedImport, error) {
	scan, err := r.Scan(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	content, err := r.Fetch(ctx, scan.ImportURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", scan.ImportName, err)
	}

	resolved := &ResolvedImport{
		ImportName:    scan.ImportName,
		ImportContent: content,
	}

	if !scan.HasSnippets() {
		return resolved, nil
	}

	// Snippets are optional: a failed download drops them, it does not fail
	// the import.
	snippets, err := r.Fetch(ctx, scan.SnippetsURL)
	if err != nil {
		logger.Warnf("[resolver] Skipping snippets %s: %v", scan.SnippetsName, err)
		return resolved, nil
	}
	resolved.SnippetsName = scan.ImportBaseName + r.snippetsSuffix
	resolved.SnippetsContent = snippets
	return resolved, nil
}

func (r *Resolver) resolveFile(ctx context.Context, ref config.Reference) (*ResolvedImport, error) {
	name := ref.FileName()
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: %s does not name a file", ErrResolutionNotFound, ref.Input)
	}

	content, err := r.Fetch(ctx, ref.RawURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", name, err)
	}

	return &ResolvedImport{ImportName: name, ImportContent: content}, nil
}

// Scan lists the repository root and picks the import and snippets
// candidates. It reports ErrResolutionNotFound when no entry carries the
// import suffix.
func (r *Resolver) Scan(ctx context.Context, owner, repo string) (ScanResult, error) {
	entries, err := r.ListContents(ctx, owner, repo)
	if err != nil {
		return ScanResult{}, err
	}

	result := r.selectCandidates(entries)
	if result.ImportURL == "" {
		return ScanResult{}, fmt.Errorf("%w: no %s file in %s/%s", ErrResolutionNotFound, r.importSuffix, owner, repo)
	}

	logger.Debugf("[resolver] %s/%s: import=%s snippets=%q", owner, repo, result.ImportName, result.SnippetsName)
	return result, nil
}

// selectCandidates makes a single pass over every entry. The last snippets
// match wins since listing order is not guaranteed; the first import match
// wins.
func (r *Resolver) selectCandidates(entries []ContentEntry) ScanResult {
	var result ScanResult
	for _, e := range entries {
		if e.DownloadURL == nil || *e.DownloadURL == "" {
			continue
		}

		switch {
		case strings.Contains(e.Name, r.snippetsToken):
			result.SnippetsURL = *e.DownloadURL
			result.SnippetsName = e.Name
		case strings.HasSuffix(e.Name, r.importSuffix) && result.ImportURL == "":
			result.ImportURL = *e.DownloadURL
			result.ImportName = e.Name
			result.ImportBaseName = strings.TrimSuffix(e.Name, r.importSuffix)
		}
	}
	return result
}

// ListContents fetches the root listing of a repository.
func (r *Resolver) ListContents(ctx context.Context, owner, repo string) ([]ContentEntry, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/contents/", r.apiBase, url.PathEscape(owner), url.PathEscape(repo))

	resp, err := r.get(ctx, listURL, "application/vnd.github.v3+json")
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", owner, repo, err)
	}
	defer resp.Body.Close()

	body, err := r.readBody(resp, listURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", owner, repo, err)
	}

	var entries []ContentEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: listing %s/%s: %v", ErrDecode, owner, repo, err)
	}

	return entries, nil
}

// Fetch downloads the body at rawURL. It performs exactly one request.
func (r *Resolver) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := r.get(ctx, rawURL, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return r.readBody(resp, rawURL)
}

// readBody reads the whole body. A body larger than the limit is an
// ErrTransport, never a truncated success.
func (r *Resolver) readBody(resp *http.Response, rawURL string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response from %s: %v", ErrTransport, rawURL, err)
	}
	if int64(len(data)) > r.maxBody {
		return nil, fmt.Errorf("%w: response from %s exceeds %d bytes", ErrTransport, rawURL, r.maxBody)
	}
	return data, nil
}

// get issues a GET and turns transport errors and non-2xx statuses into
// ErrTransport. On success the caller owns resp.Body.
func (r *Resolver) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", ErrTransport, rawURL, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	logger.Debugf("[resolver] GET %s", rawURL)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrTransport, rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: fetching %s: HTTP %d %s", ErrTransport, rawURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp, nil
}
