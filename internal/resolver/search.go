package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// searchLimit bounds the number of repositories returned for completion.
const searchLimit = 10

// RepoHit is one repository returned by a search.
type RepoHit struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
}

// SearchRepositories returns repositories whose full name starts with prefix.
// "owner/re" searches the repositories of owner; a bare word searches names.
func (r *Resolver) SearchRepositories(ctx context.Context, prefix string) ([]RepoHit, error) {
	if prefix == "" {
		return nil, nil
	}

	query := prefix
	if owner, repo, ok := strings.Cut(prefix, "/"); ok {
		query = fmt.Sprintf("user:%s %s in:name", owner, repo)
	}
	searchURL := fmt.Sprintf("%s/search/repositories?q=%s&per_page=%d", r.apiBase, url.QueryEscape(query), searchLimit)

	resp, err := r.get(ctx, searchURL, "application/vnd.github.v3+json")
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", prefix, err)
	}
	defer resp.Body.Close()

	body, err := r.readBody(resp, searchURL)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", prefix, err)
	}

	var result struct {
		Items []RepoHit `json:"items"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: searching %q: %v", ErrDecode, prefix, err)
	}

	hits := make([]RepoHit, 0, len(result.Items))
	for _, item := range result.Items {
		if strings.HasPrefix(strings.ToLower(item.FullName), strings.ToLower(prefix)) {
			hits = append(hits, item)
		}
	}
	return hits, nil
}
