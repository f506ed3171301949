package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	// hostMarker identifies a github.com URL anywhere in the input.
	hostMarker = "github.com/"
	// rawHostMarker identifies a raw.githubusercontent.com URL.
	rawHostMarker = "raw.githubusercontent.com/"
	// repoURLSegments is the "/"-separated segment count of
	// https://github.com/owner/repo.
	repoURLSegments = 5
)

// ErrClassificationAmbiguous is reserved for stricter validation. Classify
// never returns it.
var ErrClassificationAmbiguous = errors.New("ambiguous reference")

// Kind tags which variant of a Reference is active.
type Kind int

const (
	KindShorthand Kind = iota // owner/repo
	KindRepoURL               // https://github.com/owner/repo[.git]
	KindBlobURL               // a single file, fetched directly
	KindAlias                 // a stored short name
)

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindShorthand:
		return "shorthand"
	case KindRepoURL:
		return "repository url"
	case KindBlobURL:
		return "file url"
	case KindAlias:
		return "alias"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Reference is a classified import target. Only the fields of the active
// Kind are populated.
type Reference struct {
	Kind  Kind
	Input string // normalized input

	Owner    string // shorthand, repo url, blob url
	Repo     string // repository name (or "repoOrFile" for shorthand)
	Branch   string // blob url
	FilePath string // blob url, path inside the repository
	RawURL   string // blob url, directly fetchable raw content URL
	Name     string // alias
}

// Classify tags an input string with exactly one Reference kind. It never
// fails: anything that is not recognizably a URL or an owner/repo pair is
// treated as an alias name, and a missing alias is reported later.
func Classify(input string) Reference {
	s := normalize(input)

	if strings.Contains(s, hostMarker) || strings.Contains(s, rawHostMarker) {
		if !strings.Contains(s, "://") {
			s = "https://" + s
		}
		if ref, ok := classifyURL(s); ok {
			return ref
		}
		return Reference{Kind: KindAlias, Input: s, Name: s}
	}

	if strings.Count(s, "/") == 1 {
		owner, repo, _ := strings.Cut(s, "/")
		if owner != "" && repo != "" {
			return Reference{Kind: KindShorthand, Input: s, Owner: owner, Repo: repo}
		}
	}

	return Reference{Kind: KindAlias, Input: s, Name: s}
}

// normalize trims whitespace and every trailing path separator.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, "/")
}

// classifyURL handles inputs that carry a host marker and a scheme.
func classifyURL(s string) (Reference, bool) {
	segments := strings.Split(s, "/")
	rawHost := strings.HasSuffix(segments[2], "githubusercontent.com")

	if len(segments) <= repoURLSegments {
		if len(segments) < repoURLSegments || rawHost {
			return Reference{}, false
		}
		owner := segments[3]
		repo := strings.TrimSuffix(segments[4], ".git")
		if owner == "" || repo == "" {
			return Reference{}, false
		}
		return Reference{Kind: KindRepoURL, Input: s, Owner: owner, Repo: repo}, true
	}

	// https://raw.githubusercontent.com/owner/repo/branch/path...
	if rawHost {
		if len(segments) < 7 {
			return Reference{}, false
		}
		return blobReference(s, s, segments[3], segments[4], segments[5], segments[6:]), true
	}

	// https://github.com/owner/repo/{blob,raw}/branch/path...
	if len(segments) < 8 {
		return Reference{}, false
	}
	switch segments[5] {
	case "blob":
		raw := strings.Replace(s, "/blob/", "/raw/", 1)
		return blobReference(s, raw, segments[3], segments[4], segments[6], segments[7:]), true
	case "raw":
		return blobReference(s, s, segments[3], segments[4], segments[6], segments[7:]), true
	}
	return Reference{}, false
}

func blobReference(input, raw, owner, repo, branch string, file []string) Reference {
	return Reference{
		Kind:     KindBlobURL,
		Input:    input,
		Owner:    owner,
		Repo:     repo,
		Branch:   branch,
		FilePath: strings.Join(file, "/"),
		RawURL:   raw,
	}
}

// FileName returns the last path segment of a blob reference's file path,
// without any query string or fragment.
func (r Reference) FileName() string {
	p := r.FilePath
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Base(p)
}

// UnsupportedURL reports a GitHub URL that names neither a repository nor a
// file, such as a tree or issues page. Classify files these under KindAlias.
func (r Reference) UnsupportedURL() bool {
	if r.Kind != KindAlias {
		return false
	}
	return strings.Contains(r.Name, hostMarker) || strings.Contains(r.Name, rawHostMarker)
}

// RepoFullName returns "owner/repo".
func (r Reference) RepoFullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Repo)
}

// String returns a short description used in log and status lines.
func (r Reference) String() string {
	switch r.Kind {
	case KindShorthand, KindRepoURL:
		return r.RepoFullName()
	case KindBlobURL:
		return fmt.Sprintf("%s@%s:%s", r.RepoFullName(), r.Branch, r.FilePath)
	}
	return r.Name
}
