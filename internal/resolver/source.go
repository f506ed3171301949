package resolver

import (
	"context"

	"github.com/cbout22/lat/internal/config"
)

// Source defines operations for turning references into fetched content.
type Source interface {
	// Resolve reduces a classified reference to its import (and optional
	// snippets) content.
	Resolve(ctx context.Context, ref config.Reference) (*ResolvedImport, error)

	// Fetch retrieves the raw bytes behind a concrete download URL.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ResolvedImport is the product of one successful resolution. It is consumed
// immediately by the injector and never cached.
type ResolvedImport struct {
	ImportName    string // file name written under the target directory
	ImportContent []byte

	SnippetsName    string // empty when the import has no snippets companion
	SnippetsContent []byte
}

// HasSnippets reports whether a snippets companion was resolved.
func (r *ResolvedImport) HasSnippets() bool {
	return r.SnippetsName != ""
}
