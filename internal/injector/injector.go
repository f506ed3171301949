package injector

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/cbout22/lat/internal/config"
	"github.com/cbout22/lat/internal/resolver"
)

var (
	// ErrConflictAborted means a target existed and the policy (or the user)
	// refused to overwrite it. Nothing was written.
	ErrConflictAborted = errors.New("import aborted: target already exists")

	// ErrFilesystem wraps failures to create directories or write files.
	ErrFilesystem = errors.New("filesystem error")
)

// Injector writes resolved imports into a target directory.
type Injector struct {
	fw          FileWriter
	workDir     string
	snippetsDir string
	confirm     Confirmer
}

// New creates an Injector. confirm may be nil, in which case PolicyPrompt
// behaves like PolicyAbort.
func New(fw FileWriter, s *config.Settings, confirm Confirmer) *Injector {
	return &Injector{
		fw:          fw,
		workDir:     s.WorkDir,
		snippetsDir: s.SnippetsDir,
		confirm:     confirm,
	}
}

// Outcome reports what Write did with each target.
type Outcome struct {
	ImportPath    string
	ImportWritten bool
	ImportSkipped bool

	SnippetsPath    string // empty when the import has no snippets
	SnippetsWritten bool
	SnippetsSkipped bool
	// SnippetsErr is a snippets write failure. It never fails the import.
	SnippetsErr error
}

// Write materializes res. The import goes directly under dir; snippets go
// under the snippets directory of the working directory (or of dir when no
// working directory is configured). Conflicts are resolved according to
// policy before anything is written. The import and snippets writes are
// independent: a failure of one does not stop the other.
func (inj *Injector) Write(dir string, res *resolver.ResolvedImport, policy ConflictPolicy) (Outcome, error) {
	var out Outcome

	if err := checkName(res.ImportName); err != nil {
		return out, err
	}
	out.ImportPath = filepath.Join(dir, res.ImportName)

	if res.HasSnippets() {
		if err := checkName(res.SnippetsName); err != nil {
			return out, err
		}
		base := inj.workDir
		if base == "" {
			base = dir
		}
		out.SnippetsPath = filepath.Join(base, inj.snippetsDir, res.SnippetsName)
	}

	var conflicts []string
	for _, p := range []string{out.ImportPath, out.SnippetsPath} {
		if p != "" && inj.fw.Exists(p) {
			conflicts = append(conflicts, p)
		}
	}

	skipExisting := false
	if len(conflicts) > 0 {
		logger.Debugf("[injector] Existing targets %v, policy %s", conflicts, policy)
		switch policy {
		case PolicyAbort:
			return out, fmt.Errorf("%w: %s", ErrConflictAborted, strings.Join(conflicts, ", "))
		case PolicyPrompt:
			if inj.confirm == nil {
				return out, fmt.Errorf("%w: %s (no terminal to confirm)", ErrConflictAborted, strings.Join(conflicts, ", "))
			}
			ok, err := inj.confirm(fmt.Sprintf("Overwrite %s?", strings.Join(conflicts, ", ")))
			if err != nil {
				return out, fmt.Errorf("%w: %v", ErrConflictAborted, err)
			}
			if !ok {
				return out, fmt.Errorf("%w: %s", ErrConflictAborted, strings.Join(conflicts, ", "))
			}
		case PolicySkip:
			skipExisting = true
		case PolicyOverwrite:
		default:
			return out, fmt.Errorf("unsupported conflict policy %s", policy)
		}
	}

	var importErr error
	if skipExisting && inj.fw.Exists(out.ImportPath) {
		out.ImportSkipped = true
	} else if err := inj.writeFile(out.ImportPath, res.ImportContent); err != nil {
		importErr = err
	} else {
		out.ImportWritten = true
	}

	if out.SnippetsPath != "" {
		switch {
		case skipExisting && inj.fw.Exists(out.SnippetsPath):
			out.SnippetsSkipped = true
		default:
			if err := inj.writeFile(out.SnippetsPath, res.SnippetsContent); err != nil {
				out.SnippetsErr = err
			} else {
				out.SnippetsWritten = true
			}
		}
	}

	return out, importErr
}

func (inj *Injector) writeFile(path string, data []byte) error {
	if err := inj.fw.MkdirAll(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrFilesystem, path, err)
	}
	if err := inj.fw.Write(path, data); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrFilesystem, path, err)
	}
	logger.Debugf("[injector] Wrote %s (%d bytes)", path, len(data))
	return nil
}

// checkName rejects remote file names that would escape the target directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: refusing to write file named %q", ErrFilesystem, name)
	}
	return nil
}
