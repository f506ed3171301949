package alias

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// docMode is used when the document does not exist yet.
const docMode os.FileMode = 0o644

// writeDocument encodes doc and swaps it in for the file at path. A reader
// sees either the previous document or the new one, never a mix. An existing
// document keeps its permissions.
func writeDocument(path string, doc map[string]string) (err error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding alias document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	mode := docMode
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	staged, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("staging alias document: %w", err)
	}
	stagedPath := staged.Name()
	defer func() {
		if err != nil {
			_ = staged.Close()
			_ = os.Remove(stagedPath)
		}
	}()

	if _, err = staged.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", stagedPath, err)
	}
	if err = staged.Chmod(mode); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", stagedPath, err)
	}
	if err = staged.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", stagedPath, err)
	}
	if err = staged.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", stagedPath, err)
	}

	if err = os.Rename(stagedPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
