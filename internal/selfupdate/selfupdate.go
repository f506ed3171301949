package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"
)

var (
	// ErrFilesystem is a failure to stage the new build. The current
	// executable is untouched when it is returned.
	ErrFilesystem = errors.New("filesystem error")

	// ErrBrokenInstall means the current executable was removed and the new
	// build could not be moved into its place.
	ErrBrokenInstall = errors.New("broken install")

	// Test seams.
	osExecutable = os.Executable
	evalSymlinks = filepath.EvalSymlinks
	createTemp   = os.CreateTemp
	removeFile   = os.Remove
	renameFile   = os.Rename
)

// BrokenInstallError reports an executable that was removed without being
// replaced. TempPath still holds the downloaded build.
type BrokenInstallError struct {
	ExecPath string
	TempPath string
	Err      error
}

func (e *BrokenInstallError) Error() string {
	return fmt.Sprintf("%s was removed but the new build could not be moved into place (%v); recover with: %s",
		e.ExecPath, e.Err, e.RecoveryCommand())
}

// RecoveryCommand is the shell command that completes the update by hand.
func (e *BrokenInstallError) RecoveryCommand() string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("move %q %q", e.TempPath, e.ExecPath)
	}
	return fmt.Sprintf("mv %q %q", e.TempPath, e.ExecPath)
}

func (e *BrokenInstallError) Unwrap() []error {
	return []error{ErrBrokenInstall, e.Err}
}

type (
	// Check is the result of comparing the running version with the latest
	// release.
	Check struct {
		CurrentVersion  string
		LatestVersion   string
		DownloadURL     string
		UpdateAvailable bool
		Message         string
	}

	// Outcome reports what Apply did.
	Outcome struct {
		CurrentVersion string
		LatestVersion  string
		Updated        bool
		ExecPath       string
		Message        string
	}

	// Updater checks for and installs new builds of lat.
	Updater struct {
		fetcher        Fetcher
		releases       *ReleaseClient
		currentVersion string
		updateURL      string
		goos           string
		goarch         string
	}

	// UpdaterOption configures an Updater during construction.
	UpdaterOption func(*Updater)
)

// WithReleaseClient overrides the release metadata source.
func WithReleaseClient(c *ReleaseClient) UpdaterOption {
	return func(u *Updater) {
		u.releases = c
	}
}

// WithUpdateURL makes the Updater download url directly, skipping release
// lookup and version comparison.
func WithUpdateURL(url string) UpdaterOption {
	return func(u *Updater) {
		u.updateURL = url
	}
}

// WithPlatform overrides the platform whose build is downloaded.
func WithPlatform(goos, goarch string) UpdaterOption {
	return func(u *Updater) {
		u.goos = goos
		u.goarch = goarch
	}
}

// NewUpdater creates an Updater for currentVersion that downloads through
// fetcher.
func NewUpdater(currentVersion string, fetcher Fetcher, opts ...UpdaterOption) *Updater {
	u := &Updater{
		fetcher:        fetcher,
		currentVersion: currentVersion,
		goos:           runtime.GOOS,
		goarch:         runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.releases == nil {
		u.releases = NewReleaseClient(fetcher)
	}
	return u
}

// Check compares the running version with the latest release. Builds whose
// version is not semver ("dev") always have an update available.
func (u *Updater) Check(ctx context.Context) (*Check, error) {
	if u.updateURL != "" {
		return &Check{
			CurrentVersion:  u.currentVersion,
			DownloadURL:     u.updateURL,
			UpdateAvailable: true,
			Message:         fmt.Sprintf("Update source %s is unversioned; it is always installed.", u.updateURL),
		}, nil
	}

	release, err := u.releases.Latest(ctx)
	if err != nil {
		return nil, err
	}

	check := &Check{
		CurrentVersion: u.currentVersion,
		LatestVersion:  release.TagName,
	}

	current, currentOK := normalizeVersion(u.currentVersion)
	latest, latestOK := normalizeVersion(release.TagName)
	if currentOK && latestOK && semver.Compare(current, latest) >= 0 {
		check.Message = "Already up to date."
		return check, nil
	}

	asset, err := findAsset(release.Assets, assetName(u.goos, u.goarch))
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", release.TagName, err)
	}

	check.DownloadURL = asset.BrowserDownloadURL
	check.UpdateAvailable = true
	check.Message = fmt.Sprintf("Update available: %s -> %s", u.currentVersion, release.TagName)
	return check, nil
}

// Apply installs the latest build over the lat executable in binDir. An
// empty binDir means the directory of the running executable.
func (u *Updater) Apply(ctx context.Context, binDir string) (*Outcome, error) {
	check, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		CurrentVersion: check.CurrentVersion,
		LatestVersion:  check.LatestVersion,
		Message:        check.Message,
	}
	if !check.UpdateAvailable {
		return out, nil
	}

	execPath, err := resolveExecPath(binDir)
	if err != nil {
		return nil, err
	}
	out.ExecPath = execPath

	logger.Debugf("[selfupdate] Downloading %s", check.DownloadURL)
	data, err := u.fetcher.Fetch(ctx, check.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("downloading new build: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("downloading new build: %s returned an empty body", check.DownloadURL)
	}

	if err := replaceExecutable(execPath, data); err != nil {
		return nil, err
	}

	out.Updated = true
	if out.LatestVersion != "" {
		out.Message = fmt.Sprintf("Updated %s -> %s", out.CurrentVersion, out.LatestVersion)
	} else {
		out.Message = "Updated from " + check.DownloadURL
	}
	return out, nil
}

// resolveExecPath returns the path of the lat executable inside binDir.
func resolveExecPath(binDir string) (string, error) {
	p, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("determining executable path: %w", err)
	}
	if resolved, err := evalSymlinks(p); err == nil {
		p = resolved
	}
	if binDir == "" {
		return p, nil
	}
	return filepath.Join(binDir, filepath.Base(p)), nil
}

// replaceExecutable stages data next to execPath, removes execPath and
// renames the staged file into place.
func replaceExecutable(execPath string, data []byte) error {
	mode := os.FileMode(0o755)
	if info, err := os.Stat(execPath); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := createTemp(filepath.Dir(execPath), ".lat-update-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrFilesystem, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: writing %s: %v", ErrFilesystem, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: closing %s: %v", ErrFilesystem, tmpPath, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: setting permissions on %s: %v", ErrFilesystem, tmpPath, err)
	}

	if err := removeFile(execPath); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: removing %s: %v", ErrFilesystem, execPath, err)
	}

	if err := renameFile(tmpPath, execPath); err != nil {
		return &BrokenInstallError{ExecPath: execPath, TempPath: tmpPath, Err: err}
	}

	logger.Debugf("[selfupdate] Replaced %s", execPath)
	return nil
}

// normalizeVersion adds the "v" prefix semver requires and reports whether
// the result is valid.
func normalizeVersion(v string) (string, bool) {
	norm := v
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	return norm, semver.IsValid(norm)
}
