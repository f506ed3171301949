package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultConfigFile is looked up next to the executable when no --config
	// flag is given.
	DefaultConfigFile = "config.toml"
	// AliasFile is the JSON document holding the shorts, next to the executable.
	AliasFile = "data.json"

	DefaultAPIURL         = "https://api.github.com"
	DefaultUserAgent      = "lat-cli"
	DefaultImportSuffix   = ".sty"
	DefaultSnippetsToken  = "snippets"
	DefaultSnippetsDir    = ".vscode"
	DefaultSnippetsSuffix = ".code-snippets"
	DefaultTimeout        = 30 * time.Second
	DefaultUpdateOwner    = "cbout22"
	DefaultUpdateRepo     = "lat"
)

// Test seams.
var (
	osExecutable = os.Executable
	osGetwd      = os.Getwd
)

// Settings is the configuration shared by every component of a single
// invocation. It is built once by Load and passed explicitly to the
// components that need it.
type Settings struct {
	APIURL         string        `toml:"api_url"`
	UserAgent      string        `toml:"user_agent"`
	ImportSuffix   string        `toml:"import_suffix"`
	SnippetsToken  string        `toml:"snippets_token"`
	SnippetsDir    string        `toml:"snippets_dir"`
	SnippetsSuffix string        `toml:"snippets_suffix"`
	Timeout        time.Duration `toml:"timeout"`
	Debug          bool          `toml:"debug"`

	// Self-update source.
	UpdateOwner string `toml:"update_owner"`
	UpdateRepo  string `toml:"update_repo"`
	UpdateURL   string `toml:"update_url"` // fetched directly when set

	WorkDir string `toml:"-"` // imports land here
	BinDir  string `toml:"-"` // executable, alias document and config file live here
}

// Default returns Settings populated with built-in defaults. WorkDir and
// BinDir are left empty.
func Default() *Settings {
	return &Settings{
		APIURL:         DefaultAPIURL,
		UserAgent:      DefaultUserAgent,
		ImportSuffix:   DefaultImportSuffix,
		SnippetsToken:  DefaultSnippetsToken,
		SnippetsDir:    DefaultSnippetsDir,
		SnippetsSuffix: DefaultSnippetsSuffix,
		Timeout:        DefaultTimeout,
		UpdateOwner:    DefaultUpdateOwner,
		UpdateRepo:     DefaultUpdateRepo,
	}
}

// Load builds Settings from defaults, then the TOML file at path, then the
// environment. An empty path means <binDir>/config.toml, which may be absent;
// an explicit path must exist.
func Load(path string) (*Settings, error) {
	s := Default()

	binDir, err := resolveBinDir()
	if err != nil {
		return nil, err
	}
	s.BinDir = binDir

	workDir, err := osGetwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	s.WorkDir = workDir

	explicit := path != ""
	if !explicit {
		path = filepath.Join(binDir, DefaultConfigFile)
	}
	if err := s.mergeFile(path, explicit); err != nil {
		return nil, err
	}

	s.mergeEnv()
	s.fillEmpty()
	return s, nil
}

// resolveBinDir returns LAT_BIN_DIR or the directory of the running executable.
func resolveBinDir() (string, error) {
	if dir := os.Getenv("LAT_BIN_DIR"); dir != "" {
		return dir, nil
	}
	exe, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// mergeFile decodes the TOML file at path over s.
func (s *Settings) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), s); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (s *Settings) mergeEnv() {
	if v := os.Getenv("LAT_API_URL"); v != "" {
		s.APIURL = v
	}
	if os.Getenv("LAT_DEBUG") == "true" {
		s.Debug = true
	}
}

// fillEmpty restores defaults for keys a config file explicitly blanked.
func (s *Settings) fillEmpty() {
	d := Default()
	if s.APIURL == "" {
		s.APIURL = d.APIURL
	}
	if s.UserAgent == "" {
		s.UserAgent = d.UserAgent
	}
	if s.ImportSuffix == "" {
		s.ImportSuffix = d.ImportSuffix
	}
	if s.SnippetsToken == "" {
		s.SnippetsToken = d.SnippetsToken
	}
	if s.SnippetsDir == "" {
		s.SnippetsDir = d.SnippetsDir
	}
	if s.SnippetsSuffix == "" {
		s.SnippetsSuffix = d.SnippetsSuffix
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
}

// AliasPath returns the location of the shorts document.
func (s *Settings) AliasPath() string {
	return filepath.Join(s.BinDir, AliasFile)
}
