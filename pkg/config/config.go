// Package config assembles the effective resolution configuration.
//
// Three layers are consulted, highest precedence first:
//
//  1. Properties: command-line flags, MVNFETCH_* environment variables and
//     the properties file, merged with [Merge].
//  2. The Maven settings document (settings.xml), only for values the
//     properties left unset: local repository, repositories, mirrors and
//     proxies.
//  3. Built-in defaults.
//
// The result is an immutable [Configuration]. Reconfiguring means building
// a new one; [Loader] builds it lazily, exactly once.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnfetch/pkg/localrepo"
	"github.com/matzehuels/mvnfetch/pkg/mirror"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/transport"
)

// Built-in repository lists.
const (
	// DefaultRepositories are tried after the configured repositories unless
	// the defaultRepositories property replaces them or the repositories
	// property starts with the exclusion marker.
	DefaultRepositories = "https://repo1.maven.org/maven2/@id=central"

	// FallbackRepositories are tried last while useFallbackRepositories is on.
	FallbackRepositories = "https://repo1.maven.org/maven2/@id=central," +
		"https://repository.apache.org/snapshots/@id=apache.snapshots@snapshots@noreleases"
)

// DefaultTimeout bounds connecting to a repository.
const DefaultTimeout = 30 * time.Second

// Markers at the start of the repositories property. mergeMarker prepends
// the listed repositories to those of the settings document; excludeMarker
// drops the built-in default repositories. Both may be combined.
const (
	mergeMarker   = "+"
	excludeMarker = "*"
)

// Configuration is the effective configuration of one resolution session.
// It is read-only once built.
type Configuration struct {
	// LocalRepository is the configured local repository, or nil. When set
	// it is always the first candidate.
	LocalRepository *repository.Spec
	// CacheRoot is where resolved artifacts are stored. It is the local
	// repository when one is configured, otherwise ~/.m2/repository.
	CacheRoot string

	Repositories         []*repository.Spec
	DefaultRepositories  []*repository.Spec
	FallbackRepositories []*repository.Spec

	Mirrors []mirror.Rule
	Proxies []transport.Proxy

	UseFallbackRepositories bool
	CertificateCheck        bool
	Timeout                 time.Duration
	MetadataCache           string

	// SettingsPath is the settings document that was read, if any.
	SettingsPath string
	// Skipped lists configuration tokens that could not be parsed.
	Skipped []string
}

// Candidates returns the ordered repositories a resolution tries: the local
// repository, then the configured, default and (when enabled) fallback
// repositories. A repository listed twice is tried once, at its first
// position.
func (c *Configuration) Candidates() []*repository.Spec {
	var out []*repository.Spec
	seen := make(map[string]bool)
	add := func(specs ...*repository.Spec) {
		for _, s := range specs {
			if s == nil || seen[s.Base()] {
				continue
			}
			seen[s.Base()] = true
			out = append(out, s)
		}
	}
	add(c.LocalRepository)
	add(c.Repositories...)
	add(c.DefaultRepositories...)
	if c.UseFallbackRepositories {
		add(c.FallbackRepositories...)
	}
	return out
}

// Options control where [Resolve] looks for implicit files.
type Options struct {
	// Home replaces the user's home directory (tests).
	Home string
	// Logger receives skipped-token warnings; nil uses log.Default().
	Logger *log.Logger
}

// Resolve builds a Configuration from props. Only invalid property values
// are errors; unparseable repository tokens and a missing or broken
// settings document are logged and skipped.
func Resolve(props Properties, opts Options) (*Configuration, error) {
	if err := props.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	home := opts.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	cfg := &Configuration{
		UseFallbackRepositories: true,
		Timeout:                 DefaultTimeout,
	}
	skip := func(token string) {
		cfg.Skipped = append(cfg.Skipped, token)
		logger.Warn("skipping malformed repository", "token", token)
	}

	if props.UseFallbackRepositories != nil {
		cfg.UseFallbackRepositories = *props.UseFallbackRepositories
	}
	if props.CertificateCheck != nil {
		cfg.CertificateCheck = *props.CertificateCheck
	}
	if props.Timeout != nil {
		cfg.Timeout, _ = time.ParseDuration(strings.TrimSpace(*props.Timeout))
	}
	if props.MetadataCache != nil {
		cfg.MetadataCache = strings.TrimSpace(*props.MetadataCache)
	}

	settings := loadSettings(props.Settings, home, logger, cfg)

	// Local repository: properties, then settings.
	var localValue string
	switch {
	case props.LocalRepository != nil:
		localValue = *props.LocalRepository
	case settings != nil:
		localValue = settings.LocalRepositoryPath()
	}
	if strings.TrimSpace(localValue) != "" {
		if spec, ok := repository.Local(localValue); ok {
			cfg.LocalRepository = spec
			cfg.CacheRoot = spec.FilePath()
		} else {
			skip(localValue)
		}
	}
	if cfg.CacheRoot == "" && home != "" {
		cfg.CacheRoot = filepath.Join(home, ".m2", "repository")
	} else if cfg.CacheRoot == "" {
		cfg.CacheRoot, _ = localrepo.DefaultRoot()
	}

	// Repositories: properties replace the settings list unless they start
	// with the merge marker, in which case they go in front of it.
	var settingsRepos string
	if settings != nil {
		settingsRepos = settings.Repositories()
	}
	merge, exclude := false, false
	var own string
	if props.Repositories != nil {
		own, merge, exclude = repositoryMarkers(*props.Repositories)
	}
	switch {
	case props.Repositories != nil && merge:
		cfg.Repositories = append(repository.ParseList(own, skip), repository.ParseList(settingsRepos, skip)...)
	case props.Repositories != nil:
		cfg.Repositories = repository.ParseList(own, skip)
	case settingsRepos != "":
		cfg.Repositories = repository.ParseList(settingsRepos, skip)
	}

	switch {
	case props.DefaultRepositories != nil:
		cfg.DefaultRepositories = repository.ParseList(*props.DefaultRepositories, skip)
	case !exclude:
		cfg.DefaultRepositories = repository.ParseList(DefaultRepositories, nil)
	}
	cfg.FallbackRepositories = repository.ParseList(FallbackRepositories, nil)

	if settings != nil {
		cfg.Mirrors = settings.MirrorRules()
		cfg.Proxies = settings.ProxyRules()
	}

	if props.GlobalUpdatePolicy != nil {
		policy, _ := repository.ParseUpdatePolicy(*props.GlobalUpdatePolicy)
		override := func(specs []*repository.Spec) []*repository.Spec {
			out := make([]*repository.Spec, len(specs))
			for i, s := range specs {
				out[i] = s.WithUpdate(policy)
			}
			return out
		}
		cfg.Repositories = override(cfg.Repositories)
		cfg.DefaultRepositories = override(cfg.DefaultRepositories)
		cfg.FallbackRepositories = override(cfg.FallbackRepositories)
	}

	return cfg, nil
}

// repositoryMarkers strips the leading merge and exclusion markers, in
// either order, from the repositories property.
func repositoryMarkers(v string) (list string, merge, exclude bool) {
	list = strings.TrimSpace(v)
	for {
		switch {
		case !merge && strings.HasPrefix(list, mergeMarker):
			merge = true
			list = strings.TrimSpace(strings.TrimPrefix(list, mergeMarker))
		case !exclude && strings.HasPrefix(list, excludeMarker):
			exclude = true
			list = strings.TrimSpace(strings.TrimPrefix(list, excludeMarker))
		default:
			return list, merge, exclude
		}
	}
}

// loadSettings locates and reads the settings document. An explicit location
// may be a path or a file: URL; without one ~/.m2/settings.xml is used when
// it exists.
func loadSettings(value *string, home string, logger *log.Logger, cfg *Configuration) *Settings {
	var path string
	if value != nil {
		v := strings.TrimSpace(*value)
		if v == "" {
			return nil
		}
		p, ok := settingsLocation(v)
		if !ok {
			cfg.Skipped = append(cfg.Skipped, v)
			logger.Warn("skipping malformed settings location", "settings", v)
			return nil
		}
		path = p
	} else {
		if home == "" {
			return nil
		}
		path = filepath.Join(home, ".m2", "settings.xml")
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	s, err := LoadSettings(path)
	if err != nil {
		logger.Warn("ignoring settings document", "settings", path, "err", err)
		return nil
	}
	if home != "" {
		s.env = func(k string) string {
			if k == "HOME" {
				return home
			}
			return os.Getenv(k)
		}
	}
	cfg.SettingsPath = path
	return s
}

// settingsLocation maps a settings value to a filesystem path. Values with
// a scheme other than file: are rejected.
func settingsLocation(v string) (string, bool) {
	if i := strings.Index(v, ":"); i > 1 && !strings.ContainsAny(v[:i], `/\`) {
		if !strings.EqualFold(v[:i], "file") {
			return "", false
		}
		p, err := transport.FilePath(v)
		if err != nil {
			return "", false
		}
		return p, true
	}
	abs, err := filepath.Abs(v)
	if err != nil {
		return "", false
	}
	return abs, true
}

// Loader builds a Configuration on first use and returns the same value
// afterwards. It is safe for concurrent use.
type Loader struct {
	props Properties
	opts  Options

	once sync.Once
	cfg  *Configuration
	err  error
}

// NewLoader returns a Loader for props.
func NewLoader(props Properties, opts Options) *Loader {
	return &Loader{props: props, opts: opts}
}

// Configuration returns the effective configuration, building it on the
// first call.
func (l *Loader) Configuration() (*Configuration, error) {
	l.once.Do(func() {
		l.cfg, l.err = Resolve(l.props, l.opts)
	})
	return l.cfg, l.err
}
