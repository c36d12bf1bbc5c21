package repository

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Layout is the directory layout a repository uses to store artifacts.
type Layout string

const (
	// LayoutDefault is the Maven 2 layout: group/artifact/version/file.
	LayoutDefault Layout = "default"
	// LayoutLegacy is the Maven 1 layout: group/<type>s/file.
	LayoutLegacy Layout = "legacy"
)

// ParseLayout maps a layout name to a Layout. Anything other than "legacy"
// is the default layout.
func ParseLayout(s string) Layout {
	if strings.EqualFold(strings.TrimSpace(s), string(LayoutLegacy)) {
		return LayoutLegacy
	}
	return LayoutDefault
}

// UpdatePolicy controls how long a repository's metadata documents may be
// served from the metadata cache before the repository is asked again.
type UpdatePolicy struct {
	// Name is the policy as written: always, daily, never or interval:N.
	Name string
	// TTL is the freshness window. Zero means cached entries never expire,
	// a negative value disables caching.
	TTL time.Duration
}

// Policies recognised in the @update= flag.
var (
	UpdateAlways = UpdatePolicy{Name: "always", TTL: -1}
	UpdateDaily  = UpdatePolicy{Name: "daily", TTL: 24 * time.Hour}
	UpdateNever  = UpdatePolicy{Name: "never", TTL: 0}
)

// ParseUpdatePolicy parses always, daily, never or interval:N (minutes).
func ParseUpdatePolicy(s string) (UpdatePolicy, error) {
	switch s = strings.TrimSpace(s); {
	case s == UpdateAlways.Name:
		return UpdateAlways, nil
	case s == UpdateDaily.Name:
		return UpdateDaily, nil
	case s == UpdateNever.Name:
		return UpdateNever, nil
	case strings.HasPrefix(s, "interval:"):
		var minutes int
		if _, err := fmt.Sscanf(strings.TrimPrefix(s, "interval:"), "%d", &minutes); err != nil || minutes <= 0 {
			return UpdatePolicy{}, fmt.Errorf("invalid update interval %q", s)
		}
		return UpdatePolicy{Name: s, TTL: time.Duration(minutes) * time.Minute}, nil
	}
	return UpdatePolicy{}, fmt.Errorf("unknown update policy %q", s)
}

// Spec describes one repository candidate.
//
// A Spec is an immutable value: it is built once by [Parse] (or one of the
// constructors) and shared by reference afterwards. URL always ends with a
// path separator.
type Spec struct {
	URL              *url.URL
	ID               string
	ReleasesEnabled  bool
	SnapshotsEnabled bool
	Layout           Layout
	Update           UpdatePolicy
	Local            bool

	// base is the URL exactly as configured, trailing separator included.
	// url.URL.String re-escapes characters such as a backslash, which must
	// survive untouched.
	base string
}

// Base returns the repository base URL as configured.
func (s *Spec) Base() string {
	if s.base != "" {
		return s.base
	}
	return s.URL.String()
}

// String renders the spec back into specifier syntax.
func (s *Spec) String() string {
	var b strings.Builder
	b.WriteString(s.Base())
	if s.ID != "" {
		b.WriteString("@id=")
		b.WriteString(s.ID)
	}
	if s.SnapshotsEnabled {
		b.WriteString("@snapshots")
	}
	if !s.ReleasesEnabled {
		b.WriteString("@noreleases")
	}
	if s.Update.Name != "" && s.Update.Name != UpdateDaily.Name {
		b.WriteString("@update=")
		b.WriteString(s.Update.Name)
	}
	if s.Layout == LayoutLegacy {
		b.WriteString("@layout=legacy")
	}
	return b.String()
}

// Enabled reports whether the repository may serve a release or snapshot.
func (s *Spec) Enabled(snapshot bool) bool {
	if snapshot {
		return s.SnapshotsEnabled
	}
	return s.ReleasesEnabled
}

// Resolve joins a repository-relative path onto the base URL.
func (s *Spec) Resolve(rel string) string {
	return s.Base() + strings.TrimPrefix(rel, "/")
}

// FilePath returns the local directory a file: repository points at, or ""
// for remote repositories.
func (s *Spec) FilePath() string {
	if s.URL.Scheme != "file" {
		return ""
	}
	p := s.URL.Path
	if p == "" {
		p = s.URL.Opaque
	}
	if p == "" {
		return ""
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return p
}

// WithURL returns a copy of s pointing at u with the given layout. Used when
// a mirror takes over a repository: the id is kept so cache keys stay stable.
func (s *Spec) WithURL(u *url.URL, layout Layout) *Spec {
	c := *s
	c.URL = u
	c.base = withTrailingSlash(u.String())
	c.Layout = layout
	c.Local = u.Scheme == "file"
	return &c
}

// WithUpdate returns a copy of s using policy p.
func (s *Spec) WithUpdate(p UpdatePolicy) *Spec {
	c := *s
	c.Update = p
	return &c
}
