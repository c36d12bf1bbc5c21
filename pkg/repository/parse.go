package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"
)

// Specifier flag keywords.
const (
	flagSnapshots  = "snapshots"
	flagNoReleases = "noreleases"
	flagID         = "id="
	flagUpdate     = "update="
	flagLayout     = "layout="
)

// supportedSchemes lists the URL schemes a repository may use.
var supportedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
}

// Parse turns a single specifier token into a Spec.
//
// The token has the form
// url[@id=name][@snapshots][@noreleases][@update=policy][@layout=legacy].
// Releases are enabled and snapshots disabled unless the flags say otherwise.
// A URL without a trailing separator gets a "/" appended; a trailing
// backslash is kept as-is.
//
// A malformed token yields ok=false instead of an error so that one bad
// entry in a list never aborts loading the rest of the list.
func Parse(token string) (spec *Spec, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}

	segments := strings.Split(token, "@")
	rawURL := segments[0]
	s := &Spec{
		ReleasesEnabled: true,
		Layout:          LayoutDefault,
		Update:          UpdateDaily,
	}

	flagged := false
	for _, seg := range segments[1:] {
		switch {
		case seg == flagSnapshots:
			s.SnapshotsEnabled = true
		case seg == flagNoReleases:
			s.ReleasesEnabled = false
		case strings.HasPrefix(seg, flagID):
			s.ID = strings.TrimPrefix(seg, flagID)
		case strings.HasPrefix(seg, flagUpdate):
			policy, err := ParseUpdatePolicy(strings.TrimPrefix(seg, flagUpdate))
			if err != nil {
				return nil, false
			}
			s.Update = policy
		case strings.HasPrefix(seg, flagLayout):
			s.Layout = ParseLayout(strings.TrimPrefix(seg, flagLayout))
		case !flagged:
			// Not a flag and nothing recognised yet: the "@" belonged to the
			// URL itself (user info).
			rawURL += "@" + seg
			continue
		case s.ID != "":
			s.ID += "@" + seg
		default:
			s.ID = seg
		}
		flagged = true
	}

	u, ok := parseURL(withTrailingSlash(rawURL))
	if !ok {
		return nil, false
	}
	s.URL = u
	s.base = withTrailingSlash(rawURL)
	s.Local = u.Scheme == "file"
	if s.ID == "" {
		s.ID = defaultID(s.base)
	}
	return s, true
}

// ParseList parses a comma-separated specifier list. Malformed tokens are
// skipped and reported through skipped (which may be nil).
func ParseList(list string, skipped func(token string)) []*Spec {
	var specs []*Spec
	for _, token := range strings.Split(list, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		s, ok := Parse(token)
		if !ok {
			if skipped != nil {
				skipped(strings.TrimSpace(token))
			}
			continue
		}
		specs = append(specs, s)
	}
	return specs
}

// LocalID is the id given to the configured local repository.
const LocalID = "local"

// Local builds the Spec for a local repository given as a filesystem path or
// as a file: URL. Relative paths are made absolute. Values with an
// unsupported scheme yield ok=false.
func Local(value string) (spec *Spec, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, false
	}

	var base string
	if hasScheme(value) {
		if !strings.HasPrefix(strings.ToLower(value), "file:") {
			return nil, false
		}
		base = withTrailingSlash(value)
	} else {
		abs, err := filepath.Abs(value)
		if err != nil {
			return nil, false
		}
		abs = filepath.ToSlash(abs)
		if !strings.HasPrefix(abs, "/") {
			abs = "/" + abs
		}
		base = withTrailingSlash("file://" + abs)
	}

	u, ok := parseURL(base)
	if !ok {
		return nil, false
	}
	return &Spec{
		URL:              u,
		ID:               LocalID,
		ReleasesEnabled:  true,
		SnapshotsEnabled: true,
		Layout:           LayoutDefault,
		Update:           UpdateAlways,
		Local:            true,
		base:             base,
	}, true
}

func parseURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if !supportedSchemes[strings.ToLower(u.Scheme)] {
		return nil, false
	}
	if u.Host == "" && u.Opaque == "" && u.Path == "" {
		return nil, false
	}
	return u, true
}

// hasScheme reports whether value starts with a URL scheme. Single-letter
// schemes are Windows drive letters and do not count.
func hasScheme(value string) bool {
	i := strings.Index(value, ":")
	if i < 2 {
		return false
	}
	for j, r := range value[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") || strings.HasSuffix(s, "\\") {
		return s
	}
	return s + "/"
}

// defaultID derives a stable id for repositories configured without one.
func defaultID(base string) string {
	sum := sha256.Sum256([]byte(base))
	return "repo-" + hex.EncodeToString(sum[:4])
}
