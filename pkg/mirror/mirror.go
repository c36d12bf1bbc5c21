// Package mirror decides whether a repository is served through a mirror.
//
// A [Rule] names the repositories it stands in for with a mirrorOf pattern:
//
//	*                 every repository
//	central           exactly the repository with id "central"
//	central,apache    either of the listed ids
//	*,!snapshots      every repository except "snapshots"
//	external:*        every repository that is neither file: nor localhost
//
// Rules are evaluated in configuration order and the first match wins.
package mirror

import (
	"net/url"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/repository"
)

const (
	wildcard        = "*"
	externalPattern = "external:*"
)

// Rule is one mirror definition from the settings document.
type Rule struct {
	ID       string
	URL      string
	MirrorOf string
	Layout   repository.Layout
}

// Matches reports whether the rule's mirrorOf pattern covers repo.
func (r Rule) Matches(repo *repository.Spec) bool {
	return matchPattern(r.MirrorOf, repo)
}

// matchPattern evaluates a comma-separated mirrorOf pattern. Exclusions
// (!id) always win over inclusions, so their position in the list does not
// matter.
func matchPattern(pattern string, repo *repository.Spec) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	if pattern == wildcard {
		return true
	}

	matched := false
	for _, part := range strings.Split(pattern, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "!"):
			if strings.TrimPrefix(part, "!") == repo.ID {
				return false
			}
		case part == wildcard:
			matched = true
		case part == externalPattern:
			if isExternal(repo.URL) {
				matched = true
			}
		case part == repo.ID:
			matched = true
		}
	}
	return matched
}

func isExternal(u *url.URL) bool {
	if u == nil || u.Scheme == "file" {
		return false
	}
	host := u.Hostname()
	return host != "localhost" && host != "127.0.0.1" && host != "::1"
}

// Find returns the first rule in rules that covers repo.
func Find(rules []Rule, repo *repository.Spec) (Rule, bool) {
	for _, r := range rules {
		if r.Matches(repo) {
			return r, true
		}
	}
	return Rule{}, false
}

// Apply returns the spec resolution should actually contact for repo. When
// a rule matches, the result carries the mirror's URL and layout and keeps
// repo's id; otherwise repo itself is returned. A rule with an unusable URL
// is ignored.
func Apply(rules []Rule, repo *repository.Spec) (spec *repository.Spec, mirrored bool) {
	r, ok := Find(rules, repo)
	if !ok {
		return repo, false
	}
	target, ok := repository.Parse(r.URL)
	if !ok {
		return repo, false
	}
	layout := r.Layout
	if layout == "" {
		layout = repository.LayoutDefault
	}
	return repo.WithURL(target.URL, layout), true
}
