package config

import (
	"encoding/xml"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/mirror"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/transport"
)

// Settings is the subset of a Maven settings.xml this module reads.
type Settings struct {
	XMLName         xml.Name          `xml:"settings"`
	LocalRepository string            `xml:"localRepository"`
	Proxies         []SettingsProxy   `xml:"proxies>proxy"`
	Mirrors         []SettingsMirror  `xml:"mirrors>mirror"`
	Profiles        []SettingsProfile `xml:"profiles>profile"`
	ActiveProfiles  []string          `xml:"activeProfiles>activeProfile"`

	// env resolves ${...} references; defaults to the process environment.
	env func(string) string
}

// SettingsProxy is a <proxy> element.
type SettingsProxy struct {
	ID            string `xml:"id"`
	Active        string `xml:"active"`
	Protocol      string `xml:"protocol"`
	Host          string `xml:"host"`
	Port          string `xml:"port"`
	Username      string `xml:"username"`
	Password      string `xml:"password"`
	NonProxyHosts string `xml:"nonProxyHosts"`
}

// SettingsMirror is a <mirror> element.
type SettingsMirror struct {
	ID       string `xml:"id"`
	URL      string `xml:"url"`
	MirrorOf string `xml:"mirrorOf"`
	Layout   string `xml:"layout"`
}

// SettingsProfile is a <profile> element. Only repositories are read.
type SettingsProfile struct {
	ID              string               `xml:"id"`
	ActiveByDefault bool                 `xml:"activation>activeByDefault"`
	Repositories    []SettingsRepository `xml:"repositories>repository"`
}

// SettingsRepository is a <repository> inside a profile.
type SettingsRepository struct {
	ID        string         `xml:"id"`
	URL       string         `xml:"url"`
	Layout    string         `xml:"layout"`
	Releases  SettingsPolicy `xml:"releases"`
	Snapshots SettingsPolicy `xml:"snapshots"`
}

// SettingsPolicy is a <releases> or <snapshots> policy.
type SettingsPolicy struct {
	Enabled      string `xml:"enabled"`
	UpdatePolicy string `xml:"updatePolicy"`
}

// ParseSettings decodes a settings document.
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := xml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode settings")
	}
	return &s, nil
}

// LoadSettings reads and decodes the settings document at path.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read settings")
	}
	s, err := ParseSettings(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "settings %s", path)
	}
	return s, nil
}

var propertyRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolate expands ${user.home} and ${env.NAME}. Unknown references are
// left in place.
func (s *Settings) interpolate(v string) string {
	v = strings.TrimSpace(v)
	if !strings.Contains(v, "${") {
		return v
	}
	env := s.env
	if env == nil {
		env = os.Getenv
	}
	return propertyRef.ReplaceAllStringFunc(v, func(ref string) string {
		name := ref[2 : len(ref)-1]
		switch {
		case name == "user.home":
			if home := env("HOME"); home != "" {
				return home
			}
			if home, err := os.UserHomeDir(); err == nil {
				return home
			}
		case strings.HasPrefix(name, "env."):
			if val := env(strings.TrimPrefix(name, "env.")); val != "" {
				return val
			}
		}
		return ref
	})
}

// LocalRepositoryPath returns the interpolated <localRepository> value.
func (s *Settings) LocalRepositoryPath() string {
	return s.interpolate(s.LocalRepository)
}

// Repositories renders the repositories of every active profile as a
// specifier list, in document order. A profile is active when it is
// activeByDefault or named in <activeProfiles>.
func (s *Settings) Repositories() string {
	active := make(map[string]bool, len(s.ActiveProfiles))
	for _, id := range s.ActiveProfiles {
		active[strings.TrimSpace(id)] = true
	}

	var tokens []string
	for _, p := range s.Profiles {
		if !p.ActiveByDefault && !active[p.ID] {
			continue
		}
		for _, r := range p.Repositories {
			if tok := s.specifier(r); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	return strings.Join(tokens, ",")
}

func (s *Settings) specifier(r SettingsRepository) string {
	url := s.interpolate(r.URL)
	if url == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(url)
	if id := strings.TrimSpace(r.ID); id != "" {
		b.WriteString("@id=")
		b.WriteString(id)
	}
	if strings.EqualFold(strings.TrimSpace(r.Snapshots.Enabled), "true") {
		b.WriteString("@snapshots")
	}
	if strings.EqualFold(strings.TrimSpace(r.Releases.Enabled), "false") {
		b.WriteString("@noreleases")
	}
	policy := strings.TrimSpace(r.Releases.UpdatePolicy)
	if policy == "" {
		policy = strings.TrimSpace(r.Snapshots.UpdatePolicy)
	}
	if _, err := repository.ParseUpdatePolicy(policy); err == nil {
		b.WriteString("@update=")
		b.WriteString(policy)
	}
	if repository.ParseLayout(r.Layout) == repository.LayoutLegacy {
		b.WriteString("@layout=legacy")
	}
	return b.String()
}

// MirrorRules returns the mirrors in document order.
func (s *Settings) MirrorRules() []mirror.Rule {
	rules := make([]mirror.Rule, 0, len(s.Mirrors))
	for _, m := range s.Mirrors {
		url := s.interpolate(m.URL)
		if url == "" || strings.TrimSpace(m.MirrorOf) == "" {
			continue
		}
		rules = append(rules, mirror.Rule{
			ID:       strings.TrimSpace(m.ID),
			URL:      url,
			MirrorOf: strings.TrimSpace(m.MirrorOf),
			Layout:   repository.ParseLayout(m.Layout),
		})
	}
	return rules
}

// ProxyRules returns the active proxies. A proxy without <active> is
// active; one without <protocol> is an http proxy.
func (s *Settings) ProxyRules() []transport.Proxy {
	var proxies []transport.Proxy
	for _, p := range s.Proxies {
		if strings.EqualFold(strings.TrimSpace(p.Active), "false") {
			continue
		}
		host := s.interpolate(p.Host)
		if host == "" {
			continue
		}
		protocol := strings.ToLower(strings.TrimSpace(p.Protocol))
		if protocol == "" {
			protocol = "http"
		}
		port, _ := strconv.Atoi(strings.TrimSpace(p.Port))
		proxies = append(proxies, transport.Proxy{
			ID:            strings.TrimSpace(p.ID),
			Protocol:      protocol,
			Host:          host,
			Port:          port,
			Username:      s.interpolate(p.Username),
			Password:      s.interpolate(p.Password),
			NonProxyHosts: strings.TrimSpace(p.NonProxyHosts),
		})
	}
	return proxies
}
