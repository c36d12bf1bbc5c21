package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/repository"
)

// EnvPrefix prefixes every environment variable read by [FromEnv].
const EnvPrefix = "MVNFETCH_"

// Properties are the explicitly configured values. A nil field was not set
// by that source, which lets sources be layered with [Merge] and lets the
// settings document fill only what the properties left open.
type Properties struct {
	LocalRepository         *string `toml:"localRepository" yaml:"localRepository"`
	Repositories            *string `toml:"repositories" yaml:"repositories"`
	DefaultRepositories     *string `toml:"defaultRepositories" yaml:"defaultRepositories"`
	UseFallbackRepositories *bool   `toml:"useFallbackRepositories" yaml:"useFallbackRepositories"`
	CertificateCheck        *bool   `toml:"certificateCheck" yaml:"certificateCheck"`
	Settings                *string `toml:"settings" yaml:"settings"`
	Timeout                 *string `toml:"timeout" yaml:"timeout" validate:"omitempty,duration"`
	GlobalUpdatePolicy      *string `toml:"globalUpdatePolicy" yaml:"globalUpdatePolicy" validate:"omitempty,updatepolicy"`
	MetadataCache           *string `toml:"metadataCache" yaml:"metadataCache" validate:"omitempty,metadatacache"`
}

// Keys lists the recognised property names in display order.
var Keys = []string{
	"localRepository",
	"repositories",
	"defaultRepositories",
	"useFallbackRepositories",
	"certificateCheck",
	"settings",
	"timeout",
	"globalUpdatePolicy",
	"metadataCache",
}

// EnvName maps a property name to its environment variable:
// useFallbackRepositories becomes MVNFETCH_USE_FALLBACK_REPOSITORIES.
func EnvName(key string) string {
	var b strings.Builder
	b.WriteString(EnvPrefix)
	for i, r := range key {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// LoadFile decodes a properties file. Files ending in .yaml or .yml are
// YAML, everything else TOML. A missing file yields empty Properties.
func LoadFile(path string) (Properties, error) {
	var p Properties
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = toml.Unmarshal(data, &p)
	}
	if err != nil {
		return Properties{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	return p, nil
}

// FromEnv reads MVNFETCH_* variables through lookup (usually os.LookupEnv).
// Unparseable booleans are reported as INVALID_INPUT.
func FromEnv(lookup func(string) (string, bool)) (Properties, error) {
	var p Properties
	str := func(key string) *string {
		if v, ok := lookup(EnvName(key)); ok {
			return &v
		}
		return nil
	}
	boolean := func(key string) (*bool, error) {
		v, ok := lookup(EnvName(key))
		if !ok {
			return nil, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", EnvName(key))
		}
		return &b, nil
	}

	var err error
	p.LocalRepository = str("localRepository")
	p.Repositories = str("repositories")
	p.DefaultRepositories = str("defaultRepositories")
	p.Settings = str("settings")
	p.Timeout = str("timeout")
	p.GlobalUpdatePolicy = str("globalUpdatePolicy")
	p.MetadataCache = str("metadataCache")
	if p.UseFallbackRepositories, err = boolean("useFallbackRepositories"); err != nil {
		return Properties{}, err
	}
	if p.CertificateCheck, err = boolean("certificateCheck"); err != nil {
		return Properties{}, err
	}
	return p, nil
}

// Merge layers sources: for every field the first source that set it wins,
// so pass them highest precedence first.
func Merge(sources ...Properties) Properties {
	var out Properties
	for _, s := range sources {
		out.LocalRepository = first(out.LocalRepository, s.LocalRepository)
		out.Repositories = first(out.Repositories, s.Repositories)
		out.DefaultRepositories = first(out.DefaultRepositories, s.DefaultRepositories)
		out.UseFallbackRepositories = first(out.UseFallbackRepositories, s.UseFallbackRepositories)
		out.CertificateCheck = first(out.CertificateCheck, s.CertificateCheck)
		out.Settings = first(out.Settings, s.Settings)
		out.Timeout = first(out.Timeout, s.Timeout)
		out.GlobalUpdatePolicy = first(out.GlobalUpdatePolicy, s.GlobalUpdatePolicy)
		out.MetadataCache = first(out.MetadataCache, s.MetadataCache)
	}
	return out
}

func first[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}

// Get returns the value of key rendered as a string and whether it was set.
func (p Properties) Get(key string) (string, bool) {
	var s *string
	var b *bool
	switch key {
	case "localRepository":
		s = p.LocalRepository
	case "repositories":
		s = p.Repositories
	case "defaultRepositories":
		s = p.DefaultRepositories
	case "useFallbackRepositories":
		b = p.UseFallbackRepositories
	case "certificateCheck":
		b = p.CertificateCheck
	case "settings":
		s = p.Settings
	case "timeout":
		s = p.Timeout
	case "globalUpdatePolicy":
		s = p.GlobalUpdatePolicy
	case "metadataCache":
		s = p.MetadataCache
	}
	switch {
	case s != nil:
		return *s, true
	case b != nil:
		return strconv.FormatBool(*b), true
	}
	return "", false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(strings.TrimSpace(fl.Field().String()))
		return err == nil && d >= 0
	})
	_ = v.RegisterValidation("updatepolicy", func(fl validator.FieldLevel) bool {
		_, err := repository.ParseUpdatePolicy(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("metadatacache", func(fl validator.FieldLevel) bool {
		_, err := ParseMetadataCache(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the values that must parse before a Configuration can be
// built. Repository lists are never rejected; bad tokens are skipped later.
func (p Properties) Validate() error {
	if err := validate.Struct(p); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", lowerFirst(fe.Field()), fmt.Sprint(fe.Value()))
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid properties")
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// MetadataCacheKind selects the metadata cache backend.
type MetadataCacheKind string

const (
	MetadataCacheFile   MetadataCacheKind = "file"
	MetadataCacheMemory MetadataCacheKind = "memory"
	MetadataCacheNone   MetadataCacheKind = "none"
	MetadataCacheRedis  MetadataCacheKind = "redis"
)

// ParseMetadataCache accepts file, memory, none or a redis:// / rediss://
// URL. The empty string means file.
func ParseMetadataCache(s string) (MetadataCacheKind, error) {
	switch s = strings.TrimSpace(s); {
	case s == "" || s == string(MetadataCacheFile):
		return MetadataCacheFile, nil
	case s == string(MetadataCacheMemory):
		return MetadataCacheMemory, nil
	case s == string(MetadataCacheNone):
		return MetadataCacheNone, nil
	case strings.HasPrefix(s, "redis://") || strings.HasPrefix(s, "rediss://"):
		return MetadataCacheRedis, nil
	}
	return "", fmt.Errorf("unknown metadata cache %q", s)
}
