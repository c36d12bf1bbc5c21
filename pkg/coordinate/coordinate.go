// Package coordinate parses artifact references.
//
// A reference names one artifact inside a Maven repository:
//
//	group/artifact[/version[/type[/classifier]]]
//
// An optional repository specifier may precede it, separated by "!":
//
//	https://repo.example.com/maven2@id=example!org.example/lib/1.0
//
// The metadata form asks for the maven-metadata.xml document instead of an
// artifact. The literal "metadata" goes in the sixth position, after empty
// type and classifier:
//
//	group/artifact////metadata
//	group/artifact/1.0-SNAPSHOT///metadata
package coordinate

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/repository"
)

// Scheme is the URL scheme references are usually written with. A leading
// "mvn:" is accepted and ignored.
const Scheme = "mvn"

// DefaultType is the packaging used when a reference does not name one.
const DefaultType = "jar"

// MetadataFile is the name of the metadata document at the artifact and
// version directory levels.
const MetadataFile = "maven-metadata.xml"

const (
	snapshotSuffix  = "-SNAPSHOT"
	latestLiteral   = "LATEST"
	releaseLiteral  = "RELEASE"
	metadataLiteral = "metadata"
	overrideSep     = "!"
)

// VersionKind tells whether a version is concrete or still a placeholder.
type VersionKind int

const (
	// Exact is a concrete version such as 1.0 or 1.0-20110714.123053-3.
	Exact VersionKind = iota
	// Latest is the newest version, release or snapshot.
	Latest
	// Release is the newest non-snapshot version.
	Release
	// SnapshotLatest is the newest build of a -SNAPSHOT version.
	SnapshotLatest
)

func (k VersionKind) String() string {
	switch k {
	case Latest:
		return "latest"
	case Release:
		return "release"
	case SnapshotLatest:
		return "snapshot"
	default:
		return "exact"
	}
}

// Version is a parsed version token.
type Version struct {
	Kind VersionKind
	// Value is the literal version for Exact and the base version (suffix
	// stripped) for SnapshotLatest. It is empty for Latest and Release.
	Value string
}

// ParseVersion maps a version token to a Version. An empty token means
// Latest; LATEST and RELEASE are case-sensitive.
func ParseVersion(s string) Version {
	switch {
	case s == "" || s == latestLiteral:
		return Version{Kind: Latest}
	case s == releaseLiteral:
		return Version{Kind: Release}
	case strings.HasSuffix(s, snapshotSuffix):
		return Version{Kind: SnapshotLatest, Value: strings.TrimSuffix(s, snapshotSuffix)}
	default:
		return Version{Kind: Exact, Value: s}
	}
}

// String renders the version the way it appears in a reference.
func (v Version) String() string {
	switch v.Kind {
	case Latest:
		return latestLiteral
	case Release:
		return releaseLiteral
	case SnapshotLatest:
		return v.Value + snapshotSuffix
	default:
		return v.Value
	}
}

// Placeholder reports whether the version still needs metadata to become
// concrete.
func (v Version) Placeholder() bool { return v.Kind != Exact }

// timestampedSnapshot matches 1.0-20110714.123053-3.
var timestampedSnapshot = regexp.MustCompile(`^(.*)-(\d{8}\.\d{6})-(\d+)$`)

// IsSnapshot reports whether a concrete version string denotes a snapshot,
// either -SNAPSHOT or timestamped.
func IsSnapshot(version string) bool {
	return strings.HasSuffix(version, snapshotSuffix) || timestampedSnapshot.MatchString(version)
}

// BaseVersion returns the directory name a version lives under:
// 1.0-20110714.123053-3 becomes 1.0-SNAPSHOT, anything else is unchanged.
func BaseVersion(version string) string {
	if m := timestampedSnapshot.FindStringSubmatch(version); m != nil {
		return m[1] + snapshotSuffix
	}
	return version
}

// Coordinates identify one artifact.
type Coordinates struct {
	Group      string
	Artifact   string
	Version    Version
	Type       string
	Classifier string
	// Metadata is set for the metadata form of a reference.
	Metadata bool
	// RepositoryID names the override repository when the reference carried
	// one.
	RepositoryID string
}

// Reference is the result of parsing a reference string.
type Reference struct {
	Coordinates
	// Override is the repository given in front of "!", or nil.
	Override *repository.Spec
}

// Parse parses an artifact reference. Failures are MALFORMED_REFERENCE
// errors.
func Parse(ref string) (*Reference, error) {
	raw := ref
	ref = strings.TrimPrefix(strings.TrimSpace(ref), Scheme+":")
	var override *repository.Spec
	if i := strings.LastIndex(ref, overrideSep); i >= 0 {
		spec, ok := repository.Parse(ref[:i])
		if !ok {
			return nil, errors.New(errors.ErrCodeMalformedReference, "invalid repository in %q", raw)
		}
		override = spec
		ref = ref[i+1:]
	}

	parts := strings.Split(ref, "/")
	if len(parts) > 6 {
		return nil, errors.New(errors.ErrCodeMalformedReference, "too many segments in %q", raw)
	}
	for len(parts) < 6 {
		parts = append(parts, "")
	}

	group, artifact := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if group == "" {
		return nil, errors.New(errors.ErrCodeMalformedReference, "missing group in %q", raw)
	}
	if artifact == "" {
		return nil, errors.New(errors.ErrCodeMalformedReference, "missing artifact in %q", raw)
	}

	for _, seg := range parts[2:5] {
		if strings.TrimSpace(seg) == metadataLiteral {
			return nil, errors.New(errors.ErrCodeMalformedReference,
				"%q belongs in the sixth segment (group/artifact[/version]///metadata) in %q", metadataLiteral, raw)
		}
	}

	c := Coordinates{
		Group:      group,
		Artifact:   artifact,
		Version:    ParseVersion(strings.TrimSpace(parts[2])),
		Type:       strings.TrimSpace(parts[3]),
		Classifier: strings.TrimSpace(parts[4]),
	}

	switch tail := strings.TrimSpace(parts[5]); tail {
	case "":
	case metadataLiteral:
		if c.Type != "" || c.Classifier != "" {
			return nil, errors.New(errors.ErrCodeMalformedReference, "metadata request cannot name a type or classifier in %q", raw)
		}
		c.Metadata = true
	default:
		return nil, errors.New(errors.ErrCodeMalformedReference, "unexpected segment %q in %q", tail, raw)
	}

	if c.Type == "" {
		c.Type = DefaultType
	}
	if override != nil {
		c.RepositoryID = override.ID
	}

	for _, seg := range []struct{ kind, value string }{
		{"group", c.Group},
		{"artifact", c.Artifact},
		{"version", c.Version.Value},
		{"type", c.Type},
		{"classifier", c.Classifier},
	} {
		if err := errors.ValidateSegment(seg.kind, seg.value); err != nil {
			return nil, err
		}
	}

	return &Reference{Coordinates: c, Override: override}, nil
}

// String renders the coordinates back into reference syntax.
func (c Coordinates) String() string {
	if c.Metadata {
		return fmt.Sprintf("%s/%s/%s///%s", c.Group, c.Artifact, c.versionSegment(), metadataLiteral)
	}
	s := fmt.Sprintf("%s/%s/%s/%s", c.Group, c.Artifact, c.Version, c.Type)
	if c.Classifier != "" {
		s += "/" + c.Classifier
	}
	return s
}

func (c Coordinates) versionSegment() string {
	if c.Version.Kind == Latest {
		return ""
	}
	return c.Version.String()
}

// GroupPath returns the group with dots turned into path separators.
func (c Coordinates) GroupPath() string {
	return strings.ReplaceAll(c.Group, ".", "/")
}

// FileName returns artifact-version[-classifier].type for a concrete version.
func (c Coordinates) FileName(version string) string {
	name := c.Artifact + "-" + version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + c.Type
}

// ArtifactDir is the artifact-level directory: group/artifact.
func (c Coordinates) ArtifactDir() string {
	return path.Join(c.GroupPath(), c.Artifact)
}

// VersionDir is the version-level directory for a concrete version.
func (c Coordinates) VersionDir(version string) string {
	return path.Join(c.ArtifactDir(), BaseVersion(version))
}

// Path returns the repository-relative path of the artifact file for a
// concrete version in the given layout.
//
// Default layout: group/artifact/version/artifact-version[-classifier].type
// Legacy layout:  group/types/artifact-version[-classifier].type
//
// filename overrides the file name, which is how timestamped snapshot files
// end up in the -SNAPSHOT directory. Pass "" to use [Coordinates.FileName].
func (c Coordinates) Path(layout repository.Layout, version, filename string) string {
	if filename == "" {
		filename = c.FileName(version)
	}
	if layout == repository.LayoutLegacy {
		return path.Join(c.Group, c.Type+"s", filename)
	}
	return path.Join(c.VersionDir(version), filename)
}

// MetadataPath returns the path of maven-metadata.xml at the artifact level
// (version == "") or at the version level.
func (c Coordinates) MetadataPath(version string) string {
	if version == "" {
		return path.Join(c.ArtifactDir(), MetadataFile)
	}
	return path.Join(c.VersionDir(version), MetadataFile)
}
