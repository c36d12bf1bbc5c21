// Package metadata reads maven-metadata.xml documents and binds placeholder
// versions to concrete artifact files.
//
// A repository publishes metadata at two levels:
//
//	group/artifact/maven-metadata.xml            latest, release, versions
//	group/artifact/1.0-SNAPSHOT/maven-metadata.xml  snapshot timestamp, build number
//
// Each repository is consulted on its own; documents from different
// repositories are never merged.
package metadata

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/coordinate"
	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// Metadata is the decoded subset of a maven-metadata.xml document.
type Metadata struct {
	XMLName    xml.Name   `xml:"metadata"`
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Version    string     `xml:"version"`
	Versioning Versioning `xml:"versioning"`
}

// Versioning is the <versioning> element.
type Versioning struct {
	Latest           string            `xml:"latest"`
	Release          string            `xml:"release"`
	Versions         []string          `xml:"versions>version"`
	Snapshot         Snapshot          `xml:"snapshot"`
	SnapshotVersions []SnapshotVersion `xml:"snapshotVersions>snapshotVersion"`
	LastUpdated      string            `xml:"lastUpdated"`
}

// Snapshot identifies the newest build of a -SNAPSHOT version.
type Snapshot struct {
	Timestamp   string `xml:"timestamp"`
	BuildNumber string `xml:"buildNumber"`
	LocalCopy   bool   `xml:"localCopy"`
}

// SnapshotVersion names the concrete file one classifier/extension pair
// resolves to.
type SnapshotVersion struct {
	Classifier string `xml:"classifier"`
	Extension  string `xml:"extension"`
	Value      string `xml:"value"`
	Updated    string `xml:"updated"`
}

// Parse decodes a metadata document. Empty or undecodable input is a
// METADATA_UNRESOLVABLE error.
func Parse(data []byte) (*Metadata, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeMetadataUnresolvable, "empty metadata document")
	}
	var m Metadata
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadataUnresolvable, err, "decode metadata")
	}
	v := &m.Versioning
	v.Latest = strings.TrimSpace(v.Latest)
	v.Release = strings.TrimSpace(v.Release)
	versions := v.Versions[:0]
	for _, s := range v.Versions {
		if s = strings.TrimSpace(s); s != "" {
			versions = append(versions, s)
		}
	}
	v.Versions = versions
	return &m, nil
}

// Latest returns the newest version, release or snapshot. The <latest>
// element wins; otherwise the highest entry of <versions>.
func (m *Metadata) Latest() (string, bool) {
	if m.Versioning.Latest != "" {
		return m.Versioning.Latest, true
	}
	return Max(m.Versioning.Versions, false)
}

// Release returns the newest release. The <release> element wins;
// otherwise the highest non-snapshot entry of <versions>.
func (m *Metadata) Release() (string, bool) {
	if m.Versioning.Release != "" {
		return m.Versioning.Release, true
	}
	return Max(m.Versioning.Versions, true)
}

// Max returns the highest version in versions by Maven ordering. With
// releasesOnly, snapshot versions are ignored.
func Max(versions []string, releasesOnly bool) (string, bool) {
	var best string
	for _, v := range versions {
		if releasesOnly && coordinate.IsSnapshot(v) {
			continue
		}
		if best == "" || Compare(v, best) > 0 {
			best = v
		}
	}
	return best, best != ""
}

// SnapshotVersion returns the concrete version a -SNAPSHOT version resolves
// to for the given classifier and extension.
//
// A matching <snapshotVersion> entry is preferred. Otherwise the version is
// composed from <snapshot> timestamp and build number. With neither, or when
// the document marks a local copy, the -SNAPSHOT version itself is returned.
func (m *Metadata) SnapshotVersion(version, classifier, extension string) string {
	for _, sv := range m.Versioning.SnapshotVersions {
		if sv.Classifier == classifier && sv.Extension == extension && sv.Value != "" {
			return sv.Value
		}
	}
	s := m.Versioning.Snapshot
	if s.LocalCopy || s.Timestamp == "" {
		return version
	}
	build, err := strconv.Atoi(strings.TrimSpace(s.BuildNumber))
	if err != nil || build <= 0 {
		return version
	}
	base := strings.TrimSuffix(version, "-SNAPSHOT")
	return base + "-" + strings.TrimSpace(s.Timestamp) + "-" + strconv.Itoa(build)
}
