package metadata

import (
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

const artifactLevel = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>org.example</groupId>
  <artifactId>lib</artifactId>
  <versioning>
    <latest>1.1.0</latest>
    <release>1.0.2</release>
    <versions>
      <version>1.0.0</version>
      <version>1.0.2</version>
      <version>1.1.0</version>
    </versions>
    <lastUpdated>20240101120000</lastUpdated>
  </versioning>
</metadata>`

const versionLevel = `<metadata>
  <groupId>org.example</groupId>
  <artifactId>lib</artifactId>
  <version>1.0-SNAPSHOT</version>
  <versioning>
    <snapshot>
      <timestamp>20110714.123053</timestamp>
      <buildNumber>3</buildNumber>
    </snapshot>
    <snapshotVersions>
      <snapshotVersion>
        <classifier>sources</classifier>
        <extension>jar</extension>
        <value>1.0-20110714.123053-2</value>
      </snapshotVersion>
    </snapshotVersions>
  </versioning>
</metadata>`

func TestParse(t *testing.T) {
	md, err := Parse([]byte(artifactLevel))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if md.GroupID != "org.example" || md.ArtifactID != "lib" {
		t.Errorf("ids = %q:%q", md.GroupID, md.ArtifactID)
	}
	if len(md.Versioning.Versions) != 3 {
		t.Errorf("versions = %v", md.Versioning.Versions)
	}

	if v, ok := md.Latest(); !ok || v != "1.1.0" {
		t.Errorf("Latest() = %q, %v, want 1.1.0", v, ok)
	}
	if v, ok := md.Release(); !ok || v != "1.0.2" {
		t.Errorf("Release() = %q, %v, want 1.0.2", v, ok)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, doc := range []string{"", "   ", "<metadata><groupId>", "not xml at all <"} {
		_, err := Parse([]byte(doc))
		if !errors.Is(err, errors.ErrCodeMetadataUnresolvable) {
			t.Errorf("Parse(%q) = %v, want METADATA_UNRESOLVABLE", doc, err)
		}
	}
}

func TestLatestAndRelease_Fallback(t *testing.T) {
	md := &Metadata{Versioning: Versioning{
		Versions: []string{"1.2", "1.10", "2.0-SNAPSHOT", "1.9"},
	}}
	if v, _ := md.Latest(); v != "2.0-SNAPSHOT" {
		t.Errorf("Latest() = %q, want 2.0-SNAPSHOT", v)
	}
	if v, _ := md.Release(); v != "1.10" {
		t.Errorf("Release() = %q, want 1.10", v)
	}

	empty := &Metadata{}
	if _, ok := empty.Latest(); ok {
		t.Error("Latest() on empty metadata should fail")
	}
	snapshotsOnly := &Metadata{Versioning: Versioning{Versions: []string{"1.0-SNAPSHOT"}}}
	if _, ok := snapshotsOnly.Release(); ok {
		t.Error("Release() with only snapshots should fail")
	}
}

func TestSnapshotVersion(t *testing.T) {
	md, err := Parse([]byte(versionLevel))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		md         *Metadata
		classifier string
		extension  string
		want       string
	}{
		{"timestamp and build number", md, "", "jar", "1.0-20110714.123053-3"},
		{"snapshotVersion entry", md, "sources", "jar", "1.0-20110714.123053-2"},
		{"no build info", &Metadata{}, "", "jar", "1.0-SNAPSHOT"},
		{"local copy", &Metadata{Versioning: Versioning{Snapshot: Snapshot{Timestamp: "20110714.123053", BuildNumber: "3", LocalCopy: true}}}, "", "jar", "1.0-SNAPSHOT"},
		{"bad build number", &Metadata{Versioning: Versioning{Snapshot: Snapshot{Timestamp: "20110714.123053", BuildNumber: "x"}}}, "", "jar", "1.0-SNAPSHOT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.md.SnapshotVersion("1.0-SNAPSHOT", tt.classifier, tt.extension); got != tt.want {
				t.Errorf("SnapshotVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1", "1.0.0", 0},
		{"1.0-ga", "1.0", 0},
		{"1.0-final", "1.0", 0},
		{"1.10", "1.9", 1},
		{"1.0.1", "1.0", 1},
		{"1.0-SNAPSHOT", "1.0", -1},
		{"1.0-alpha-1", "1.0-beta-1", -1},
		{"1.0-beta-2", "1.0-b2", 0},
		{"1.0-rc1", "1.0-cr1", 0},
		{"1.0-milestone-1", "1.0-rc-1", -1},
		{"1.0-rc1", "1.0-SNAPSHOT", -1},
		{"1.0-sp1", "1.0", 1},
		{"1.0.1", "1.0-rc1", 1},
		{"1.0-foo", "1.0-sp", 1},
		{"1.0-bar", "1.0-foo", -1},
		{"2.0", "10.0", -1},
		{"123456789012345678901", "123456789012345678900", 1},
		{"1.007", "1.7", 0},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := Compare(tt.b, tt.a); got != -tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestMax(t *testing.T) {
	if v, ok := Max(nil, false); ok || v != "" {
		t.Errorf("Max(nil) = %q, %v", v, ok)
	}
	if v, _ := Max([]string{"1.0-rc1", "1.0", "0.9"}, false); v != "1.0" {
		t.Errorf("Max() = %q, want 1.0", v)
	}
}
