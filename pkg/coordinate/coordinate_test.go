package coordinate

import (
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/repository"
)

func TestParse(t *testing.T) {
	tests := []struct {
		ref            string
		wantGroup      string
		wantArtifact   string
		wantVersion    Version
		wantType       string
		wantClassifier string
		wantMetadata   bool
	}{
		{"org.example/lib/1.0", "org.example", "lib", Version{Exact, "1.0"}, "jar", "", false},
		{"org.example/lib", "org.example", "lib", Version{Kind: Latest}, "jar", "", false},
		{"org.example/lib/", "org.example", "lib", Version{Kind: Latest}, "jar", "", false},
		{"org.example/lib/LATEST", "org.example", "lib", Version{Kind: Latest}, "jar", "", false},
		{"org.example/lib/RELEASE", "org.example", "lib", Version{Kind: Release}, "jar", "", false},
		{"org.example/lib/latest", "org.example", "lib", Version{Exact, "latest"}, "jar", "", false},
		{"org.example/lib/1.0-SNAPSHOT", "org.example", "lib", Version{SnapshotLatest, "1.0"}, "jar", "", false},
		{"org.example/lib/1.0/pom", "org.example", "lib", Version{Exact, "1.0"}, "pom", "", false},
		{"org.example/lib/1.0/jar/sources", "org.example", "lib", Version{Exact, "1.0"}, "jar", "sources", false},
		{"org.example/lib/1.0//sources", "org.example", "lib", Version{Exact, "1.0"}, "jar", "sources", false},
		{"mvn:org.example/lib/1.0", "org.example", "lib", Version{Exact, "1.0"}, "jar", "", false},
		{"group/artifact////metadata", "group", "artifact", Version{Kind: Latest}, "jar", "", true},
		{"group/artifact/version-SNAPSHOT///metadata", "group", "artifact", Version{SnapshotLatest, "version"}, "jar", "", true},
		{"group/artifact/someVersion///metadata", "group", "artifact", Version{Exact, "someVersion"}, "jar", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			ref, err := Parse(tt.ref)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.ref, err)
			}
			if ref.Group != tt.wantGroup {
				t.Errorf("Group = %q, want %q", ref.Group, tt.wantGroup)
			}
			if ref.Artifact != tt.wantArtifact {
				t.Errorf("Artifact = %q, want %q", ref.Artifact, tt.wantArtifact)
			}
			if ref.Version != tt.wantVersion {
				t.Errorf("Version = %+v, want %+v", ref.Version, tt.wantVersion)
			}
			if ref.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", ref.Type, tt.wantType)
			}
			if ref.Classifier != tt.wantClassifier {
				t.Errorf("Classifier = %q, want %q", ref.Classifier, tt.wantClassifier)
			}
			if ref.Metadata != tt.wantMetadata {
				t.Errorf("Metadata = %v, want %v", ref.Metadata, tt.wantMetadata)
			}
			if ref.Override != nil {
				t.Errorf("Override = %v, want nil", ref.Override)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, ref := range []string{
		"",
		"/artifact////metadata",
		"group",
		"group/",
		"group/artifact////any",
		"group/artifact/1.0/jar//metadata",
		"group/artifact/1.0//sources/metadata",
		"group/artifact/1.0/jar/sources/metadata/extra",
		"group/artifact/../jar",
		"group/artifact/metadata",
		"group/artifact/1.0/metadata",
		"group/artifact/1.0/jar/metadata",
		"group/artifact/metadata///metadata",
		"bogus-repo!group/artifact/1.0",
	} {
		t.Run(ref, func(t *testing.T) {
			_, err := Parse(ref)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", ref)
			}
			if !errors.Is(err, errors.ErrCodeMalformedReference) {
				t.Errorf("Parse(%q) code = %v, want %v", ref, errors.GetCode(err), errors.ErrCodeMalformedReference)
			}
		})
	}
}

func TestParse_Override(t *testing.T) {
	ref, err := Parse("https://repo.example.com/maven2@id=example!org.example/lib/1.0")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if ref.Override == nil {
		t.Fatal("Override is nil")
	}
	if ref.Override.Base() != "https://repo.example.com/maven2/" {
		t.Errorf("Override.Base() = %q", ref.Override.Base())
	}
	if ref.RepositoryID != "example" {
		t.Errorf("RepositoryID = %q, want example", ref.RepositoryID)
	}
	if ref.Group != "org.example" || ref.Version.Value != "1.0" {
		t.Errorf("coordinates = %+v", ref.Coordinates)
	}
}

func TestSnapshotHelpers(t *testing.T) {
	tests := []struct {
		version  string
		snapshot bool
		base     string
	}{
		{"1.0", false, "1.0"},
		{"1.0-SNAPSHOT", true, "1.0-SNAPSHOT"},
		{"1.0-20110714.123053-3", true, "1.0-SNAPSHOT"},
		{"2.1-beta-20240101.000000-12", true, "2.1-beta-SNAPSHOT"},
		{"1.0-2011", false, "1.0-2011"},
	}
	for _, tt := range tests {
		if got := IsSnapshot(tt.version); got != tt.snapshot {
			t.Errorf("IsSnapshot(%q) = %v, want %v", tt.version, got, tt.snapshot)
		}
		if got := BaseVersion(tt.version); got != tt.base {
			t.Errorf("BaseVersion(%q) = %q, want %q", tt.version, got, tt.base)
		}
	}
}

func TestCoordinates_Path(t *testing.T) {
	c := Coordinates{Group: "org.apache.ant", Artifact: "ant", Type: "jar"}

	tests := []struct {
		name     string
		c        Coordinates
		layout   repository.Layout
		version  string
		filename string
		want     string
	}{
		{"default", c, repository.LayoutDefault, "1.5.1", "", "org/apache/ant/ant/1.5.1/ant-1.5.1.jar"},
		{"classifier", Coordinates{Group: "g", Artifact: "a", Type: "jar", Classifier: "sources"}, repository.LayoutDefault, "1.0", "", "g/a/1.0/a-1.0-sources.jar"},
		{"timestamped", c, repository.LayoutDefault, "1.0-20110714.123053-3", "", "org/apache/ant/ant/1.0-SNAPSHOT/ant-1.0-20110714.123053-3.jar"},
		{"explicit filename", c, repository.LayoutDefault, "1.0-SNAPSHOT", "ant-1.0-20110714.123053-3.jar", "org/apache/ant/ant/1.0-SNAPSHOT/ant-1.0-20110714.123053-3.jar"},
		{"legacy", c, repository.LayoutLegacy, "1.5.1", "", "org.apache.ant/jars/ant-1.5.1.jar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Path(tt.layout, tt.version, tt.filename); got != tt.want {
				t.Errorf("Path() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoordinates_MetadataPath(t *testing.T) {
	c := Coordinates{Group: "group", Artifact: "artifact"}
	if got := c.MetadataPath(""); got != "group/artifact/maven-metadata.xml" {
		t.Errorf("artifact level = %q", got)
	}
	if got := c.MetadataPath("version-SNAPSHOT"); got != "group/artifact/version-SNAPSHOT/maven-metadata.xml" {
		t.Errorf("version level = %q", got)
	}
}

func TestCoordinates_String(t *testing.T) {
	for _, ref := range []string{
		"org.example/lib/1.0/jar",
		"org.example/lib/1.0/pom/sources",
		"org.example/lib/1.0-SNAPSHOT/jar",
		"org.example/lib/RELEASE/jar",
		"group/artifact////metadata",
		"group/artifact/1.0-SNAPSHOT///metadata",
	} {
		parsed, err := Parse(ref)
		if err != nil {
			t.Fatalf("Parse(%q): %v", ref, err)
		}
		if got := parsed.String(); got != ref {
			t.Errorf("String() = %q, want %q", got, ref)
		}
	}
}
