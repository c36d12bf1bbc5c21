package resolver

import (
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/coordinate"
	"github.com/matzehuels/mvnfetch/pkg/repository"
)

func mustCoords(t *testing.T, ref string) coordinate.Coordinates {
	t.Helper()
	r, err := coordinate.Parse(ref)
	if err != nil {
		t.Fatal(err)
	}
	return r.Coordinates
}

func TestEligible(t *testing.T) {
	releases := &repository.Spec{ReleasesEnabled: true}
	snapshots := &repository.Spec{SnapshotsEnabled: true}

	tests := []struct {
		repo    *repository.Spec
		version string
		want    bool
	}{
		{releases, "1.0", true},
		{releases, "1.0-SNAPSHOT", false},
		{releases, "1.0-20110714.123053-3", false},
		{releases, "RELEASE", true},
		{releases, "LATEST", true},
		{snapshots, "1.0", false},
		{snapshots, "1.0-SNAPSHOT", true},
		{snapshots, "RELEASE", false},
		{snapshots, "LATEST", true},
		{&repository.Spec{}, "LATEST", false},
	}
	for _, tt := range tests {
		v := coordinate.ParseVersion(tt.version)
		if got := eligible(tt.repo, v); got != tt.want {
			t.Errorf("eligible(%+v, %s) = %v, want %v", tt.repo, tt.version, got, tt.want)
		}
	}
}
