package config

import (
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/repository"
)

func parseSettings(t *testing.T, doc string, env map[string]string) *Settings {
	t.Helper()
	s, err := ParseSettings([]byte(doc))
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	s.env = func(k string) string { return env[k] }
	return s
}

func TestParseSettings_Invalid(t *testing.T) {
	if _, err := ParseSettings([]byte("<settings><unclosed>")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestSettings_LocalRepositoryPath(t *testing.T) {
	s := parseSettings(t, `<settings><localRepository>${user.home}/repo-${env.FLAVOR}-${unknown}</localRepository></settings>`,
		map[string]string{"HOME": "/home/dev", "FLAVOR": "ci"})
	if got := s.LocalRepositoryPath(); got != "/home/dev/repo-ci-${unknown}" {
		t.Errorf("LocalRepositoryPath() = %q", got)
	}
}

func TestSettings_Repositories(t *testing.T) {
	s := parseSettings(t, `<settings>
  <profiles>
    <profile>
      <id>on</id>
      <activation><activeByDefault>true</activeByDefault></activation>
      <repositories>
        <repository><id>a</id><url>http://a/</url></repository>
        <repository>
          <id>b</id><url>http://b/</url>
          <releases><enabled>false</enabled><updatePolicy>never</updatePolicy></releases>
          <snapshots><enabled>true</enabled></snapshots>
        </repository>
      </repositories>
    </profile>
    <profile>
      <id>listed</id>
      <repositories><repository><id>c</id><url>http://c/</url></repository></repositories>
    </profile>
    <profile>
      <id>off</id>
      <repositories><repository><id>d</id><url>http://d/</url></repository></repositories>
    </profile>
  </profiles>
  <activeProfiles><activeProfile>listed</activeProfile></activeProfiles>
</settings>`, nil)

	want := "http://a/@id=a,http://b/@id=b@snapshots@noreleases@update=never,http://c/@id=c"
	if got := s.Repositories(); got != want {
		t.Errorf("Repositories() = %q, want %q", got, want)
	}

	specs := repository.ParseList(s.Repositories(), nil)
	if len(specs) != 3 || specs[1].ReleasesEnabled || !specs[1].SnapshotsEnabled {
		t.Errorf("parsed = %+v", specs)
	}
}

func TestSettings_RepositoryLayout(t *testing.T) {
	s := parseSettings(t, `<settings>
  <profiles>
    <profile>
      <id>on</id>
      <activation><activeByDefault>true</activeByDefault></activation>
      <repositories>
        <repository><id>old</id><url>http://old/</url><layout>legacy</layout></repository>
        <repository><id>new</id><url>http://new/</url><layout>default</layout></repository>
      </repositories>
    </profile>
  </profiles>
</settings>`, nil)

	want := "http://old/@id=old@layout=legacy,http://new/@id=new"
	if got := s.Repositories(); got != want {
		t.Errorf("Repositories() = %q, want %q", got, want)
	}
	specs := repository.ParseList(s.Repositories(), nil)
	if len(specs) != 2 || specs[0].Layout != repository.LayoutLegacy || specs[1].Layout != repository.LayoutDefault {
		t.Errorf("parsed = %+v", specs)
	}
}

func TestSettings_MirrorRules(t *testing.T) {
	s := parseSettings(t, `<settings><mirrors>
  <mirror><id>first</id><url>http://m1/</url><mirrorOf>central</mirrorOf></mirror>
  <mirror><id>nourl</id><mirrorOf>*</mirrorOf></mirror>
  <mirror><id>second</id><url>http://m2/</url><mirrorOf>*</mirrorOf><layout>legacy</layout></mirror>
</mirrors></settings>`, nil)

	rules := s.MirrorRules()
	if len(rules) != 2 {
		t.Fatalf("len = %d, want 2", len(rules))
	}
	if rules[0].ID != "first" || rules[1].ID != "second" {
		t.Errorf("order = %s, %s", rules[0].ID, rules[1].ID)
	}
	if rules[1].Layout != repository.LayoutLegacy {
		t.Errorf("Layout = %q, want legacy", rules[1].Layout)
	}
}

func TestSettings_ProxyRules(t *testing.T) {
	s := parseSettings(t, `<settings><proxies>
  <proxy><id>off</id><active>false</active><host>off.example.com</host></proxy>
  <proxy><id>on</id><host>proxy.example.com</host><port>8080</port><username>u</username><password>${env.PROXY_PW}</password><nonProxyHosts>*.internal|localhost</nonProxyHosts></proxy>
  <proxy><id>tls</id><protocol>HTTPS</protocol><host>secure.example.com</host><port>443</port></proxy>
</proxies></settings>`, map[string]string{"PROXY_PW": "pw"})

	proxies := s.ProxyRules()
	if len(proxies) != 2 {
		t.Fatalf("len = %d, want 2", len(proxies))
	}
	on := proxies[0]
	if on.ID != "on" || on.Protocol != "http" || on.Port != 8080 || on.Password != "pw" {
		t.Errorf("proxy = %+v", on)
	}
	if !on.Bypass("build.internal") {
		t.Error("build.internal should bypass the proxy")
	}
	if proxies[1].Protocol != "https" {
		t.Errorf("Protocol = %q, want https", proxies[1].Protocol)
	}
}
