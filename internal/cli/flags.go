package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/config"
)

// globalFlags are the persistent flags shared by every command. Each one
// maps onto a configuration property and only counts when given explicitly.
type globalFlags struct {
	configPath          string
	localRepository     string
	repositories        string
	defaultRepositories string
	settings            string
	noFallback          bool
	certificateCheck    bool
	timeout             string
	updatePolicy        string
	metadataCache       string
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "properties file (default $XDG_CONFIG_HOME/mvnfetch/config.toml)")
	pf.StringVar(&f.localRepository, "local-repository", "", "local repository path or file: URL")
	pf.StringVar(&f.repositories, "repositories", "", "comma-separated repositories; a leading + prepends to settings.xml, a leading * drops the built-in defaults")
	pf.StringVar(&f.defaultRepositories, "default-repositories", "", "comma-separated repositories tried after the configured ones")
	pf.StringVar(&f.settings, "settings", "", "settings.xml path or file: URL")
	pf.BoolVar(&f.noFallback, "no-fallback", false, "do not try the fallback repositories")
	pf.BoolVar(&f.certificateCheck, "certificate-check", false, "verify TLS certificates of https repositories")
	pf.StringVar(&f.timeout, "timeout", "", "connect timeout, e.g. 30s")
	pf.StringVar(&f.updatePolicy, "update-policy", "", "update policy for every repository: always, daily, never or interval:N")
	pf.StringVar(&f.metadataCache, "metadata-cache", "", "metadata cache: file, memory, none or a redis:// URL")
}

// properties returns the flag layer: only flags set on the command line
// carry a value.
func (f *globalFlags) properties(cmd *cobra.Command) config.Properties {
	var p config.Properties
	changed := func(name string) bool {
		fl := cmd.Flag(name)
		return fl != nil && fl.Changed
	}
	str := func(name, v string) *string {
		if !changed(name) {
			return nil
		}
		return &v
	}

	p.LocalRepository = str("local-repository", f.localRepository)
	p.Repositories = str("repositories", f.repositories)
	p.DefaultRepositories = str("default-repositories", f.defaultRepositories)
	p.Settings = str("settings", f.settings)
	p.Timeout = str("timeout", f.timeout)
	p.GlobalUpdatePolicy = str("update-policy", f.updatePolicy)
	p.MetadataCache = str("metadata-cache", f.metadataCache)
	if changed("no-fallback") {
		use := !f.noFallback
		p.UseFallbackRepositories = &use
	}
	if changed("certificate-check") {
		check := f.certificateCheck
		p.CertificateCheck = &check
	}
	return p
}
