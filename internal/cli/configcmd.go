package cli

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/config"
	"github.com/matzehuels/mvnfetch/pkg/mirror"
	"github.com/matzehuels/mvnfetch/pkg/transport"
)

// configCommand creates the config command that prints the effective configuration.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration after layering flags, MVNFETCH_* environment
variables, the properties file and settings.xml, followed by the repositories
a resolution tries, in order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.configuration(cmd)
			if err != nil {
				return err
			}
			c.printConfiguration(cfg)
			return nil
		},
	}
}

func (c *CLI) printConfiguration(cfg *config.Configuration) {
	w := c.Out
	fmt.Fprintln(w, StyleTitle.Render("Configuration"))
	printKeyValue(w, "local repository", cfg.CacheRoot)
	printKeyValue(w, "settings", orNone(cfg.SettingsPath))
	printKeyValue(w, "fallback repositories", strconv.FormatBool(cfg.UseFallbackRepositories))
	printKeyValue(w, "certificate check", strconv.FormatBool(cfg.CertificateCheck))
	printKeyValue(w, "timeout", cfg.Timeout.String())
	printKeyValue(w, "metadata cache", metadataCacheLabel(cfg.MetadataCache))
	fmt.Fprintln(w)
	fmt.Fprintln(w, repositoryTable(cfg))

	if len(cfg.Mirrors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleTitle.Render("Mirrors"))
		for _, m := range cfg.Mirrors {
			printKeyValue(w, m.ID, fmt.Sprintf("%s (mirrorOf %s)", m.URL, m.MirrorOf))
		}
	}
	if len(cfg.Proxies) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleTitle.Render("Proxies"))
		for _, p := range cfg.Proxies {
			printKeyValue(w, p.ID, proxyLabel(p))
		}
	}
	for _, token := range cfg.Skipped {
		printWarning(c.Err, "skipped %q", token)
	}
}

// repositoryTable renders the candidate repositories with their flags and
// the mirror, if any, that serves them.
func repositoryTable(cfg *config.Configuration) *table.Table {
	rows := [][]string{}
	for i, repo := range cfg.Candidates() {
		served := ""
		if rule, ok := mirror.Find(cfg.Mirrors, repo); ok && !repo.Local {
			served = rule.ID
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			repo.ID,
			transport.Redact(repo.Base()),
			yesNo(repo.ReleasesEnabled),
			yesNo(repo.SnapshotsEnabled),
			repo.Update.Name,
			served,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		}).
		Headers("#", "ID", "URL", "RELEASES", "SNAPSHOTS", "UPDATE", "MIRROR").
		Rows(rows...)
}

func proxyLabel(p transport.Proxy) string {
	addr := p.Host
	if p.Port > 0 {
		addr = net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	}
	label := p.Protocol + " via " + addr
	if p.NonProxyHosts != "" {
		label += " (bypass " + p.NonProxyHosts + ")"
	}
	return label
}

func metadataCacheLabel(v string) string {
	if strings.HasPrefix(v, "redis") {
		return transport.Redact(v)
	}
	if v == "" {
		return string(config.MetadataCacheFile)
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
