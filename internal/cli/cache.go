package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/localrepo"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the metadata cache and local repository",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var artifacts bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached metadata documents",
		Long: `Clear cached maven-metadata.xml documents so the next resolution asks the
repositories again. With --artifacts the local repository is emptied too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			count, err := clearDir(dir)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo(c.Err, "Metadata cache is empty")
			} else {
				printSuccess(c.Err, "Cleared %d cached entries", count)
			}
			printDetail(c.Err, "Directory: %s", dir)

			if !artifacts {
				return nil
			}
			cfg, err := c.configuration(cmd)
			if err != nil {
				return err
			}
			if err := localrepo.New(cfg.CacheRoot).Clear(); err != nil {
				return err
			}
			printSuccess(c.Err, "Cleared local repository")
			printDetail(c.Err, "Directory: %s", cfg.CacheRoot)
			return nil
		},
	}

	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "also empty the local repository")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	var artifacts bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the metadata cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if artifacts {
				cfg, err := c.configuration(cmd)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.Out, cfg.CacheRoot)
				return nil
			}
			dir, err := cache.DefaultDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "print the local repository instead")
	return cmd
}

// clearDir removes every file below dir and the emptied subdirectories,
// returning the number of files removed. A missing dir counts as empty.
func clearDir(dir string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if path == dir {
			return nil
		}
		if !info.IsDir() {
			if err := os.Remove(path); err == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	// Clean up empty subdirectories
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() {
			os.RemoveAll(filepath.Join(dir, e.Name()))
		}
	}
	return count, nil
}
