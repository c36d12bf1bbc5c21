package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnfetch/pkg/coordinate"
)

// fetchCommand creates the fetch command for resolving an artifact.
func (c *CLI) fetchCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <reference>",
		Short: "Resolve an artifact and write its contents",
		Long: `Resolve an artifact reference and write the artifact to stdout or a file.

The reference has the form group/artifact[/version[/type[/classifier]]],
optionally prefixed with mvn: or with a repository and "!" to restrict the
lookup to that repository. The version may be LATEST, RELEASE or a
-SNAPSHOT version. group/artifact[/version]///metadata fetches the
maven-metadata.xml document instead.`,
		Example: `  mvnfetch fetch org.apache.commons/commons-lang3/3.14.0 -o lang3.jar
  mvnfetch fetch org.example/lib/RELEASE/pom
  mvnfetch fetch https://repo.example.com/maven2!org.example/lib/1.0
  mvnfetch fetch org.example/lib////metadata`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (c *CLI) runFetch(cmd *cobra.Command, ref, output string) error {
	parsed, err := coordinate.Parse(ref)
	if err != nil {
		return err
	}
	s, err := c.newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	var spinner *Spinner
	if output != "" {
		spinner = newSpinnerWithContext(ctx, c.Err, "Resolving "+parsed.Coordinates.String()+"...")
		spinner.Start()
	}
	res, err := s.resolver.Fetch(ctx, parsed.Coordinates, parsed.Override)
	if err != nil {
		if spinner != nil {
			spinner.Stop()
		}
		return err
	}
	if spinner != nil {
		spinner.StopWithSuccess(fmt.Sprintf("Resolved %s from %s", parsed.Coordinates, res.Repository))
	}
	prog.done("Resolved " + parsed.Coordinates.String())

	var src io.Reader
	if parsed.Metadata {
		src = bytes.NewReader(res.Data)
	} else {
		f, err := os.Open(res.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	if output == "" {
		_, err := io.Copy(c.Out, src)
		return err
	}
	if err := writeFile(output, src); err != nil {
		return err
	}
	printFile(c.Err, output)
	return nil
}

// pathCommand creates the path command that prints the local file of an artifact.
func (c *CLI) pathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path <reference>",
		Short: "Resolve an artifact and print its local repository path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.resolver.Locate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, p)
			return nil
		},
	}
}

// writeFile copies src into path, creating parent directories.
func writeFile(path string, src io.Reader) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
