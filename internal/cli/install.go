package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/addonkit/addonkit/internal/manager"
)

var (
	installRelease      string
	installWithOptional bool
)

var installCmd = &cobra.Command{
	Use:   "install <source>/<extension>",
	Short: "Install or update an extension from a registered catalog",
	Long: `Install an extension from a registered catalog source, or update it to a
different release.

Without --release, the newest release compatible with the configured host
version is installed. Artifacts are downloaded into the extension directory;
a previously installed release of the same extension is replaced atomically.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installRelease, "release", "", "Release name to install (default: latest compatible)")
	installCmd.Flags().BoolVar(&installWithOptional, "with-optional", false, "Also install optional dependencies")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	sourceName, extName, ok := strings.Cut(args[0], "/")
	if !ok {
		return fmt.Errorf("expected <source>/<extension>, got %q", args[0])
	}

	m, err := newManager()
	if err != nil {
		return err
	}

	src, ok := m.Registry().Find(sourceName)
	if !ok {
		return fmt.Errorf("catalog source %q is not registered", sourceName)
	}

	cat, err := m.Fetcher().Fetch(cmd.Context(), src.URI)
	if err != nil {
		return err
	}

	ext, ok := cat.FindExtension(extName)
	if !ok {
		return fmt.Errorf("extension %q not found in catalog %q", extName, cat.Name)
	}

	rel, ok := m.LatestCompatible(ext)
	if installRelease != "" {
		rel, ok = m.FindRelease(ext, installRelease)
		if !ok {
			return fmt.Errorf("release %q not found for extension %q", installRelease, extName)
		}
	} else if !ok {
		return fmt.Errorf("no release of %q is compatible with this host version", extName)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installing %s %s...\n", extName, rel.Name)

	lastPercent := -1
	task, err := m.InstallOrUpdate(cmd.Context(), manager.InstallRequest{
		Extension:       extName,
		Release:         rel,
		InstallOptional: installWithOptional,
		OnProgress: func(frac float64) {
			percent := int(frac * 100)
			if percent != lastPercent {
				fmt.Fprintf(cmd.OutOrStdout(), "\rDownloading... %d%%", percent)
				lastPercent = percent
			}
		},
	})
	if err != nil {
		return err
	}

	if err := task.Wait(cmd.Context()); err != nil {
		fmt.Fprintln(cmd.OutOrStdout())
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Installed %s %s\n", extName, rel.Name)
	return nil
}
