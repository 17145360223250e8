// Package cli implements the ciassoc command line.
package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/johnwards/ciassoc/internal/config"
)

// EnvPrefix prefixes the environment variables that override handler
// properties, so targetFdn is read from CIASSOC_TARGET_FDN.
const EnvPrefix = "CIASSOC_"

var cliVersion string

var envFiles []string

var rootCmd = &cobra.Command{
	Use:           "ciassoc",
	Short:         "ciassoc associates configuration items with their entity address info on a remote DPS",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadDotEnv(envFiles...)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version string) {
	if version == "" {
		cliVersion = devVersion()
	} else {
		cliVersion = version
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func devVersion() string {
	commit, modified := "unknown", false
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value
				if len(commit) > 7 {
					commit = commit[:7]
				}
			case "vcs.modified":
				modified = setting.Value == "true"
			}
		}
	}
	if modified {
		return fmt.Sprintf("development@%s+uncommittedChanges", commit)
	}
	return fmt.Sprintf("development@%s", commit)
}
