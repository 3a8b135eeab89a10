package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/pkg/refstore"
)

func rootMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.version {
		fmt.Println(refstore.Version)
		return nil
	}
	return command.Help()
}

var rootCommand = &cobra.Command{
	Use:          "refctl",
	Short:        "refctl inspects and mutates a content-addressed repository's reference store",
	SilenceUsage: true,
	RunE:         rootMain,
}

var rootConfiguration struct {
	// help indicates whether help information should be shown.
	help bool
	// version indicates whether version information should be shown.
	version bool
	// root is the repository root containing refs/, packed-refs, and HEAD.
	root string
	// odbDir, if set, points refctl at a directory of marker files used in
	// place of a real object database for oid existence/tag-peel checks.
	odbDir string
	// lockTimeoutSeconds bounds how long a mutation retries against a held
	// lock file before giving up.
	lockTimeoutSeconds float64
	// profile, if set, names a pprof CPU profile to record around the
	// invoked subcommand.
	profile string
}

func init() {
	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	flags := rootCommand.PersistentFlags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVar(&rootConfiguration.root, "root", ".", "Repository root containing refs/, packed-refs, and HEAD")
	flags.StringVar(&rootConfiguration.odbDir, "odb-dir", "", "Directory of object marker files used for oid validation (omit to skip validation)")
	flags.Float64Var(&rootConfiguration.lockTimeoutSeconds, "lock-timeout", 5, "Seconds to retry against a held lock file before failing")
	flags.StringVar(&rootConfiguration.profile, "profile", "", "Record a CPU profile (by name prefix) around the invoked subcommand")

	rootCommand.Flags().BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	rootCommand.AddCommand(
		createDirectCommand,
		createSymbolicCommand,
		setOIDCommand,
		setTargetCommand,
		deleteCommand,
		renameCommand,
		listCommand,
		packallCommand,
		normalizeCommand,
		resolveCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
