package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/cmd"
)

func normalizeMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("normalize requires exactly a reference name")
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	canonical, err := repo.Normalize(arguments[0], normalizeConfiguration.direct)
	if err != nil {
		return errors.Wrap(err, "unable to normalize name")
	}
	fmt.Println(canonical)
	return nil
}

var normalizeCommand = &cobra.Command{
	Use:   "normalize <name>",
	Short: "Prints the canonical form of a reference name, honoring the repository's configured refsRoot, without touching its references",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(normalizeMain),
}

var normalizeConfiguration struct {
	direct bool
}

func init() {
	flags := normalizeCommand.Flags()
	flags.BoolVar(&normalizeConfiguration.direct, "direct", false, "Normalize as a direct-mode name rather than an indirect-mode name")
}
