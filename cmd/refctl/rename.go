package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/cmd"
)

func renameMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("rename requires exactly an old name and a new name")
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	ref, err := repo.Lookup(arguments[0])
	if err != nil {
		return errors.Wrap(err, "unable to look up reference")
	}
	if err := repo.Rename(ref, arguments[1], renameConfiguration.force); err != nil {
		return errors.Wrap(err, "unable to rename reference")
	}
	fmt.Printf("%s -> %s\n", arguments[0], ref.Name())
	return nil
}

var renameCommand = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Renames an existing reference, preserving its kind and value",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(renameMain),
}

var renameConfiguration struct {
	force bool
}

func init() {
	flags := renameCommand.Flags()
	flags.BoolVarP(&renameConfiguration.force, "force", "f", false, "Overwrite an existing reference at the destination name")
}
