package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/cmd"
)

func deleteMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("delete requires exactly a reference name")
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
	if err := repo.Delete(ref); err != nil {
		return errors.Wrap(err, "unable to delete reference")
	}
	fmt.Printf("deleted %s\n", ref.Name())
	return nil
}

var deleteCommand = &cobra.Command{
	Use:   "delete <name>",
	Short: "Deletes an existing reference",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(deleteMain),
}
