package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/cmd"
)

func packallMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 0 {
		return errors.New("packall does not accept positional arguments")
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	return withProfile(func() error {
		if err := repo.Packall(); err != nil {
			return errors.Wrap(err, "unable to pack references")
		}
		fmt.Println("packed all loose direct references")
		return nil
	})
}

var packallCommand = &cobra.Command{
	Use:   "packall",
	Short: "Migrates every loose direct reference into packed-refs, resolving tag peels via the object database",
	Args:  cobra.NoArgs,
	Run:   cmd.Mainify(packallMain),
}
