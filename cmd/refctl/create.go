package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/cmd"
	"github.com/mutagen-io/refstore/pkg/refs"
)

func createDirectMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("create-direct requires exactly a reference name and an object id")
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	return withProfile(func() error {
		ref, err := repo.CreateDirect(arguments[0], refs.ObjectID(arguments[1]), createDirectConfiguration.force)
		if err != nil {
			return errors.Wrap(err, "unable to create reference")
		}
		fmt.Printf("%s -> %s\n", ref.Name(), arguments[1])
		return nil
	})
}

var createDirectCommand = &cobra.Command{
	Use:   "create-direct <name> <oid>",
	Short: "Creates a direct reference pointing at an object id",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(createDirectMain),
}

var createDirectConfiguration struct {
	force bool
}

func init() {
	flags := createDirectCommand.Flags()
	flags.BoolVarP(&createDirectConfiguration.force, "force", "f", false, "Overwrite an existing reference of the same name")
}

func createSymbolicMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("create-symbolic requires exactly a reference name and a target name")
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	ref, err := repo.CreateSymbolic(arguments[0], arguments[1], createSymbolicConfiguration.force)
	if err != nil {
		return errors.Wrap(err, "unable to create reference")
	}
	fmt.Printf("%s -> %s\n", ref.Name(), arguments[1])
	return nil
}

var createSymbolicCommand = &cobra.Command{
	Use:   "create-symbolic <name> <target>",
	Short: "Creates a symbolic reference pointing at another reference name",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(createSymbolicMain),
}

var createSymbolicConfiguration struct {
	force bool
}

func init() {
	flags := createSymbolicCommand.Flags()
	flags.BoolVarP(&createSymbolicConfiguration.force, "force", "f", false, "Overwrite an existing reference of the same name")
}
