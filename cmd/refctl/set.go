package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/cmd"
	"github.com/mutagen-io/refstore/pkg/refs"
)

func setOIDMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("set-oid requires exactly a reference name and an object id")
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
	if ref.Kind() != refs.KindDirect {
		return errors.Errorf("%s is not a direct reference", ref.Name())
	}
	if err := repo.SetOID(ref, refs.ObjectID(arguments[1])); err != nil {
		return errors.Wrap(err, "unable to set reference oid")
	}
	fmt.Printf("%s -> %s\n", ref.Name(), arguments[1])
	return nil
}

var setOIDCommand = &cobra.Command{
	Use:   "set-oid <name> <oid>",
	Short: "Updates the object id of an existing direct reference",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(setOIDMain),
}

func setTargetMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("set-target requires exactly a reference name and a target name")
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
	if ref.Kind() != refs.KindSymbolic {
		return errors.Errorf("%s is not a symbolic reference", ref.Name())
	}
	if err := repo.SetTarget(ref, arguments[1]); err != nil {
		return errors.Wrap(err, "unable to set reference target")
	}
	fmt.Printf("%s -> %s\n", ref.Name(), arguments[1])
	return nil
}

var setTargetCommand = &cobra.Command{
	Use:   "set-target <name> <target>",
	Short: "Updates the target of an existing symbolic reference",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(setTargetMain),
}
