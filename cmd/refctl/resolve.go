package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/cmd"
)

func resolveMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("resolve requires exactly a reference name")
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
	resolved, err := repo.Resolve(ref)
	if err != nil {
		return errors.Wrap(err, "unable to resolve reference")
	}
	oid, _ := resolved.DirectOID()
	fmt.Println(oid)
	return nil
}

var resolveCommand = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Follows a reference (through any symbolic chain) to its final object id",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(resolveMain),
}
