package main

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mutagen-io/refstore/cmd"
	"github.com/mutagen-io/refstore/pkg/refs"
)

// init disables color output when stdout isn't a terminal (e.g. piped into
// another tool), so scripted consumers of "list -l" don't have to strip
// escape codes themselves.
func init() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

func listKindFilter() (refs.KindFilter, error) {
	switch listConfiguration.kind {
	case "", "all":
		return refs.KindFilterAll, nil
	case "direct":
		return refs.KindFilterDirect, nil
	case "symbolic":
		return refs.KindFilterSymbolic, nil
	default:
		return refs.KindFilterAll, errors.Errorf("unknown --kind value: %s", listConfiguration.kind)
	}
}

func listMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 0 {
		return errors.New("list does not accept positional arguments")
	}
	filter, err := listKindFilter()
	if err != nil {
		return err
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	names, err := repo.ListAll(filter)
	if err != nil {
		return errors.Wrap(err, "unable to list references")
	}

	for _, name := range names {
		if listConfiguration.glob != "" {
			matched, err := doublestar.Match(listConfiguration.glob, name)
			if err != nil {
				return errors.Wrap(err, "invalid --glob pattern")
			}
			if !matched {
				continue
			}
		}

		if !listConfiguration.long {
			fmt.Println(name)
			continue
		}

		ref, err := repo.Lookup(name)
		if err != nil {
			color.Red("%s: %v", name, err)
			continue
		}

		var value string
		if oid, ok := ref.DirectOID(); ok {
			value = string(oid)
		} else if target, ok := ref.SymbolicTarget(); ok {
			value = "-> " + target
		}

		storage := color.CyanString(ref.Kind().String())
		if ref.IsPacked() {
			storage = color.YellowString("packed")
		}
		fmt.Printf("%-40s %-10s %-8s %s\n", name, value, storage, humanize.Time(ref.ModTime()))
	}
	return nil
}

var listCommand = &cobra.Command{
	Use:   "list",
	Short: "Lists every reference (loose and packed), deduplicated per the loose-wins rule",
	Args:  cobra.NoArgs,
	Run:   cmd.Mainify(listMain),
}

var listConfiguration struct {
	long bool
	glob string
	kind string
}

func init() {
	flags := listCommand.Flags()
	flags.BoolVarP(&listConfiguration.long, "long", "l", false, "Show value, kind (or \"packed\" for a packed reference), and modification time for each reference")
	flags.StringVar(&listConfiguration.glob, "glob", "", "Restrict listed names to those matching a doublestar glob pattern")
	flags.StringVar(&listConfiguration.kind, "kind", "all", "Restrict to \"direct\", \"symbolic\", or \"all\" references")
}
