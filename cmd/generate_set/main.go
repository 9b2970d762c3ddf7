// Command generate_set produces a random element set for PSI benchmarking,
// optionally sampled from an existing source set with a given probability.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/momalab/psi-ndss2025/internal/logging"
	"github.com/momalab/psi-ndss2025/internal/setfile"
)

var log = logging.MustGetLogger("generate_set")

func run(c *cli.Context) error {
	args := c.Args()
	if len(args) < 3 {
		return cli.NewExitError("usage: generate_set <set_size> <bit_size> <target_file> [source_file] [source_probability]", 1)
	}

	setSize, err := strconv.ParseUint(args.Get(0), 10, 64)
	if err != nil {
		return cli.NewExitError("set_size must be a non-negative integer: "+err.Error(), 1)
	}
	bitSize, err := strconv.ParseUint(args.Get(1), 10, 64)
	if err != nil {
		return cli.NewExitError("bit_size must be a non-negative integer: "+err.Error(), 1)
	}
	targetFile := args.Get(2)

	log.Noticef("generating set of %d elements of %d bits", setSize, bitSize)

	var set []uint64
	if len(args) > 3 {
		sourceFile := args.Get(3)
		probability := 1.0
		if len(args) > 4 {
			probability, err = strconv.ParseFloat(args.Get(4), 64)
			if err != nil {
				return cli.NewExitError("source_probability must be a float: "+err.Error(), 1)
			}
		}
		source, err := setfile.Load(sourceFile)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		log.Noticef("sourcing from %s with probability %.2f among %d elements", sourceFile, probability, len(source))
		set = setfile.GenerateFromSource(setSize, bitSize, source, probability)
	} else {
		set = setfile.GenerateRandom(setSize, bitSize)
	}

	if err := setfile.Save(targetFile, set); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	color.Green("wrote %d elements to %s", len(set), targetFile)
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "generate_set"
	app.Usage = "generate a random element set for PSI"
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
