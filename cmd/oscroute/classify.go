package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/randalmurphal/oscspace/pkg/oscspace"
)

// classifyCommand prints the classification of every argument and fails if
// any of them is invalid.
func classifyCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("classify: at least one ADDRESS is required")
	}

	invalid := 0
	for _, arg := range c.Args().Slice() {
		kind := oscspace.Classify(arg)
		if kind == oscspace.Invalid {
			invalid++
		}
		fmt.Fprintf(c.App.Writer, "%-9s %s\n", kind, arg)
	}
	if invalid > 0 {
		return fmt.Errorf("%d invalid address(es)", invalid)
	}
	return nil
}
