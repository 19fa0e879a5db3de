// Command fieldmap serves and runs the field-mapping transform tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/skosovsky/fieldmap/internal/cli"
)

func main() {
	err := cli.Run(os.Args[1:])
	if err == nil {
		return
	}
	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
		fmt.Fprintln(os.Stdout, flagsErr.Message)
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
