package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skosovsky/fieldmap/workflow"
)

// PlaceholdersCmd lists the {{NAME|default}} placeholders of a raw workflow template.
// The template is scanned directly; no service configuration is needed.
type PlaceholdersCmd struct {
	Template string `short:"t" long:"template" description:"Template location (use - for stdin)" required:"yes"`
}

func (c *PlaceholdersCmd) Execute(_ []string) error {
	data, err := readInput(context.Background(), c.Template)
	if err != nil {
		return err
	}
	res, err := workflow.Inspect(string(data))
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(out))
	return nil
}
