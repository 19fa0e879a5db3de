package cli

import (
	"encoding/json"
	"fmt"

	"github.com/skosovsky/fieldmap/server"
)

// ListToolsCmd prints every registered tool, sorted by name.
type ListToolsCmd struct {
	JSON bool `long:"json" description:"Print full tool descriptions, including parameters, as JSON"`
}

func (c *ListToolsCmd) Execute(_ []string) error {
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	tools := server.Describe(svc.registry)
	if c.JSON {
		out, err := json.MarshalIndent(tools, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(out))
		return nil
	}
	for _, t := range tools {
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", t.Name, t.Version, t.Description)
	}
	return nil
}
