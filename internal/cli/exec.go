package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/skosovsky/fieldmap"
)

// errCallFailed is returned after a failed envelope has been printed, so the process exits non-zero.
var errCallFailed = errors.New("tool call failed")

// ExecCmd executes a registered tool. Arguments are supplied inline via -i/--input or
// loaded via -f/--file (any afs location, or - for stdin).
type ExecCmd struct {
	Name   string `short:"n" long:"name" description:"Tool name" required:"yes"`
	Inline string `short:"i" long:"input" description:"Inline JSON arguments (object)"`
	File   string `short:"f" long:"file" description:"Location of a JSON arguments file (use - for stdin)"`
	ID     string `long:"id" description:"Call ID (a UUID is generated when empty)"`
	Token  string `long:"token" description:"Bearer token for the call (defaults to server.authToken)"`
}

func (c *ExecCmd) Execute(_ []string) error {
	if c.Inline != "" && c.File != "" {
		return fmt.Errorf("-i/--input and -f/--file are mutually exclusive")
	}
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}

	ctx := context.Background()
	args := []byte(c.Inline)
	if c.File != "" {
		if args, err = readInput(ctx, c.File); err != nil {
			return err
		}
	}
	if len(args) == 0 {
		args = []byte(`{}`)
	}

	token := c.Token
	if token == "" {
		token = svc.config.Server.AuthToken
	}
	if token != "" {
		ctx = fieldmap.WithCredentials(ctx, fieldmap.Credentials{Scheme: "Bearer", Token: token})
	}
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}

	env := fieldmap.NewEnvelope(svc.registry.Execute(ctx, fieldmap.ToolCall{ID: id, ToolName: c.Name, Args: args}))
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(out))
	if !env.Success {
		return errCallFailed
	}
	return nil
}
