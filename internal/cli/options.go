package cli

// Options is the root for the CLI. Struct tags are interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Config string `short:"c" long:"config" description:"configuration YAML/JSON location (local path or any afs URL)"`

	Serve        *ServeCmd        `command:"serve"        description:"Start the HTTP server exposing the registered tools"`
	Exec         *ExecCmd         `command:"exec"         description:"Execute one tool call and print the result envelope"`
	ListTools    *ListToolsCmd    `command:"list-tools"   description:"List all registered tools"`
	Placeholders *PlaceholdersCmd `command:"placeholders" description:"List the placeholders of a workflow template"`
}

// Init instantiates the sub-command referenced by the first positional argument
// so that go-flags can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "serve":
		o.Serve = &ServeCmd{}
	case "exec":
		o.Exec = &ExecCmd{}
	case "list-tools":
		o.ListTools = &ListToolsCmd{}
	case "placeholders":
		o.Placeholders = &PlaceholdersCmd{}
	}
}
