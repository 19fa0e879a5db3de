package cli

import (
	"strings"

	"github.com/jessevdk/go-flags"
)

// Run parses args and executes the selected sub-command.
func Run(args []string) error {
	setConfigPath(extractConfigPath(args))

	opts := &Options{}
	opts.Init(commandName(args))

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	_, err := parser.ParseArgs(args)
	return err
}

// commandName returns the first positional argument, skipping the global -c/--config option.
func commandName(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-c" || a == "--config":
			i++
		case strings.HasPrefix(a, "-"):
		default:
			return a
		}
	}
	return ""
}

// extractConfigPath searches the raw argument list for the -c/--config option before the full
// flags parsing so the service singleton can load the config from a deterministic location.
func extractConfigPath(args []string) string {
	for i, a := range args {
		switch a {
		case "-c", "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		default:
			if v, ok := strings.CutPrefix(a, "--config="); ok {
				return v
			}
		}
	}
	return ""
}
