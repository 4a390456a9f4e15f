// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/code42-connector/internal/commands/shared"
	"github.com/tombee/code42-connector/internal/connector"
)

const docsURL = "https://github.com/tombee/code42-connector#usage"

// actionCommands take an action identifier; their help lists the actions.
var actionCommands = map[string]bool{"run": true, "action": true, "actions": true}

// CommandMetadata describes a CLI command.
type CommandMetadata struct {
	Name        string         `json:"name"`
	Short       string         `json:"short"`
	Long        string         `json:"long,omitempty"`
	Usage       string         `json:"usage"`
	Group       string         `json:"group,omitempty"`
	Flags       []FlagMetadata `json:"flags,omitempty"`
	Examples    string         `json:"examples,omitempty"`
	Subcommands []string       `json:"subcommands,omitempty"`
}

// FlagMetadata describes a flag.
type FlagMetadata struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
	Required  bool   `json:"required"`
}

// HelpResponse is the JSON output of help. Exactly one of Commands, Target
// or Action is set.
type HelpResponse struct {
	shared.JSONResponse
	Commands    []CommandMetadata      `json:"commands,omitempty"`
	Target      *CommandMetadata       `json:"target,omitempty"`
	Action      *connector.ActionInfo  `json:"action,omitempty"`
	Actions     []connector.ActionInfo `json:"actions,omitempty"`
	GlobalFlags []FlagMetadata         `json:"global_flags,omitempty"`
	DocsURL     string                 `json:"docs_url"`
}

// NewHelpCommand replaces cobra's help with one that also describes
// connector actions and can answer in JSON.
func NewHelpCommand(rootCmd *cobra.Command) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "help [command|action]",
		Short: "Help about any command or action",
		Long: `Help shows usage for a command, or the parameters of a connector action.

  code42-connector help action
  code42-connector help search_alerts --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON := shared.Flags().JSON || jsonOutput
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				if !asJSON {
					return rootCmd.Help()
				}
				return writeHelp(out, HelpResponse{
					JSONResponse: helpEnvelope("help"),
					Commands:     visibleCommands(rootCmd),
					Actions:      connector.Catalog(),
					GlobalFlags:  flagList(rootCmd.PersistentFlags()),
					DocsURL:      docsURL,
				})
			}

			if info, ok := connector.Lookup(args[0]); ok {
				if !asJSON {
					writeActionHelp(out, info)
					return nil
				}
				return writeHelp(out, HelpResponse{
					JSONResponse: helpEnvelope("help " + info.Identifier),
					Action:       &info,
					DocsURL:      docsURL,
				})
			}

			target, _, err := rootCmd.Find(args)
			if err != nil || target == rootCmd {
				return fmt.Errorf("command or action %q not found", args[0])
			}
			if !asJSON {
				return target.Help()
			}

			resp := HelpResponse{
				JSONResponse: helpEnvelope("help " + target.Name()),
				Target:       describe(target),
				GlobalFlags:  flagList(rootCmd.PersistentFlags()),
				DocsURL:      docsURL,
			}
			if actionCommands[target.Name()] {
				resp.Actions = connector.Catalog()
			}
			return writeHelp(out, resp)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func helpEnvelope(command string) shared.JSONResponse {
	return shared.JSONResponse{Version: "1.0", Command: command, Success: true}
}

func writeHelp(w io.Writer, resp HelpResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func writeActionHelp(w io.Writer, info connector.ActionInfo) {
	fmt.Fprintf(w, "%s\n  %s\n", shared.Bold.Render(info.Identifier), info.Description)
	if len(info.Parameters) == 0 {
		fmt.Fprintln(w, "\nNo parameters.")
		return
	}
	fmt.Fprintln(w, "\nParameters:")
	for _, p := range info.Parameters {
		name := p.Name
		if p.Required {
			name += " (required)"
		}
		fmt.Fprintf(w, "  %-28s %s\n", name, p.Description)
	}
}

func visibleCommands(root *cobra.Command) []CommandMetadata {
	var cmds []CommandMetadata
	for _, c := range root.Commands() {
		if !c.Hidden {
			cmds = append(cmds, *describe(c))
		}
	}
	return cmds
}

func describe(cmd *cobra.Command) *CommandMetadata {
	md := &CommandMetadata{
		Name:     cmd.Name(),
		Short:    cmd.Short,
		Long:     cmd.Long,
		Usage:    cmd.UseLine(),
		Group:    cmd.Annotations["group"],
		Flags:    flagList(cmd.Flags()),
		Examples: cmd.Example,
	}
	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			md.Subcommands = append(md.Subcommands, sub.Name())
		}
	}
	return md
}

func flagList(fs *pflag.FlagSet) []FlagMetadata {
	var flags []FlagMetadata
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		required := false
		if v := f.Annotations[cobra.BashCompOneRequiredFlag]; len(v) > 0 {
			required = v[0] == "true"
		}
		flags = append(flags, FlagMetadata{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Usage:     f.Usage,
			Default:   f.DefValue,
			Required:  required,
		})
	})
	return flags
}
