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
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/code42-connector/internal/commands/shared"
)

// SetVersion records the build metadata injected through ldflags.
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand builds the root command. Subcommands are added by main.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code42-connector",
		Short: "Code42 SOAR connector",
		Long: `code42-connector runs Code42 actions for a SOAR platform.

An action request names the action, the asset configuration and a list of
parameter sets; the connector runs the action once per parameter set and
reports a result for each. Asset state is kept between runs.

Run 'code42-connector actions' to list the available actions.
Run 'code42-connector action test_connectivity' to check credentials.`,
		SilenceUsage:  true,
		SilenceErrors: true, // HandleExitError reports them
	}

	shared.BindGlobalFlags(cmd.PersistentFlags())

	return cmd
}

// HandleExitError reports err from the command that ran and exits.
func HandleExitError(cmd *cobra.Command, err error) {
	shared.HandleExitError(commandName(cmd), err)
}

// commandName drops the binary name, so "code42-connector secrets set"
// becomes "secrets set".
func commandName(cmd *cobra.Command) string {
	if cmd == nil || !cmd.HasParent() {
		return "code42-connector"
	}
	return strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")
}
