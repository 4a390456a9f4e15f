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

package run

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/code42-connector/internal/commands/shared"
	"github.com/tombee/code42-connector/internal/connector"
)

// ActionsResponse is the JSON response for the actions command.
type ActionsResponse struct {
	shared.JSONResponse
	Actions []connector.ActionInfo `json:"actions"`
}

// NewActionsCommand creates the actions command
func NewActionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List available actions",
		Long: `List the actions the connector supports and their parameters.
Required parameters are marked with *.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions := connector.Catalog()

			if shared.Flags().JSON {
				return encodeJSON(cmd.OutOrStdout(), ActionsResponse{
					JSONResponse: shared.JSONResponse{Version: "1.0", Command: "actions", Success: true},
					Actions:      actions,
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, shared.Header.Render("ACTION")+"\t"+shared.Header.Render("PARAMETERS")+"\t"+shared.Header.Render("DESCRIPTION"))
			for _, a := range actions {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Identifier, formatParams(a.Parameters), a.Description)
			}
			return tw.Flush()
		},
	}
}
