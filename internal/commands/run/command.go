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
	"github.com/spf13/cobra"
)

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	var opts outputOptions
	var assetID string

	cmd := &cobra.Command{
		Use:   "run <request-file|->",
		Short: "Run an action request",
		Annotations: map[string]string{
			"group": "execution",
		},
		Long: `Run reads a JSON action request and runs the action once per parameter set.

Request format:
  {
    "identifier": "add_departing_employee",
    "asset_id": "soc-primary",
    "config": {"cloud_instance": "console.us.code42.com", "username": "...", "password": "keychain:code42/password"},
    "parameters": [{"username": "alice@example.com", "departure_date": "2024-02-01"}]
  }

Configuration precedence: config file < CODE42_* environment < request config.
A request without parameters runs the action once with no parameters.

Output:
  (default)  One line per result with its status and message
  --json     The full run result as JSON
  --jq       Apply a jq expression to the run result`,
		Example: `  code42-connector run request.json
  cat request.json | code42-connector run -
  code42-connector run request.json --jq '.results[].summary'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadRequest(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if assetID != "" {
				req.AssetID = assetID
			}
			return execute(cmd, req, opts)
		},
	}

	cmd.Flags().StringVar(&assetID, "asset", "", "Override the asset id of the request")
	opts.register(cmd)

	return cmd
}
