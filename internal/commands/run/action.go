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

	"github.com/tombee/code42-connector/internal/commands/shared"
	"github.com/tombee/code42-connector/internal/connector"
)

// NewActionCommand creates the action command, which builds a request
// from flags instead of a request file.
func NewActionCommand() *cobra.Command {
	var (
		opts           outputOptions
		params         paramFlag
		paramsFile     string
		assetID        string
		cloudInstance  string
		username       string
		promptPassword bool
		correlationID  string
	)

	cmd := &cobra.Command{
		Use:   "action <identifier>",
		Short: "Run one action with parameters from flags",
		Annotations: map[string]string{
			"group": "execution",
		},
		Long: `Action runs a single action. Parameters are given as repeated --param
key=value flags, or as a JSON array of parameter sets with --params-file.

Asset configuration comes from the config file and CODE42_* environment
variables; --cloud-instance and --username override them. Use
--prompt-password to type the password instead of storing it.

Run 'code42-connector actions' to list actions and their parameters.`,
		Example: `  code42-connector action test_connectivity
  code42-connector action add_departing_employee -p username=alice@example.com -p departure_date=2024-02-01
  code42-connector action search_alerts -p alert_state=OPEN --jq '.results[0].summary.total_count'
  code42-connector action get_alert_details --params-file alerts.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &connector.ActionRequest{
				Identifier:    args[0],
				AssetID:       assetID,
				CorrelationID: correlationID,
				Config:        map[string]interface{}{},
			}

			if paramsFile != "" {
				if len(params.values) > 0 {
					return shared.NewInvalidRequestError("--param and --params-file cannot be combined", nil)
				}
				sets, err := loadParamSets(cmd.InOrStdin(), paramsFile)
				if err != nil {
					return err
				}
				req.Parameters = sets
			} else if len(params.values) > 0 {
				req.Parameters = []map[string]interface{}{params.values}
			}

			if cloudInstance != "" {
				req.Config["cloud_instance"] = cloudInstance
			}
			if username != "" {
				req.Config["username"] = username
			}
			if promptPassword {
				password, err := shared.PromptPassword("Password")
				if err != nil {
					return err
				}
				req.Config["password"] = password
			}

			return execute(cmd, req, opts)
		},
	}

	cmd.Flags().VarP(&params, "param", "p", "Action parameter in key=value format (repeatable)")
	cmd.Flags().StringVar(&paramsFile, "params-file", "", "JSON array of parameter sets (use '-' for stdin)")
	cmd.Flags().StringVar(&assetID, "asset", "", "Asset id whose state is used (default: "+connector.DefaultAssetID+")")
	cmd.Flags().StringVar(&cloudInstance, "cloud-instance", "", "Code42 console host (env: CODE42_CLOUD_INSTANCE)")
	cmd.Flags().StringVar(&username, "username", "", "Code42 username (env: CODE42_USERNAME)")
	cmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "Prompt for the Code42 password")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Correlation id (UUID) for logs and spans (default: generated)")
	opts.register(cmd)

	return cmd
}
