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

/*
Package connector runs Code42 actions on behalf of a security-automation host.

A run receives an action request, loads the asset's opaque state, executes
the named action once per parameter set and saves the state back.

# Actions

  - test_connectivity: fetch the current user to check credentials
  - add_departing_employee: resolve a username, add it to the departing employee list, optionally set a note
  - remove_departing_employee: resolve a username, remove it from the departing employee list
  - get_alert_details: fetch one alert and summarise its actor
  - search_alerts: search alerts by actor, date range and state

# Usage

	conn := connector.New(connector.Options{Config: cfg, Store: store})
	result := conn.Run(ctx, &connector.ActionRequest{
	    Identifier: "search_alerts",
	    AssetID:    "code42-prod",
	    Parameters: []map[string]interface{}{{"username": "alice@example.com"}},
	})

Each parameter set produces one ActionResult. Handler errors never escape
Run; they are reported as failed results with a "Code42:" prefixed message.

# Metrics

When Options.Metrics is set, Prometheus metrics are recorded:

  - code42_connector_actions_total{action,status}
  - code42_connector_action_duration_seconds{action}
  - code42_connector_errors_total{action,error_type}
*/
package connector
