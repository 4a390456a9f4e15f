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
Package cli builds the code42-connector root command, the JSON-aware help
command and the process exit path.

	code42-connector
	├── run       run an action request read from a file or stdin
	├── action    run one action built from flags
	├── actions   list the actions and their parameters
	├── state     show or clear asset state
	├── secrets   keep the Code42 password in the OS keychain
	├── version
	└── help      commands, or an action's parameters with help <action>

Every command accepts --verbose, --quiet, --json and --config. Exit codes
are 0 on success, 1 when a result failed, 2 for a bad request, 3 for a
configuration error and 70 when a prompt was needed without a terminal.
With --json, failures are written to stdout as an envelope with an
"errors" array.
*/
package cli
