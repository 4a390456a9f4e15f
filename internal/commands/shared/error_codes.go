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

package shared

// Error codes for structured JSON output
const (
	// Request errors (E001-E099)
	ErrorCodeInvalidRequest = "E001" // Unreadable or malformed action request
	ErrorCodeInvalidParam   = "E002" // Malformed --param value or secret key

	// Action errors (E100-E199)
	ErrorCodeActionFailed = "E101" // At least one action result failed

	// Configuration errors (E200-E299)
	ErrorCodeInvalidConfig  = "E201" // Invalid or missing asset configuration
	ErrorCodePromptRequired = "E202" // Password prompt needed in non-interactive mode

	// Resource errors (E400-E499)
	ErrorCodeNotFound = "E401" // Secret or state not found
	ErrorCodeInternal = "E402" // Internal error
)

// mapExitErrorToCode maps ExitError codes to JSON error codes
func mapExitErrorToCode(exitErr *ExitError) string {
	if exitErr == nil {
		return ""
	}

	switch exitErr.Code {
	case ExitInvalidRequest:
		return ErrorCodeInvalidRequest
	case ExitConfigError:
		return ErrorCodeInvalidConfig
	case ExitNonInteractive:
		return ErrorCodePromptRequired
	case ExitActionFailed:
		return ErrorCodeActionFailed
	default:
		return ErrorCodeInternal
	}
}
