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

package errors

import (
	"fmt"
)

// ValidationError represents invalid action parameters or request input.
type ValidationError struct {
	// Field identifies which parameter failed validation
	Field string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface. The bare message is returned so
// it can be shown verbatim in an action result.
func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError represents a Code42 resource that does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "User", "Alert")
	Resource string

	// ID is the identifier that was not found
	ID string

	// Reason replaces the default "not found" wording when set
	Reason string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "not found"
	}
	return fmt.Sprintf("%s '%s' %s", e.Resource, e.ID, reason)
}

// ConfigError represents asset or CLI configuration problems.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "cloud_instance", "state.backend")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *ConfigError) IsUserVisible() bool {
	return true
}

// UserMessage implements UserVisibleError.
func (e *ConfigError) UserMessage() string {
	return e.Error()
}

// Suggestion implements UserVisibleError.
func (e *ConfigError) Suggestion() string {
	if e.Key == "" {
		return ""
	}
	return fmt.Sprintf("Set %s in the config file, the request config, or the %s environment variable", e.Key, EnvVarFor(e.Key))
}

// EnvVarFor returns the environment variable that overrides a config key,
// e.g. "state.backend" -> "CODE42_STATE_BACKEND".
func EnvVarFor(key string) string {
	out := make([]byte, 0, len(key)+7)
	out = append(out, "CODE42_"...)
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
		case c == '.' || c == '-':
			c = '_'
		}
		out = append(out, c)
	}
	return string(out)
}
