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

import "errors"

// UserVisibleError defines errors that should be displayed to end users
// with user-friendly messages and actionable suggestions.
type UserVisibleError interface {
	error

	// IsUserVisible returns true if this error should be shown to users.
	IsUserVisible() bool

	// UserMessage returns a user-friendly error message.
	UserMessage() string

	// Suggestion returns actionable guidance for resolving the error.
	// Returns empty string if no suggestion is available.
	Suggestion() string
}

// ErrorClassifier defines methods for programmatic error handling.
// Transport errors implement it so callers can label failures by type.
type ErrorClassifier interface {
	error

	// ErrorType returns a string identifying the error category.
	// Examples: "auth", "rate_limit", "timeout", "server"
	ErrorType() string

	// IsRetryable returns true if the operation should be retried.
	IsRetryable() bool
}

// Classify returns the category of err for metrics and logs: the
// ErrorType of the first ErrorClassifier in the chain, "validation" or
// "not_found" for those types, and "other" otherwise.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorType()
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return "validation"
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return "not_found"
	}

	return "other"
}
