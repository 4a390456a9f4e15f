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

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/code42-connector/internal/connector"
	c42errors "github.com/tombee/code42-connector/pkg/errors"
)

// Process exit codes.
const (
	ExitSuccess        = 0
	ExitActionFailed   = 1  // the action ran and at least one result failed
	ExitInvalidRequest = 2  // unreadable request or bad flags
	ExitConfigError    = 3  // missing or invalid asset configuration
	ExitNonInteractive = 70 // EX_SOFTWARE: a prompt was needed without a terminal
)

// ExitError makes a command exit with Code. An empty Message means the
// command already reported the failure itself.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ExitError) Unwrap() error { return e.Cause }

func NewActionFailedError(msg string) *ExitError {
	return &ExitError{Code: ExitActionFailed, Message: msg}
}

func NewInvalidRequestError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitInvalidRequest, Message: msg, Cause: cause}
}

func NewConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitConfigError, Message: msg, Cause: cause}
}

func NewNonInteractiveError(msg string) *ExitError {
	return &ExitError{Code: ExitNonInteractive, Message: msg}
}

// ExitCodeForRun is ExitConfigError when no result was produced, which
// means initialization failed before any parameter set ran.
func ExitCodeForRun(result *connector.RunResult) int {
	switch {
	case result.Status == connector.StatusSuccess:
		return ExitSuccess
	case len(result.Results) == 0:
		return ExitConfigError
	}
	return ExitActionFailed
}

// HandleExitError reports err for command and exits. In --json mode the
// report is an error envelope on stdout instead of text on stderr.
func HandleExitError(command string, err error) {
	if err == nil {
		return
	}
	os.Exit(reportError(os.Stderr, command, err))
}

func reportError(w io.Writer, command string, err error) int {
	code := ExitActionFailed
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}

	if err.Error() == "" {
		return code
	}
	if Flags().JSON {
		if jerr := EmitJSONError(command, ToJSONError(err)); jerr == nil {
			return code
		}
	}
	fmt.Fprintln(w, "Error:", err)
	printUserVisibleSuggestion(w, err)
	return code
}

func printUserVisibleSuggestion(w io.Writer, err error) {
	var visible c42errors.UserVisibleError
	if !errors.As(err, &visible) || !visible.IsUserVisible() {
		return
	}
	if s := visible.Suggestion(); s != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", s)
	}
}
