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
	"encoding/json"
	"errors"
	"io"
	"os"

	c42errors "github.com/tombee/code42-connector/pkg/errors"
)

// JSONResponse opens every --json document.
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// JSONError is one entry of a failed command's "errors" array.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Field      string `json:"field,omitempty"`
}

type errorResponse struct {
	JSONResponse
	Errors []JSONError `json:"errors"`
}

// output receives JSON documents; tests swap it.
var output io.Writer = os.Stdout

// EmitJSON writes v as one indented document.
func EmitJSON(v interface{}) error {
	enc := json.NewEncoder(output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// EmitJSONError writes the failure envelope for command.
func EmitJSONError(command string, errs ...JSONError) error {
	return EmitJSON(errorResponse{
		JSONResponse: JSONResponse{Version: "1.0", Command: command},
		Errors:       errs,
	})
}

// ToJSONError classifies err. Validation and config errors name the
// offending field, and user-visible errors carry their suggestion.
func ToJSONError(err error) JSONError {
	je := JSONError{Code: ErrorCodeInternal, Message: err.Error()}

	var (
		validation *c42errors.ValidationError
		cfgErr     *c42errors.ConfigError
		notFound   *c42errors.NotFoundError
		exitErr    *ExitError
	)
	switch {
	case errors.As(err, &validation):
		je.Code, je.Field = ErrorCodeInvalidParam, validation.Field
	case errors.As(err, &cfgErr):
		je.Code, je.Field = ErrorCodeInvalidConfig, cfgErr.Key
	case errors.As(err, &notFound):
		je.Code = ErrorCodeNotFound
	case errors.As(err, &exitErr):
		je.Code = mapExitErrorToCode(exitErr)
	}

	var visible c42errors.UserVisibleError
	if errors.As(err, &visible) && visible.IsUserVisible() {
		je.Suggestion = visible.Suggestion()
	}
	return je
}

// SetOutputForTest redirects JSON output until the returned func is called.
func SetOutputForTest(w io.Writer) func() {
	prev := output
	output = w
	return func() { output = prev }
}
