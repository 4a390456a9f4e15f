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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tombee/code42-connector/internal/commands/shared"
	"github.com/tombee/code42-connector/internal/connector"
	"github.com/tombee/code42-connector/internal/jq"
)

// RunResponse is the JSON envelope for run and action output.
type RunResponse struct {
	shared.JSONResponse
	*connector.RunResult
}

// render writes run in the selected output mode.
func render(ctx context.Context, w io.Writer, run *connector.RunResult, opts outputOptions) error {
	switch {
	case opts.jqExpr != "":
		return renderJQ(ctx, w, run, opts.jqExpr)
	case shared.Flags().JSON:
		return encodeJSON(w, RunResponse{
			JSONResponse: shared.JSONResponse{
				Version: "1.0",
				Command: run.Identifier,
				Success: run.Status == connector.StatusSuccess,
			},
			RunResult: run,
		})
	case shared.Flags().Quiet:
		if run.Status != connector.StatusSuccess {
			fmt.Fprintln(w, run.Message)
		}
		return nil
	default:
		renderText(w, run)
		return nil
	}
}

func renderJQ(ctx context.Context, w io.Writer, run *connector.RunResult, expr string) error {
	out, err := jq.NewExecutor(0, 0).Execute(ctx, expr, run)
	if err != nil {
		return shared.NewInvalidRequestError("jq expression failed", err)
	}
	if out == nil {
		return nil
	}
	if s, ok := out.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	return encodeJSON(w, out)
}

func renderText(w io.Writer, run *connector.RunResult) {
	header := fmt.Sprintf("%s %s", shared.RenderResultStatus(run.Status), shared.Bold.Render(run.Identifier))
	if run.AssetID != "" {
		header += " " + shared.RenderKeyValue("asset", run.AssetID)
	}
	fmt.Fprintln(w, header)
	if run.Message != "" {
		fmt.Fprintf(w, "  %s\n", run.Message)
	}

	for i, res := range run.Results {
		line := fmt.Sprintf("  %d. %s", i+1, shared.RenderResultStatus(res.Status))
		if res.Message != "" {
			line += " " + res.Message
		}
		fmt.Fprintln(w, line)
		for _, key := range sortedKeys(res.Summary) {
			fmt.Fprintf(w, "     %s\n", shared.RenderKeyValue(key, fmt.Sprint(res.Summary[key])))
		}
	}

	if run.CorrelationID != "" {
		fmt.Fprintln(w, shared.Muted.Render("correlation id: "+run.CorrelationID))
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatParams renders a parameter list for the actions table.
func formatParams(params []connector.ParamInfo) string {
	if len(params) == 0 {
		return shared.Muted.Render("(none)")
	}
	names := make([]string, 0, len(params))
	for _, p := range params {
		if p.Required {
			names = append(names, p.Name+"*")
		} else {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}
