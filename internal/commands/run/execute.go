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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/code42-connector/internal/commands/shared"
	"github.com/tombee/code42-connector/internal/connector"
	"github.com/tombee/code42-connector/internal/jq"
)

// outputOptions are the output flags shared by run and action.
type outputOptions struct {
	jqExpr     string
	outputFile string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.jqExpr, "jq", "", "jq expression applied to the run result")
	cmd.Flags().StringVarP(&o.outputFile, "output", "o", "", "Write the run result as JSON to a file")
}

// execute runs req through a fresh runtime, renders the result and maps
// failed runs to exit codes.
func execute(cmd *cobra.Command, req *connector.ActionRequest, opts outputOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.jqExpr != "" {
		if err := jq.NewExecutor(0, 0).Validate(opts.jqExpr); err != nil {
			return shared.NewInvalidRequestError("invalid --jq expression", err)
		}
	}

	errOut := cmd.ErrOrStderr()
	rt, err := shared.NewRuntime(ctx, shared.RuntimeOptions{
		Progress:  progressPrinter(errOut, opts),
		LogOutput: errOut,
	})
	if err != nil {
		return err
	}

	run := rt.Connector.Run(ctx, req)

	if err := rt.Close(ctx); err != nil {
		rt.Logger.Warn("failed to close runtime", "error", err)
	}

	if opts.outputFile != "" {
		if err := writeResultFile(opts.outputFile, run); err != nil {
			return err
		}
	}

	if err := render(ctx, cmd.OutOrStdout(), run, opts); err != nil {
		return err
	}

	switch shared.ExitCodeForRun(run) {
	case shared.ExitSuccess:
		return nil
	case shared.ExitConfigError:
		// the message was already rendered; exit silently with the code
		return &shared.ExitError{Code: shared.ExitConfigError}
	default:
		return shared.NewActionFailedError("")
	}
}

// progressPrinter echoes progress messages to stderr in verbose text mode.
func progressPrinter(w io.Writer, opts outputOptions) func(string) {
	if !shared.Flags().Verbose || shared.Flags().JSON || opts.jqExpr != "" {
		return nil
	}
	return func(msg string) {
		fmt.Fprintln(w, shared.Muted.Render(shared.SymbolProgress+" "+msg))
	}
}

func writeResultFile(path string, run *connector.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := encodeJSON(f, run); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
