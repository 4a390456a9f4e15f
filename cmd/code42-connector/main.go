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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tombee/code42-connector/internal/cli"
	"github.com/tombee/code42-connector/internal/commands/run"
	"github.com/tombee/code42-connector/internal/commands/secrets"
	statecmd "github.com/tombee/code42-connector/internal/commands/state"
	versioncmd "github.com/tombee/code42-connector/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set version information from build-time ldflags
	cli.SetVersion(version, commit, buildDate)

	// Create root command and add subcommands
	rootCmd := cli.NewRootCommand()

	// Action commands
	rootCmd.AddCommand(run.NewCommand())
	rootCmd.AddCommand(run.NewActionCommand())
	rootCmd.AddCommand(run.NewActionsCommand())

	// State and secrets
	rootCmd.AddCommand(statecmd.NewCommand())
	rootCmd.AddCommand(secrets.NewCommand())

	// Version command
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	// Custom help command with JSON support
	rootCmd.SetHelpCommand(cli.NewHelpCommand(rootCmd))

	// Cancel in-flight Code42 requests on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	stop()

	if err != nil {
		cli.HandleExitError(cmd, err)
	}
}
