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
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ciMarkers are variables set by CI runners. A marker counts when its value
// is "true" or "1"; pathMarkers count whenever they are non-empty.
var (
	ciMarkers   = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI"}
	pathMarkers = []string{"JENKINS_HOME"}
)

// IsNonInteractive reports whether prompting is impossible or unwanted:
// CODE42_NON_INTERACTIVE=true, a CI runner, or a stdin that is not a TTY.
func IsNonInteractive() bool {
	return os.Getenv("CODE42_NON_INTERACTIVE") == "true" || isCIEnvironment() || !isTerminal()
}

func isCIEnvironment() bool {
	for _, name := range ciMarkers {
		if v := os.Getenv(name); v == "true" || v == "1" {
			return true
		}
	}
	for _, name := range pathMarkers {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptPassword reads a value from the terminal with echo off. Without a
// terminal it returns an ExitNonInteractive error instead of blocking.
func PromptPassword(label string) (string, error) {
	name := strings.ToLower(label)
	if IsNonInteractive() {
		return "", NewNonInteractiveError(name + " is required and cannot be prompted for in non-interactive mode")
	}

	fmt.Fprint(os.Stderr, label+": ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(raw), nil
}
