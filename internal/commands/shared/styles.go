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
	"github.com/charmbracelet/lipgloss"

	"github.com/tombee/code42-connector/internal/connector"
)

// Styles for command output.
var (
	Muted  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	Bold   = lipgloss.NewStyle().Bold(true)
	Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	success = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failure = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// SymbolProgress prefixes progress lines in verbose output.
const SymbolProgress = "•"

// RenderOK prefixes msg with a green check mark.
func RenderOK(msg string) string {
	return success.Render("✓") + " " + msg
}

// RenderResultStatus renders a result status as [OK] or [FAIL].
func RenderResultStatus(status connector.Status) string {
	if status == connector.StatusSuccess {
		return success.Render("[OK]")
	}
	return failure.Render("[FAIL]")
}

// RenderKeyValue renders "key: value" with a muted key.
func RenderKeyValue(key, value string) string {
	return Muted.Render(key+":") + " " + value
}
