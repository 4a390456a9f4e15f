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

package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/code42-connector/internal/commands/shared"
	"github.com/tombee/code42-connector/internal/secrets"
	c42errors "github.com/tombee/code42-connector/pkg/errors"
)

// newResolver is swapped by tests.
var newResolver = secrets.NewDefaultResolver

// NewCommand manages the secrets that "keychain:<key>" passwords point at.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage the Code42 password in the OS keychain",
		Long: `Store the Code42 password outside the asset config.

Set password: keychain:<key> in the config. The key is looked up in
CODE42_SECRET_<KEY> first and then in the OS keychain (macOS Keychain,
Linux Secret Service or Windows Credential Manager).`,
		Example: `  code42-connector secrets set code42/password
  echo "$PW" | code42-connector secrets set code42/password
  code42-connector secrets get code42/password --unmask
  code42-connector secrets delete code42/password --force`,
	}
	cmd.AddCommand(newSetCommand(), newGetCommand(), newDeleteCommand())
	return cmd
}

func newSetCommand() *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret from a hidden prompt or stdin",
		Args:  keyArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSecret(cmd, args[0], backend)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "Target backend (keychain)")
	return cmd
}

func newGetCommand() *cobra.Command {
	var unmask bool
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Show a secret, masked unless --unmask is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getSecret(cmd, args[0], unmask)
		},
	}
	cmd.Flags().BoolVar(&unmask, "unmask", false, "Print the full value")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	var (
		backend string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a secret after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteSecret(cmd, args[0], backend, force)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "Target backend (keychain)")
	cmd.Flags().BoolVar(&force, "force", false, "Do not ask for confirmation")
	return cmd
}

// keyArg requires one key in the slash-separated form config references use.
func keyArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	switch key := args[0]; {
	case key == "":
		return &c42errors.ValidationError{Field: "key", Message: "secret key cannot be empty"}
	case strings.Contains(key, " "):
		return &c42errors.ValidationError{Field: "key", Message: "secret key cannot contain spaces"}
	case strings.Contains(key, `\`):
		return &c42errors.ValidationError{Field: "key", Message: `secret key should use forward slashes (/), not backslashes (\)`}
	}
	return nil
}

func setSecret(cmd *cobra.Command, key, backend string) error {
	value, err := readValue(cmd)
	if err != nil {
		return err
	}
	if value == "" {
		return &c42errors.ValidationError{Field: "value", Message: "secret value cannot be empty"}
	}

	used, err := newResolver().Set(cmd.Context(), key, value, backend)
	switch {
	case errors.Is(err, secrets.ErrBackendUnavailable):
		return fmt.Errorf("%w\n\nUse --backend to pick another backend, export %s=<value>, or unlock the keychain", err, secrets.EnvVarName(key))
	case err != nil:
		return fmt.Errorf("failed to set secret: %w", err)
	}

	if shared.Flags().JSON {
		return shared.EmitJSON(newSecretResult("secrets set", key, used))
	}
	if !shared.Flags().Quiet {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, shared.RenderOK("Secret stored in "+used+" backend"))
		fmt.Fprintf(out, "Reference it in config as: password: keychain:%s\n", key)
	}
	return nil
}

func getSecret(cmd *cobra.Command, key string, unmask bool) error {
	value, err := newResolver().Get(cmd.Context(), key)
	switch {
	case errors.Is(err, secrets.ErrSecretNotFound):
		return &c42errors.NotFoundError{Resource: "Secret", ID: key}
	case err != nil:
		return fmt.Errorf("failed to get secret: %w", err)
	}
	if !unmask {
		value = maskSecret(value)
	}

	if shared.Flags().JSON {
		res := newSecretResult("secrets get", key, "")
		res.Value, res.Masked = value, !unmask
		return shared.EmitJSON(res)
	}
	if unmask {
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), value, shared.Muted.Render("(use --unmask to show full value)"))
	return nil
}

func deleteSecret(cmd *cobra.Command, key, backend string, force bool) error {
	if !force {
		ok, err := confirm(cmd, fmt.Sprintf("Delete secret %q? [y/N]: ", key))
		if err != nil || !ok {
			return err
		}
	}

	err := newResolver().Delete(cmd.Context(), key, backend)
	switch {
	case errors.Is(err, secrets.ErrSecretNotFound):
		return &c42errors.NotFoundError{Resource: "Secret", ID: key}
	case errors.Is(err, secrets.ErrReadOnlyBackend):
		return fmt.Errorf("cannot delete %s from a read-only backend; unset %s instead", key, secrets.EnvVarName(key))
	case err != nil:
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	if shared.Flags().JSON {
		return shared.EmitJSON(newSecretResult("secrets delete", key, backend))
	}
	if !shared.Flags().Quiet {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("Secret %q deleted", key)))
	}
	return nil
}

// confirm asks on stdout and reads one line of stdin. It refuses to ask
// when nobody can answer.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if shared.IsNonInteractive() {
		return false, shared.NewNonInteractiveError("deletion requires confirmation; use --force in non-interactive mode")
	}
	fmt.Fprint(cmd.OutOrStdout(), question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Deletion canceled")
	return false, nil
}

type secretResult struct {
	shared.JSONResponse
	Key     string `json:"key"`
	Backend string `json:"backend,omitempty"`
	Value   string `json:"value,omitempty"`
	Masked  bool   `json:"masked,omitempty"`
}

func newSecretResult(command, key, backend string) *secretResult {
	return &secretResult{
		JSONResponse: shared.JSONResponse{Version: "1.0", Command: command, Success: true},
		Key:          key,
		Backend:      backend,
	}
}

// readValue takes the secret from a hidden terminal prompt, or from the
// whole of stdin when it is piped.
func readValue(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Enter secret value (hidden): ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read secret value: %w", err)
		}
		return string(raw), nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read secret value: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// maskSecret keeps the first and last four characters of values longer
// than eight.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
