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

package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/code42-connector/internal/commands/shared"
	"github.com/tombee/code42-connector/internal/connector"
	"github.com/tombee/code42-connector/internal/state"
)

// StateResponse is the JSON response for state show.
type StateResponse struct {
	shared.JSONResponse
	AssetID string      `json:"asset_id"`
	Backend string      `json:"backend"`
	State   state.State `json:"state"`
}

// NewCommand creates the state command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear persisted asset state",
		Long: `The connector keeps an opaque state blob per asset between runs.
The backend is selected by state.backend in the config (file, sqlite or memory).`,
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newClearCommand())

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [asset-id]",
		Short: "Print the state of an asset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID := assetArg(args)
			return withStore(func(store state.Store, backend string) error {
				st, err := store.Load(context.Background(), assetID)
				if err != nil {
					return fmt.Errorf("failed to load state for asset %s: %w", assetID, err)
				}

				if shared.Flags().JSON {
					return shared.EmitJSON(StateResponse{
						JSONResponse: shared.JSONResponse{Version: "1.0", Command: "state show", Success: true},
						AssetID:      assetID,
						Backend:      backend,
						State:        st,
					})
				}

				data, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode state: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			})
		},
	}
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [asset-id]",
		Short: "Delete the state of an asset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID := assetArg(args)
			return withStore(func(store state.Store, backend string) error {
				if err := store.Delete(context.Background(), assetID); err != nil {
					return fmt.Errorf("failed to clear state for asset %s: %w", assetID, err)
				}

				if shared.Flags().JSON {
					return shared.EmitJSON(StateResponse{
						JSONResponse: shared.JSONResponse{Version: "1.0", Command: "state clear", Success: true},
						AssetID:      assetID,
						Backend:      backend,
					})
				}
				if !shared.Flags().Quiet {
					fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("State cleared for asset %s", assetID)))
				}
				return nil
			})
		},
	}
}

func assetArg(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return connector.DefaultAssetID
	}
	return args[0]
}

// withStore opens the configured store for the duration of fn.
func withStore(fn func(store state.Store, backend string) error) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}

	store, err := state.Open(state.Config{Backend: cfg.State.Backend, Path: cfg.State.Path})
	if err != nil {
		return shared.NewConfigError("failed to open state store", err)
	}
	defer store.Close()

	return fn(store, cfg.State.Backend)
}
