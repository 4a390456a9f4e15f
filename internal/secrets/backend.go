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
	"context"
	"errors"
)

// Sentinel errors shared by every backend and the Resolver.
var (
	ErrSecretNotFound     = errors.New("secret not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrReadOnlyBackend    = errors.New("backend is read-only")
)

// SecretBackend is one place the Code42 password can live. The Resolver
// asks backends in descending Priority order, so an exported
// CODE42_SECRET_* variable (env, 100) wins over a keychain entry (50).
type SecretBackend interface {
	Name() string
	Available() bool
	Priority() int

	// Get returns ErrSecretNotFound for an unknown key.
	Get(ctx context.Context, key string) (string, error)

	// Set and Delete return ErrReadOnlyBackend on backends that cannot
	// store secrets.
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ReadOnlyBackend is implemented by backends that never accept writes.
// The Resolver skips them when choosing where to store a secret.
type ReadOnlyBackend interface {
	SecretBackend
	ReadOnly() bool
}
