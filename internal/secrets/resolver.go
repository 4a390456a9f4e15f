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
	"fmt"
	"sort"
	"strings"
)

// Resolver looks secrets up across backends, highest priority first.
type Resolver struct {
	backends []SecretBackend
}

// NewResolver keeps the available backends and orders them by priority.
// Backends with equal priority keep their argument order.
func NewResolver(backends ...SecretBackend) *Resolver {
	r := &Resolver{}
	for _, b := range backends {
		if b.Available() {
			r.backends = append(r.backends, b)
		}
	}
	sort.SliceStable(r.backends, func(i, j int) bool {
		return r.backends[i].Priority() > r.backends[j].Priority()
	})
	return r
}

// NewDefaultResolver chains CODE42_SECRET_* variables ahead of the OS keychain.
func NewDefaultResolver() *Resolver {
	return NewResolver(NewEnvBackend(), NewKeychainBackend())
}

// Backends returns the available backends in lookup order.
func (r *Resolver) Backends() []SecretBackend {
	return r.backends
}

// Get returns the first value found. A backend failure other than
// ErrSecretNotFound is reported if no backend has the key.
func (r *Resolver) Get(ctx context.Context, key string) (string, error) {
	if len(r.backends) == 0 {
		return "", fmt.Errorf("%w: no available backends", ErrBackendUnavailable)
	}

	var failure error
	for _, b := range r.backends {
		v, err := b.Get(ctx, key)
		switch {
		case err == nil:
			return v, nil
		case !errors.Is(err, ErrSecretNotFound):
			failure = fmt.Errorf("%s: %w", b.Name(), err)
		}
	}
	if failure != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", key, failure)
	}
	return "", fmt.Errorf("%w: %q", ErrSecretNotFound, key)
}

// Set writes to the named backend, or to the first writable one when
// backendName is empty, and returns the backend used.
func (r *Resolver) Set(ctx context.Context, key, value, backendName string) (string, error) {
	b, err := r.writable(backendName)
	if err != nil {
		return "", err
	}
	if err := b.Set(ctx, key, value); err != nil {
		return "", fmt.Errorf("failed to set secret in %s: %w", b.Name(), err)
	}
	return b.Name(), nil
}

// Delete removes key using the same backend choice as Set.
func (r *Resolver) Delete(ctx context.Context, key, backendName string) error {
	b, err := r.writable(backendName)
	if err != nil {
		return err
	}
	if err := b.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete secret from %s: %w", b.Name(), err)
	}
	return nil
}

func (r *Resolver) writable(backendName string) (SecretBackend, error) {
	if backendName != "" {
		b, ok := r.named(backendName)
		switch {
		case !ok:
			return nil, fmt.Errorf("backend %q not found or unavailable", backendName)
		case readOnly(b):
			return nil, fmt.Errorf("%s: %w", backendName, ErrReadOnlyBackend)
		}
		return b, nil
	}

	for _, b := range r.backends {
		if !readOnly(b) {
			return b, nil
		}
	}
	if len(r.backends) == 0 {
		return nil, fmt.Errorf("%w: no available backends", ErrBackendUnavailable)
	}
	return nil, errors.New("no writable backend available")
}

func (r *Resolver) named(name string) (SecretBackend, bool) {
	for _, b := range r.backends {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

func readOnly(b SecretBackend) bool {
	ro, ok := b.(ReadOnlyBackend)
	return ok && ro.ReadOnly()
}

// Resolve expands a config value that references a secret. Other values
// are returned as is.
//
//	env:NAME       environment variable NAME
//	${NAME}        environment variable NAME
//	keychain:KEY   KEY from the backend chain, so CODE42_SECRET_KEY still wins
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	fromEnv, key, ok := parseReference(value)
	if !ok {
		return value, nil
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("invalid secret reference %q: empty key", value)
	}

	var (
		secret string
		err    error
	)
	if fromEnv {
		b, found := r.named("env")
		if !found {
			return "", fmt.Errorf("failed to resolve %q: %w: env", value, ErrBackendUnavailable)
		}
		secret, err = b.Get(ctx, key)
	} else {
		secret, err = r.Get(ctx, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", value, err)
	}
	return secret, nil
}

// parseReference splits value into its key and whether it names an
// environment variable rather than a keychain entry.
func parseReference(value string) (fromEnv bool, key string, ok bool) {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") && len(value) > 3 {
		return true, value[2 : len(value)-1], true
	}
	if key, found := strings.CutPrefix(value, "env:"); found {
		return true, key, true
	}
	if key, found := strings.CutPrefix(value, "keychain:"); found {
		return false, key, true
	}
	return false, "", false
}
