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
	"fmt"
	"os"
	"strings"
)

// EnvBackendPriority puts environment overrides ahead of the keychain.
const EnvBackendPriority = 100

var envKeyReplacer = strings.NewReplacer("/", "_", "-", "_", ".", "_")

// EnvBackend reads secrets from the process environment. A key resolves to
// EnvVarName(key) first and then to the variable literally named key.
// Empty values count as unset.
type EnvBackend struct {
	lookup func(string) (string, bool)
}

func NewEnvBackend() *EnvBackend {
	return &EnvBackend{lookup: os.LookupEnv}
}

func (e *EnvBackend) Name() string { return "env" }
func (e *EnvBackend) Available() bool { return true }
func (e *EnvBackend) Priority() int { return EnvBackendPriority }
func (e *EnvBackend) ReadOnly() bool { return true }

func (e *EnvBackend) Get(ctx context.Context, key string) (string, error) {
	for _, name := range []string{EnvVarName(key), key} {
		if v, ok := e.lookup(name); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: neither %s nor %s is set", ErrSecretNotFound, EnvVarName(key), key)
}

func (e *EnvBackend) Set(ctx context.Context, key, value string) error {
	return ErrReadOnlyBackend
}

func (e *EnvBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnlyBackend
}

// EnvVarName maps a secret key to its override variable, so
// "code42/admin-password" becomes CODE42_SECRET_CODE42_ADMIN_PASSWORD.
func EnvVarName(key string) string {
	return "CODE42_SECRET_" + strings.ToUpper(envKeyReplacer.Replace(key))
}
