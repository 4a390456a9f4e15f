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
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeychainService namespaces connector entries in the OS keychain.
	KeychainService = "code42-connector"

	KeychainBackendPriority = 50

	// availabilityKey is looked up once to detect a locked or missing keychain.
	availabilityKey = "__code42_availability_test__"
)

// lockedMarkers appear in go-keyring errors when a keychain exists but
// cannot be used right now.
var lockedMarkers = []string{
	"locked",
	"cannot access",
	"permission denied",
	"failed to unlock",
	"user interaction required",
	"secret service",
	"dbus",
	"user canceled",
}

// KeychainBackend stores Code42 credentials in the OS keychain: Keychain
// on macOS, the Secret Service on Linux, Credential Manager on Windows.
type KeychainBackend struct {
	service   string
	available bool
}

// NewKeychainBackend reads the keychain once and reports it unavailable
// when that read fails for any reason other than a missing key.
func NewKeychainBackend() *KeychainBackend {
	_, err := keyring.Get(KeychainService, availabilityKey)
	return &KeychainBackend{
		service:   KeychainService,
		available: err == nil || errors.Is(err, keyring.ErrNotFound),
	}
}

func (k *KeychainBackend) Name() string    { return "keychain" }
func (k *KeychainBackend) Available() bool { return k.available }
func (k *KeychainBackend) Priority() int   { return KeychainBackendPriority }

// Get implements SecretBackend.
func (k *KeychainBackend) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := k.call(key, func() (err error) {
		value, err = keyring.Get(k.service, key)
		return err
	})
	return value, err
}

// Set implements SecretBackend.
func (k *KeychainBackend) Set(ctx context.Context, key, value string) error {
	return k.call(key, func() error { return keyring.Set(k.service, key, value) })
}

// Delete implements SecretBackend.
func (k *KeychainBackend) Delete(ctx context.Context, key string) error {
	return k.call(key, func() error { return keyring.Delete(k.service, key) })
}

// call runs op against the keychain and maps go-keyring errors onto the
// package sentinels.
func (k *KeychainBackend) call(key string, op func() error) error {
	if !k.available {
		return fmt.Errorf("%w: keychain service unavailable", ErrBackendUnavailable)
	}

	err := op()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	case keychainLocked(err):
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return fmt.Errorf("keychain error: %w", err)
}

func keychainLocked(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range lockedMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
