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

/*
Package secrets resolves credential references used in asset configuration.

A password in the config may be given literally or as a reference:

	env:CODE42_PASSWORD     - environment variable
	${CODE42_PASSWORD}      - environment variable
	keychain:code42/admin   - OS keychain entry (service "code42-connector")

Keychain references are resolved through a priority-ordered chain of
backends, so CODE42_SECRET_<KEY> in the environment overrides a keychain
entry without touching it:

	resolver := secrets.NewResolver(
	    secrets.NewEnvBackend(),
	    secrets.NewKeychainBackend(),
	)
	password, err := resolver.Resolve(ctx, cfg.Password)

Secret values are never logged.
*/
package secrets
