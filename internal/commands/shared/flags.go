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

import "github.com/spf13/pflag"

// GlobalFlags are the root command's persistent flags.
type GlobalFlags struct {
	Verbose    bool
	Quiet      bool
	JSON       bool
	ConfigPath string
}

var (
	global GlobalFlags

	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// BindGlobalFlags registers the persistent flags on fs.
func BindGlobalFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&global.Verbose, "verbose", "v", false, "Log debug output and show action progress")
	fs.BoolVarP(&global.Quiet, "quiet", "q", false, "Only print errors")
	fs.BoolVar(&global.JSON, "json", false, "Output in JSON format")
	fs.StringVar(&global.ConfigPath, "config", "", "Path to config file (default: ~/.config/code42-connector/config.yaml)")
}

// Flags returns the parsed global flags.
func Flags() GlobalFlags {
	return global
}

// SetVersion records build metadata injected by ldflags.
func SetVersion(v, c, b string) {
	version, commit, buildDate = v, c, b
}

// GetVersion returns version, commit and build date.
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// UserAgent identifies this build on outbound Code42 requests.
func UserAgent() string {
	return "code42-connector/" + version
}

// SetJSONForTest switches JSON output on or off.
func SetJSONForTest(on bool) {
	global.JSON = on
}

// SetConfigPathForTest points config loading at path.
func SetConfigPathForTest(path string) {
	global.ConfigPath = path
}

// ResetFlagsForTest restores every global flag to its zero value.
func ResetFlagsForTest() {
	global = GlobalFlags{}
}
