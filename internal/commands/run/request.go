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

package run

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tombee/code42-connector/internal/commands/shared"
	"github.com/tombee/code42-connector/internal/connector"
)

// loadRequest reads an action request from path, or from in when path is "-".
func loadRequest(in io.Reader, path string) (*connector.ActionRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, shared.NewInvalidRequestError("failed to read request", err)
	}

	var req connector.ActionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, shared.NewInvalidRequestError("failed to parse request", err)
	}
	if req.ActionIdentifier() == "" {
		return nil, shared.NewInvalidRequestError("request has no action identifier", nil)
	}
	return &req, nil
}

// paramFlag collects repeated --param key=value flags into one parameter set.
type paramFlag struct {
	values map[string]interface{}
}

func (p *paramFlag) String() string {
	if p == nil || len(p.values) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(p.values))
	for k, v := range p.values {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(pairs, ",")
}

func (p *paramFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("invalid parameter %q: expected key=value", value)
	}
	if p.values == nil {
		p.values = make(map[string]interface{})
	}
	p.values[key] = val
	return nil
}

func (p *paramFlag) Type() string {
	return "key=value"
}

// loadParamSets reads a JSON array of parameter sets.
func loadParamSets(in io.Reader, path string) ([]map[string]interface{}, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, shared.NewInvalidRequestError("failed to read parameters", err)
	}

	var sets []map[string]interface{}
	if err := json.Unmarshal(data, &sets); err != nil {
		return nil, shared.NewInvalidRequestError("parameters must be a JSON array of objects", err)
	}
	return sets, nil
}
