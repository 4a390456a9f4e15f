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

// Package tracing provides correlation IDs and OpenTelemetry spans for
// connector runs and the Code42 API calls they make.
package tracing

import (
	"context"

	"github.com/google/uuid"
)

// HeaderCorrelationID is sent on every outbound Code42 request.
const HeaderCorrelationID = "X-Correlation-ID"

// CorrelationID ties one connector run to its log lines, spans and
// requests. Valid IDs are 36-character RFC 4122 UUIDs.
type CorrelationID string

type correlationKey struct{}

func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.NewString())
}

func (c CorrelationID) String() string {
	return string(c)
}

// IsValid accepts only the hyphenated form; uuid.Parse alone would also
// take URN and braced spellings.
func (c CorrelationID) IsValid() bool {
	if len(c) != 36 {
		return false
	}
	_, err := uuid.Parse(string(c))
	return err == nil
}

func ToContext(ctx context.Context, id CorrelationID) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// FromContext returns the ID stored by ToContext, or "" when there is none.
func FromContext(ctx context.Context) CorrelationID {
	id, _ := ctx.Value(correlationKey{}).(CorrelationID)
	return id
}

// Ensure guarantees ctx carries a valid ID. An ID already in ctx wins,
// then candidate, then a fresh one.
func Ensure(ctx context.Context, candidate string) (context.Context, CorrelationID) {
	if id := FromContext(ctx); id.IsValid() {
		return ctx, id
	}
	id := CorrelationID(candidate)
	if !id.IsValid() {
		id = NewCorrelationID()
	}
	return ToContext(ctx, id), id
}
