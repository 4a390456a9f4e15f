// Package jq filters action results with jq expressions.
package jq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

// Limits applied when NewExecutor gets zero values.
const (
	DefaultTimeout      = time.Second
	DefaultMaxInputSize = 10 << 20
)

// Executor evaluates expressions under a time and input size budget.
type Executor struct {
	timeout      time.Duration
	maxInputSize int64
}

func NewExecutor(timeout time.Duration, maxInputSize int64) *Executor {
	e := &Executor{timeout: timeout, maxInputSize: maxInputSize}
	if e.timeout == 0 {
		e.timeout = DefaultTimeout
	}
	if e.maxInputSize == 0 {
		e.maxInputSize = DefaultMaxInputSize
	}
	return e
}

// Validate compiles expression without running it, so that a bad --jq
// flag fails before any Code42 call.
func (e *Executor) Validate(expression string) error {
	if expression == "" {
		return nil
	}
	if _, err := compile(expression); err != nil {
		return fmt.Errorf("invalid jq expression: %w", err)
	}
	return nil
}

// Execute applies expression to data, which may be any value encoding/json
// accepts. No output yields nil, one output is returned bare and several
// come back as a slice. An empty expression returns data unchanged.
func (e *Executor) Execute(ctx context.Context, expression string, data interface{}) (interface{}, error) {
	if expression == "" {
		return data, nil
	}
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}
	input, err := e.decode(data)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		values []interface{}
		err    error
	}
	done := make(chan result, 1)
	go func() {
		values, err := collect(code.RunWithContext(runCtx, input))
		done <- result{values, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-runCtx.Done():
		res.err = runCtx.Err()
	}

	switch {
	case res.err == nil:
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case runCtx.Err() != nil:
		return nil, fmt.Errorf("execution timeout after %v", e.timeout)
	default:
		return nil, res.err
	}

	switch len(res.values) {
	case 0:
		return nil, nil
	case 1:
		return res.values[0], nil
	}
	return res.values, nil
}

// collect drains iter. halt without a value ends the stream normally.
func collect(iter gojq.Iter) ([]interface{}, error) {
	var values []interface{}
	for {
		v, ok := iter.Next()
		if !ok {
			return values, nil
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return values, nil
			}
			return nil, err
		}
		values = append(values, v)
	}
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return code, nil
}

// decode converts data to the maps, slices and float64s gojq understands,
// rejecting encodings larger than maxInputSize.
func (e *Executor) decode(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	if n := int64(len(raw)); n > e.maxInputSize {
		return nil, fmt.Errorf("data size (%d bytes) exceeds maximum (%d bytes)", n, e.maxInputSize)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return v, nil
}
