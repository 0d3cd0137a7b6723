// Package bridge is the single capability object the session store talks to.
// A Live bridge forwards commands and events to the backend daemon; a Null
// bridge stands in when no managed runtime is present so callers never need
// their own presence checks.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnavailable is returned by every Invoke on a Null bridge.
var ErrUnavailable = errors.New("managed runtime not available")

type Handler func(payload json.RawMessage)

type Bridge interface {
	Live() bool
	Invoke(ctx context.Context, command string, args interface{}, out interface{}) error
	// Subscribe registers a handler for a named event and returns its unsubscribe func.
	Subscribe(event string, handler Handler) func()
	Close() error
}

type Null struct{}

func (Null) Live() bool { return false }

func (Null) Invoke(ctx context.Context, command string, args interface{}, out interface{}) error {
	return ErrUnavailable
}

func (Null) Subscribe(event string, handler Handler) func() { return func() {} }

func (Null) Close() error { return nil }

var _ Bridge = Null{}
