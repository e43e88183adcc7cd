/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package item

import (
	"context"
	"fmt"
)

// Operation names a contract operation dispatched to a Handler.
type Operation string

const (
	OpTest  Operation = "test"
	OpApply Operation = "apply"
	OpState Operation = "state"
)

// Handler implements the item contract for a plugin-supplied type. The
// returned value must be a bool for OpTest, nil for OpApply, and a
// map[string]any for OpState. A handler that does not support an operation
// returns an error wrapping ErrNotImplemented.
type Handler func(ctx context.Context, op Operation, it Item) (any, error)

// HandlerItem adapts a plugin-supplied Handler to the item contract. The
// handler's result types are checked at dispatch so a misbehaving plugin
// fails loudly instead of corrupting batch results.
type HandlerItem struct {
	Base

	handler Handler
}

// NewHandlerItem creates an item whose contract operations are dispatched
// to handler. itemType is the plugin-registered type tag.
func NewHandlerItem(name string, itemType Type, handler Handler, opts ...BaseOption) *HandlerItem {
	return &HandlerItem{
		Base:    NewBase(name, itemType, opts...),
		handler: handler,
	}
}

// Test dispatches OpTest and checks the handler returned a bool.
func (h *HandlerItem) Test(ctx context.Context) (bool, error) {
	if h.handler == nil {
		return false, fmt.Errorf("%w: test on item %q (type %s)", ErrNotImplemented, h.Name(), h.Type())
	}
	result, err := h.handler(ctx, OpTest, h)
	if err != nil {
		return false, err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("handler for type %s returned %T from test, want bool", h.Type(), result)
	}
	return ok, nil
}

// Apply dispatches OpApply.
func (h *HandlerItem) Apply(ctx context.Context) error {
	if h.handler == nil {
		return fmt.Errorf("%w: apply on item %q (type %s)", ErrNotImplemented, h.Name(), h.Type())
	}
	_, err := h.handler(ctx, OpApply, h)
	return err
}

// CurrentState dispatches OpState. Handler failures and malformed results
// are surfaced under StateErrorKey, per the contract.
func (h *HandlerItem) CurrentState(ctx context.Context) map[string]any {
	base := map[string]any{
		"name": h.Name(),
		"type": h.Type().String(),
	}
	if h.handler == nil {
		base[StateErrorKey] = fmt.Sprintf("%v: state on item %q (type %s)", ErrNotImplemented, h.Name(), h.Type())
		return base
	}
	result, err := h.handler(ctx, OpState, h)
	if err != nil {
		base[StateErrorKey] = err.Error()
		return base
	}
	state, isMap := result.(map[string]any)
	if !isMap {
		base[StateErrorKey] = fmt.Sprintf("handler for type %s returned %T from state, want map", h.Type(), result)
		return base
	}
	for k, v := range base {
		if _, exists := state[k]; !exists {
			state[k] = v
		}
	}
	return state
}
