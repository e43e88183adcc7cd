// Package item defines the declarative configuration item contract: a named
// unit of desired system state that can be tested for compliance, applied
// idempotently, and inspected. Built-in variants cover packages, settings
// store values, services, and optional OS features; plugin-supplied types
// are adapted through HandlerItem.
package item
