/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albedosehen/dotwin/pkg/defaults"
	"github.com/albedosehen/dotwin/pkg/item"
)

// ErrNilItem is returned when a nil item is added to an aggregate.
var ErrNilItem = errors.New("aggregate rejects nil items")

// errCriticalAbort cancels the remaining batch when a critical item fails.
var errCriticalAbort = errors.New("critical item failed")

// Aggregate is an ordered collection of configuration items converged as a
// unit. Items keep their insertion order; disabled items stay in the
// collection but are skipped by batch operations.
type Aggregate struct {
	name       string
	version    string
	metadata   map[string]string
	createdAt  time.Time
	modifiedAt time.Time
	items      []item.Item
}

// Option is a functional option for configuring an Aggregate.
type Option func(*Aggregate)

// WithVersion sets the aggregate's declared version.
func WithVersion(v string) Option {
	return func(a *Aggregate) {
		a.version = v
	}
}

// WithMetadata seeds the aggregate metadata.
func WithMetadata(md map[string]string) Option {
	return func(a *Aggregate) {
		for k, v := range md {
			a.metadata[k] = v
		}
	}
}

// New creates an empty aggregate.
func New(name string, opts ...Option) *Aggregate {
	now := time.Now().UTC()
	a := &Aggregate{
		name:       name,
		metadata:   make(map[string]string),
		createdAt:  now,
		modifiedAt: now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the aggregate name.
func (a *Aggregate) Name() string { return a.name }

// Version returns the aggregate's declared version.
func (a *Aggregate) Version() string { return a.version }

// Metadata returns a copy of the aggregate metadata.
func (a *Aggregate) Metadata() map[string]string {
	out := make(map[string]string, len(a.metadata))
	for k, v := range a.metadata {
		out[k] = v
	}
	return out
}

// CreatedAt returns the aggregate creation time.
func (a *Aggregate) CreatedAt() time.Time { return a.createdAt }

// ModifiedAt returns the time of the last structural change.
func (a *Aggregate) ModifiedAt() time.Time { return a.modifiedAt }

// Add appends items in order, rejecting nil entries.
func (a *Aggregate) Add(items ...item.Item) error {
	for _, it := range items {
		if it == nil {
			return ErrNilItem
		}
	}
	a.items = append(a.items, items...)
	a.modifiedAt = time.Now().UTC()
	return nil
}

// Items returns the items in insertion order. The slice is a copy; the
// items themselves are shared.
func (a *Aggregate) Items() []item.Item {
	out := make([]item.Item, len(a.items))
	copy(out, a.items)
	return out
}

// ItemsByType returns the items of the given type in insertion order.
func (a *Aggregate) ItemsByType(t item.Type) []item.Item {
	var out []item.Item
	for _, it := range a.items {
		if it.Type() == t {
			out = append(out, it)
		}
	}
	return out
}

// Item returns the named item, or nil when absent.
func (a *Aggregate) Item(name string) item.Item {
	for _, it := range a.items {
		if it.Name() == name {
			return it
		}
	}
	return nil
}

// Len returns the number of items, enabled or not.
func (a *Aggregate) Len() int { return len(a.items) }

// TestResult records the compliance outcome of a single item.
type TestResult struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Satisfied bool   `json:"satisfied" yaml:"satisfied"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TestSummary aggregates item compliance outcomes. Failed counts both
// unsatisfied items and items whose test itself errored.
type TestSummary struct {
	Aggregate string       `json:"aggregate" yaml:"aggregate"`
	Tested    int          `json:"tested" yaml:"tested"`
	Passed    int          `json:"passed" yaml:"passed"`
	Failed    int          `json:"failed" yaml:"failed"`
	Results   []TestResult `json:"results" yaml:"results"`
}

// Satisfied reports whether every tested item passed.
func (s *TestSummary) Satisfied() bool {
	return s.Failed == 0
}

// TestOptions controls a TestAll run.
type TestOptions struct {
	// Parallel runs item tests concurrently with a bounded worker pool.
	// Result ordering matches item order regardless.
	Parallel bool

	// Workers caps concurrency when Parallel is set. Zero means the
	// default pool size.
	Workers int
}

// TestAll tests every enabled item and reports per-item outcomes. A test
// error is isolated to its item: it is recorded as a failure and the run
// continues.
func (a *Aggregate) TestAll(ctx context.Context, opts TestOptions) *TestSummary {
	start := time.Now()
	defer func() {
		testDuration.Observe(time.Since(start).Seconds())
	}()

	enabled := a.enabledItems()
	results := make([]TestResult, len(enabled))

	runOne := func(ctx context.Context, i int, it item.Item) {
		tctx, cancel := context.WithTimeout(ctx, defaults.ItemTestTimeout)
		defer cancel()

		ok, err := it.Test(tctx)
		r := TestResult{
			Name:      it.Name(),
			Type:      it.Type().String(),
			Satisfied: ok && err == nil,
		}
		if err != nil {
			r.Error = err.Error()
			slog.Debug("item test errored",
				slog.String("item", it.Name()),
				slog.String("error", err.Error()))
		}
		results[i] = r
	}

	if opts.Parallel && len(enabled) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workerCount(opts.Workers))
		for i, it := range enabled {
			g.Go(func() error {
				runOne(gctx, i, it)
				return nil
			})
		}
		// Workers never return errors; failures live in the results.
		_ = g.Wait()
	} else {
		for i, it := range enabled {
			runOne(ctx, i, it)
		}
	}

	summary := &TestSummary{
		Aggregate: a.name,
		Tested:    len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Satisfied {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	testItemsTotal.WithLabelValues("passed").Add(float64(summary.Passed))
	testItemsTotal.WithLabelValues("failed").Add(float64(summary.Failed))
	return summary
}

// ApplyStatus classifies a single item's apply outcome.
type ApplyStatus string

const (
	StatusApplied ApplyStatus = "applied"
	StatusSkipped ApplyStatus = "skipped"
	StatusFailed  ApplyStatus = "failed"
	StatusAborted ApplyStatus = "aborted"
)

// ApplyResult records the apply outcome of a single item.
type ApplyResult struct {
	Name   string      `json:"name" yaml:"name"`
	Type   string      `json:"type" yaml:"type"`
	Status ApplyStatus `json:"status" yaml:"status"`
	Error  string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// ApplySummary aggregates item apply outcomes.
type ApplySummary struct {
	Aggregate string        `json:"aggregate" yaml:"aggregate"`
	Applied   int           `json:"applied" yaml:"applied"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Failed    int           `json:"failed" yaml:"failed"`
	Aborted   bool          `json:"aborted,omitempty" yaml:"aborted,omitempty"`
	Results   []ApplyResult `json:"results" yaml:"results"`
}

// ApplyOptions controls an ApplyAll run.
type ApplyOptions struct {
	// Force applies every item without testing first.
	Force bool

	// Parallel applies items concurrently with a bounded worker pool.
	Parallel bool

	// Workers caps concurrency when Parallel is set. Zero means the
	// default pool size.
	Workers int

	// IncludeTypes limits the run to the listed item types. Empty means
	// all types.
	IncludeTypes []item.Type

	// ExcludeTypes removes the listed item types from the run. Exclusion
	// wins over inclusion.
	ExcludeTypes []item.Type
}

// ApplyAll converges every enabled, type-selected item. Items already
// satisfied are skipped unless Force is set. A non-critical failure is
// recorded and the run continues; a critical failure marks the remaining
// items aborted and stops the run.
func (a *Aggregate) ApplyAll(ctx context.Context, opts ApplyOptions) *ApplySummary {
	start := time.Now()
	defer func() {
		applyDuration.Observe(time.Since(start).Seconds())
	}()

	selected := a.selectItems(opts)
	results := make([]ApplyResult, len(selected))

	runOne := func(ctx context.Context, i int, it item.Item) error {
		r := ApplyResult{Name: it.Name(), Type: it.Type().String()}

		if !opts.Force {
			tctx, cancel := context.WithTimeout(ctx, defaults.ItemTestTimeout)
			ok, err := it.Test(tctx)
			cancel()
			if err == nil && ok {
				r.Status = StatusSkipped
				results[i] = r
				return nil
			}
			// A failed pre-check falls through to apply: the item either
			// reported unsatisfied or could not be tested, and apply is
			// the converging operation in both cases.
		}

		actx, cancel := context.WithTimeout(ctx, defaults.ItemApplyTimeout)
		err := it.Apply(actx)
		cancel()
		if err != nil {
			r.Status = StatusFailed
			r.Error = err.Error()
			results[i] = r
			slog.Error("item apply failed",
				slog.String("item", it.Name()),
				slog.String("type", it.Type().String()),
				slog.Bool("critical", it.IsCritical()),
				slog.String("error", err.Error()))
			if it.IsCritical() {
				return fmt.Errorf("%w: %s: %s", errCriticalAbort, it.Name(), err.Error())
			}
			return nil
		}
		r.Status = StatusApplied
		results[i] = r
		slog.Info("item applied", slog.String("item", it.Name()), slog.String("type", it.Type().String()))
		return nil
	}

	var runErr error
	if opts.Parallel && len(selected) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workerCount(opts.Workers))
		for i, it := range selected {
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return runOne(gctx, i, it)
			})
		}
		runErr = g.Wait()
	} else {
		for i, it := range selected {
			if runErr = runOne(ctx, i, it); runErr != nil {
				break
			}
		}
	}

	summary := &ApplySummary{
		Aggregate: a.name,
		Aborted:   errors.Is(runErr, errCriticalAbort) || errors.Is(runErr, context.Canceled),
	}
	for i, r := range results {
		if r.Status == "" {
			// Never ran: the batch aborted before reaching this item.
			r = ApplyResult{
				Name:   selected[i].Name(),
				Type:   selected[i].Type().String(),
				Status: StatusAborted,
			}
		}
		summary.Results = append(summary.Results, r)
		switch r.Status {
		case StatusApplied:
			summary.Applied++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
		applyItemsTotal.WithLabelValues(string(r.Status)).Inc()
	}
	return summary
}

// StateAll snapshots the current state of every enabled item, keyed by item
// name. Capture errors live inside each item's map.
func (a *Aggregate) StateAll(ctx context.Context) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, it := range a.enabledItems() {
		out[it.Name()] = it.CurrentState(ctx)
	}
	return out
}

func (a *Aggregate) enabledItems() []item.Item {
	var out []item.Item
	for _, it := range a.items {
		if it.IsEnabled() {
			out = append(out, it)
		}
	}
	return out
}

// selectItems applies the enabled flag and the include/exclude type
// filters, preserving insertion order.
func (a *Aggregate) selectItems(opts ApplyOptions) []item.Item {
	include := make(map[item.Type]bool, len(opts.IncludeTypes))
	for _, t := range opts.IncludeTypes {
		include[t] = true
	}
	exclude := make(map[item.Type]bool, len(opts.ExcludeTypes))
	for _, t := range opts.ExcludeTypes {
		exclude[t] = true
	}

	var out []item.Item
	for _, it := range a.items {
		if !it.IsEnabled() {
			continue
		}
		if len(include) > 0 && !include[it.Type()] {
			continue
		}
		if exclude[it.Type()] {
			continue
		}
		out = append(out, it)
	}
	return out
}

func workerCount(n int) int {
	if n > 0 {
		return n
	}
	return defaults.ParallelWorkers
}
