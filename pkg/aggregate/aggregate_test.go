/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package aggregate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albedosehen/dotwin/pkg/item"
)

// stubItem is a scriptable item for exercising batch semantics.
type stubItem struct {
	item.Base

	satisfied bool
	testErr   error
	applyErr  error
	applies   atomic.Int32
}

func newStub(name string, t item.Type, satisfied bool, opts ...item.BaseOption) *stubItem {
	return &stubItem{
		Base:      item.NewBase(name, t, opts...),
		satisfied: satisfied,
	}
}

func (s *stubItem) Test(_ context.Context) (bool, error) {
	if s.testErr != nil {
		return false, s.testErr
	}
	return s.satisfied, nil
}

func (s *stubItem) Apply(_ context.Context) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applies.Add(1)
	s.satisfied = true
	return nil
}

func (s *stubItem) CurrentState(_ context.Context) map[string]any {
	return map[string]any{"name": s.Name(), "satisfied": s.satisfied}
}

func TestAddRejectsNil(t *testing.T) {
	a := New("base")
	require.ErrorIs(t, a.Add(nil), ErrNilItem)
	require.NoError(t, a.Add(newStub("one", item.TypePackage, true)))
	assert.Equal(t, 1, a.Len())
}

func TestLookup(t *testing.T) {
	a := New("base", WithVersion("1.2.0"), WithMetadata(map[string]string{"owner": "me"}))
	require.NoError(t, a.Add(
		newStub("git", item.TypePackage, true),
		newStub("sshd", item.TypeService, true),
		newStub("pwsh", item.TypePackage, false),
	))

	assert.Equal(t, "1.2.0", a.Version())
	assert.Equal(t, "me", a.Metadata()["owner"])
	assert.NotNil(t, a.Item("sshd"))
	assert.Nil(t, a.Item("missing"))
	assert.Len(t, a.ItemsByType(item.TypePackage), 2)
	assert.Len(t, a.Items(), 3)
}

func TestTestAllCountsAndIsolation(t *testing.T) {
	broken := newStub("broken", item.TypeService, false)
	broken.testErr = errors.New("service manager unreachable")

	disabled := newStub("off", item.TypePackage, true, item.WithDisabled())

	a := New("base")
	require.NoError(t, a.Add(
		newStub("git", item.TypePackage, true),
		newStub("pwsh", item.TypePackage, false),
		broken,
		disabled,
	))

	s := a.TestAll(t.Context(), TestOptions{})

	assert.Equal(t, 3, s.Tested)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 2, s.Failed)
	assert.False(t, s.Satisfied())
	require.Len(t, s.Results, 3)

	// Disabled items do not appear in results at all.
	for _, r := range s.Results {
		assert.NotEqual(t, "off", r.Name)
	}

	// The erroring item carries its error text and counts as failed.
	assert.Equal(t, "broken", s.Results[2].Name)
	assert.False(t, s.Results[2].Satisfied)
	assert.Contains(t, s.Results[2].Error, "unreachable")
}

func TestTestAllParallelMatchesSequential(t *testing.T) {
	a := New("base")
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, a.Add(newStub(name, item.TypePackage, name < "c")))
	}

	seq := a.TestAll(t.Context(), TestOptions{})
	par := a.TestAll(t.Context(), TestOptions{Parallel: true, Workers: 3})

	assert.Equal(t, seq.Tested, par.Tested)
	assert.Equal(t, seq.Passed, par.Passed)
	assert.Equal(t, seq.Failed, par.Failed)
	// Result order matches item order even in parallel mode.
	for i := range seq.Results {
		assert.Equal(t, seq.Results[i].Name, par.Results[i].Name)
	}
}

func TestApplyAllSkipsSatisfied(t *testing.T) {
	done := newStub("done", item.TypePackage, true)
	todo := newStub("todo", item.TypePackage, false)

	a := New("base")
	require.NoError(t, a.Add(done, todo))

	s := a.ApplyAll(t.Context(), ApplyOptions{})

	assert.Equal(t, 1, s.Applied)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 0, s.Failed)
	assert.False(t, s.Aborted)
	assert.Equal(t, int32(0), done.applies.Load())
	assert.Equal(t, int32(1), todo.applies.Load())
}

func TestApplyAllForce(t *testing.T) {
	done := newStub("done", item.TypePackage, true)

	a := New("base")
	require.NoError(t, a.Add(done))

	s := a.ApplyAll(t.Context(), ApplyOptions{Force: true})

	assert.Equal(t, 1, s.Applied)
	assert.Equal(t, 0, s.Skipped)
	assert.Equal(t, int32(1), done.applies.Load())
}

func TestApplyAllNonCriticalFailureContinues(t *testing.T) {
	bad := newStub("bad", item.TypePackage, false)
	bad.applyErr = errors.New("download failed")
	after := newStub("after", item.TypePackage, false)

	a := New("base")
	require.NoError(t, a.Add(bad, after))

	s := a.ApplyAll(t.Context(), ApplyOptions{})

	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Applied)
	assert.False(t, s.Aborted)
	assert.Equal(t, int32(1), after.applies.Load())
	assert.Contains(t, s.Results[0].Error, "download failed")
}

func TestApplyAllCriticalAborts(t *testing.T) {
	critical := newStub("critical", item.TypeFeature, false, item.WithCritical())
	critical.applyErr = errors.New("feature servicing stack broken")
	never := newStub("never", item.TypePackage, false)

	a := New("base")
	require.NoError(t, a.Add(critical, never))

	s := a.ApplyAll(t.Context(), ApplyOptions{})

	assert.True(t, s.Aborted)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 0, s.Applied)
	assert.Equal(t, int32(0), never.applies.Load())
	require.Len(t, s.Results, 2)
	assert.Equal(t, StatusFailed, s.Results[0].Status)
	assert.Equal(t, StatusAborted, s.Results[1].Status)
}

func TestApplyAllTypeFilters(t *testing.T) {
	pkg := newStub("pkg", item.TypePackage, false)
	svc := newStub("svc", item.TypeService, false)
	feat := newStub("feat", item.TypeFeature, false)

	a := New("base")
	require.NoError(t, a.Add(pkg, svc, feat))

	s := a.ApplyAll(t.Context(), ApplyOptions{
		IncludeTypes: []item.Type{item.TypePackage, item.TypeService},
		ExcludeTypes: []item.Type{item.TypeService},
	})

	// Exclusion wins over inclusion: only the package item runs.
	assert.Equal(t, 1, s.Applied)
	assert.Equal(t, int32(1), pkg.applies.Load())
	assert.Equal(t, int32(0), svc.applies.Load())
	assert.Equal(t, int32(0), feat.applies.Load())
}

func TestApplyAllParallel(t *testing.T) {
	a := New("base")
	stubs := make([]*stubItem, 0, 6)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		st := newStub(name, item.TypePackage, false)
		stubs = append(stubs, st)
		require.NoError(t, a.Add(st))
	}

	s := a.ApplyAll(t.Context(), ApplyOptions{Parallel: true, Workers: 2})

	assert.Equal(t, 6, s.Applied)
	assert.False(t, s.Aborted)
	for _, st := range stubs {
		assert.Equal(t, int32(1), st.applies.Load())
	}
}

func TestStateAll(t *testing.T) {
	a := New("base")
	require.NoError(t, a.Add(
		newStub("git", item.TypePackage, true),
		newStub("off", item.TypePackage, true, item.WithDisabled()),
	))

	states := a.StateAll(t.Context())
	require.Len(t, states, 1)
	assert.Equal(t, true, states["git"]["satisfied"])
}
