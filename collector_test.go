package subsystem

import (
	"errors"
	"testing"
)

func TestAggregateEmptyIsNil(t *testing.T) {
	if err := aggregate(nil); err != nil {
		t.Fatalf("aggregate(nil) = %v, want nil", err)
	}
}

func TestAggregateSingleErrorUnwrapped(t *testing.T) {
	contribs := []contribution{
		{path: "/A", out: outcome{kind: outcomeUserError, err: errTestSentinel}},
	}

	err := aggregate(contribs)

	var failed *SubsystemFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("aggregate single error = %v, want *SubsystemFailedError directly", err)
	}
	if failed.Path != "/A" {
		t.Fatalf("path = %q, want /A", failed.Path)
	}
}

func TestAggregateMultipleErrorsComposite(t *testing.T) {
	contribs := []contribution{
		{path: "/A", out: outcome{kind: outcomeUserError, err: errTestSentinel}},
		{path: "/B", out: outcome{kind: outcomePanic, err: errTestSentinel}},
	}

	err := aggregate(contribs)

	var composite *SubsystemsFailedError
	if !errors.As(err, &composite) {
		t.Fatalf("aggregate = %v, want *SubsystemsFailedError", err)
	}
	if len(composite.Errors) != 2 {
		t.Fatalf("len(Errors) = %d, want 2", len(composite.Errors))
	}

	// Deterministic traversal order: /A before /B.
	var first *SubsystemFailedError
	if !errors.As(composite.Errors[0], &first) || first.Path != "/A" {
		t.Fatalf("first contributor = %v, want SubsystemFailedError(/A)", composite.Errors[0])
	}
}

func TestAggregateTimeoutsCollapseIntoOneError(t *testing.T) {
	contribs := []contribution{
		{path: "/A", timedOut: true},
		{path: "/B", timedOut: true},
	}

	err := aggregate(contribs)

	var timeout *ShutdownTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("aggregate = %v, want *ShutdownTimeoutError", err)
	}
	if len(timeout.Paths) != 2 {
		t.Fatalf("len(Paths) = %d, want 2", len(timeout.Paths))
	}
}

func TestAggregateSuccessesContributeNothing(t *testing.T) {
	contribs := []contribution{
		{path: "/A", out: outcome{kind: outcomeSuccess}},
		{path: "/B", out: outcome{kind: outcomeCancelled}},
	}

	if err := aggregate(contribs); err != nil {
		t.Fatalf("aggregate successes/cancelled-only = %v, want nil", err)
	}
}
