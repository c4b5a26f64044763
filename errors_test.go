package subsystem

import (
	"errors"
	"strings"
	"testing"
)

func TestSubsystemFailedErrorUnwrap(t *testing.T) {
	e := &SubsystemFailedError{Path: "/A", Err: errTestSentinel}

	if !errors.Is(e, errTestSentinel) {
		t.Fatal("errors.Is should reach through to the wrapped user error")
	}
	if !strings.Contains(e.Error(), "/A") {
		t.Fatalf("Error() = %q, should mention the path", e.Error())
	}
}

func TestSubsystemPanickedErrorUnwrap(t *testing.T) {
	e := &SubsystemPanickedError{Path: "/A", Err: errTestSentinel}

	if !errors.Is(e, errTestSentinel) {
		t.Fatal("errors.Is should reach through to the wrapped panic error")
	}
}

func TestSubsystemsFailedErrorUnwrapsAll(t *testing.T) {
	inner1 := &SubsystemFailedError{Path: "/A", Err: errTestSentinel}
	inner2 := &ShutdownTimeoutError{Paths: []string{"/B"}}
	composite := &SubsystemsFailedError{Errors: []error{inner1, inner2}}

	if !errors.Is(composite, errTestSentinel) {
		t.Fatal("errors.Is should reach through every contributor via the multi-unwrap form")
	}

	var timeout *ShutdownTimeoutError
	if !errors.As(composite, &timeout) {
		t.Fatal("errors.As should reach the ShutdownTimeoutError contributor")
	}
}

func TestShutdownTimeoutErrorListsAllPaths(t *testing.T) {
	e := &ShutdownTimeoutError{Paths: []string{"/A", "/B"}}

	msg := e.Error()
	if !strings.Contains(msg, "/A") || !strings.Contains(msg, "/B") {
		t.Fatalf("Error() = %q, should list every timed-out path", msg)
	}
}
