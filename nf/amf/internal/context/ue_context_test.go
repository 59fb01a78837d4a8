package context

import (
	"testing"
)

func TestRegistrationStateMachine_HappyPath(t *testing.T) {
	ue := NewUEContext("imsi-001010000000001")

	if ue.RegistrationState != RegistrationStateDeregistered {
		t.Fatalf("expected initial state DEREGISTERED, got %s", ue.RegistrationState)
	}

	ue.UpdateRegistrationState(RegistrationStateAuthPending)
	if ue.RegistrationState != RegistrationStateAuthPending {
		t.Fatalf("expected AUTH_PENDING, got %s", ue.RegistrationState)
	}

	ue.UpdateRegistrationState(RegistrationStateSecPending)
	if ue.RegistrationState != RegistrationStateSecPending {
		t.Fatalf("expected SEC_PENDING, got %s", ue.RegistrationState)
	}

	ue.UpdateRegistrationState(RegistrationStateRegistered)
	if !ue.IsRegistered() {
		t.Fatalf("expected UE to be registered")
	}
	if ue.RegisteredAt.IsZero() {
		t.Fatalf("expected RegisteredAt to be set on reaching REGISTERED")
	}
}

func TestRegistrationStateMachine_AuthFailureReturnsToDeregistered(t *testing.T) {
	ue := NewUEContext("imsi-001010000000002")

	ue.UpdateRegistrationState(RegistrationStateAuthPending)
	ue.UpdateRegistrationState(RegistrationStateDeregistered)

	if ue.IsRegistered() {
		t.Fatalf("expected UE to not be registered after auth failure")
	}
}

func TestUEContextManager_AuthCtxIDBinding(t *testing.T) {
	mgr := NewUEContextManager()
	mgr.CreateContext("imsi-001010000000003")

	mgr.BindAuthCtxID("authctx-1", "imsi-001010000000003")

	supi, found := mgr.ResolveAuthCtxID("authctx-1")
	if !found || supi != "imsi-001010000000003" {
		t.Fatalf("expected to resolve authctx-1 to imsi-001010000000003, got %q, %v", supi, found)
	}

	mgr.UnbindAuthCtxID("authctx-1")
	if _, found := mgr.ResolveAuthCtxID("authctx-1"); found {
		t.Fatalf("expected authctx-1 binding to be removed")
	}
}

func TestUEContextManager_GetRegisteredCount(t *testing.T) {
	mgr := NewUEContextManager()
	a := mgr.CreateContext("imsi-1")
	mgr.CreateContext("imsi-2")

	a.UpdateRegistrationState(RegistrationStateRegistered)

	if got := mgr.GetRegisteredCount(); got != 1 {
		t.Fatalf("expected 1 registered UE, got %d", got)
	}
}
