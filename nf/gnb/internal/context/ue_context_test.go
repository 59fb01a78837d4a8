package context

import "testing"

func TestManager_CreateContext_AllocatesMonotonicIDs(t *testing.T) {
	m := NewManager()

	first := m.CreateContext()
	second := m.CreateContext()

	if first.RanUENgapID != 1 {
		t.Fatalf("expected first ran-ue-ngap-id to be 1, got %d", first.RanUENgapID)
	}
	if second.RanUENgapID != 2 {
		t.Fatalf("expected second ran-ue-ngap-id to be 2, got %d", second.RanUENgapID)
	}
}

func TestUEContext_BindAmfUENgapID_OnlyBindsOnce(t *testing.T) {
	m := NewManager()
	ctx := m.CreateContext()

	ctx.BindAmfUENgapID(10)
	ctx.BindAmfUENgapID(20)

	if ctx.AmfUENgapID != 10 {
		t.Fatalf("expected amf-ue-ngap-id to remain 10 after first bind, got %d", ctx.AmfUENgapID)
	}
}

func TestUEContext_SetSecurityContext_TransitionsToConnected(t *testing.T) {
	m := NewManager()
	ctx := m.CreateContext()

	if ctx.ConnectionState != ConnectionStateIdle {
		t.Fatalf("expected initial state IDLE, got %s", ctx.ConnectionState)
	}

	ctx.SetSecurityContext("key", []string{"128-NEA2"})

	if ctx.ConnectionState != ConnectionStateConnected {
		t.Fatalf("expected CONNECTED after security context set, got %s", ctx.ConnectionState)
	}
}

func TestUEContext_AddPDUSession_RecordsActive(t *testing.T) {
	m := NewManager()
	ctx := m.CreateContext()

	ctx.AddPDUSession(5)

	session, exists := ctx.PDUSessions[5]
	if !exists {
		t.Fatalf("expected PDU session 5 to be recorded")
	}
	if session.State != PDUSessionStateActive {
		t.Fatalf("expected session state ACTIVE, got %s", session.State)
	}
}

func TestManager_GetContext_UnknownIDNotFound(t *testing.T) {
	m := NewManager()

	if _, ok := m.GetContext(999); ok {
		t.Fatalf("expected unknown ran-ue-ngap-id to not be found")
	}
}
