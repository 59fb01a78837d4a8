package context

import "testing"

func TestManager_CreateContext_AllocatesMonotonicIDs(t *testing.T) {
	m := NewManager()

	first := m.CreateContext()
	second := m.CreateContext()

	if first.GNBCUUEF1APID != 1 {
		t.Fatalf("expected first gnb-cu-ue-f1ap-id to be 1, got %d", first.GNBCUUEF1APID)
	}
	if second.GNBCUUEF1APID != 2 {
		t.Fatalf("expected second gnb-cu-ue-f1ap-id to be 2, got %d", second.GNBCUUEF1APID)
	}
}

func TestUEContext_BindGNBDUUEF1APID_RecordsID(t *testing.T) {
	m := NewManager()
	ctx := m.CreateContext()

	ctx.BindGNBDUUEF1APID(7)

	if ctx.GNBDUUEF1APID != 7 {
		t.Fatalf("expected gnb-du-ue-f1ap-id 7, got %d", ctx.GNBDUUEF1APID)
	}
	if !ctx.GNBDUUEF1APIDBound {
		t.Fatalf("expected gnb-du-ue-f1ap-id to be marked bound")
	}
}

func TestUEContext_SetConnected_TransitionsFromIdle(t *testing.T) {
	m := NewManager()
	ctx := m.CreateContext()

	if ctx.RRCState != RRCStateIdle {
		t.Fatalf("expected initial state IDLE, got %s", ctx.RRCState)
	}

	ctx.SetConnected(0x1001)

	if ctx.RRCState != RRCStateConnected {
		t.Fatalf("expected CONNECTED after SetConnected, got %s", ctx.RRCState)
	}
	if ctx.CRNTI != 0x1001 {
		t.Fatalf("expected C-RNTI 0x1001, got %#x", ctx.CRNTI)
	}
}

func TestManager_GetContext_UnknownIDNotFound(t *testing.T) {
	m := NewManager()

	if _, ok := m.GetContext(999); ok {
		t.Fatalf("expected unknown gnb-cu-ue-f1ap-id to not be found")
	}
}

func TestManager_Count_TracksCreatedContexts(t *testing.T) {
	m := NewManager()
	m.CreateContext()
	m.CreateContext()

	if got := m.Count(); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}
}
