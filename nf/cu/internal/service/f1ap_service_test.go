package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fivegcore/emulator/common/f1"
	"github.com/fivegcore/emulator/nf/cu/internal/config"
	cucontext "github.com/fivegcore/emulator/nf/cu/internal/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestF1APService(t *testing.T) *F1APService {
	t.Helper()
	cfg := config.DefaultConfig()
	contexts := cucontext.NewManager()
	return NewF1APService(cfg, contexts, zap.NewNop())
}

func TestHandleF1SetupRequest_ActivatesServedCell(t *testing.T) {
	svc := newTestF1APService(t)

	resp, err := svc.HandleF1SetupRequest(context.Background(), &f1.F1SetupRequest{
		TransactionID: 1,
		GNBDUID:       1,
		GNBDUName:     "DU-001",
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), resp.TransactionID)
	require.Len(t, resp.CellsToActivate, 1)
	assert.Equal(t, "001", resp.CellsToActivate[0].NRCGI.PLMNID.MCC)
	assert.NotNil(t, resp.GNBCURRCVersion)
}

func TestHandleInitialULRRCMessageTransfer_AllocatesContextAndReturnsRRCSetup(t *testing.T) {
	svc := newTestF1APService(t)

	resp, err := svc.HandleInitialULRRCMessageTransfer(context.Background(), &f1.InitialULRRCMessage{
		GNBDUUEF1APID: 42,
		CRNTI:         0x1001,
		RRCContainer:  []byte(`{"rrcSetupRequest":{}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), resp.GNBCUUEF1APID)
	assert.Equal(t, uint32(42), resp.GNBDUUEF1APID)
	assert.Equal(t, uint8(1), resp.SRBID)
	assert.NotEmpty(t, resp.RRCContainer)

	var rrcSetup map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.RRCContainer, &rrcSetup))
	assert.Equal(t, "DL-CCCH-Message", rrcSetup["messageType"])

	ueCtx, ok := svc.Contexts().GetContext(resp.GNBCUUEF1APID)
	require.True(t, ok)
	assert.Equal(t, cucontext.RRCStateConnected, ueCtx.RRCState)
	assert.Equal(t, uint32(42), ueCtx.GNBDUUEF1APID)
}

func TestHandleInitialULRRCMessageTransfer_AllocatesDistinctIDsPerCall(t *testing.T) {
	svc := newTestF1APService(t)

	first, err := svc.HandleInitialULRRCMessageTransfer(context.Background(), &f1.InitialULRRCMessage{GNBDUUEF1APID: 1})
	require.NoError(t, err)
	second, err := svc.HandleInitialULRRCMessageTransfer(context.Background(), &f1.InitialULRRCMessage{GNBDUUEF1APID: 2})
	require.NoError(t, err)

	assert.NotEqual(t, first.GNBCUUEF1APID, second.GNBCUUEF1APID)
}

func TestHandleUEContextSetupResponse_BindsGNBDUUEF1APIDAndConfirmsConnected(t *testing.T) {
	svc := newTestF1APService(t)
	ueCtx := svc.Contexts().CreateContext()

	err := svc.HandleUEContextSetupResponse(context.Background(), &f1.UEContextSetupResponse{
		GNBCUUEF1APID: ueCtx.GNBCUUEF1APID,
		GNBDUUEF1APID: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(99), ueCtx.GNBDUUEF1APID)
	assert.Equal(t, cucontext.RRCStateConnected, ueCtx.RRCState)
}

func TestHandleUEContextSetupResponse_UnknownCUUEID(t *testing.T) {
	svc := newTestF1APService(t)

	err := svc.HandleUEContextSetupResponse(context.Background(), &f1.UEContextSetupResponse{GNBCUUEF1APID: 999})
	assert.Error(t, err)
}
