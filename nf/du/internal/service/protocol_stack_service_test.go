package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fivegcore/emulator/common/f1"
	"github.com/fivegcore/emulator/nf/du/internal/client"
	"github.com/fivegcore/emulator/nf/du/internal/config"
	ducontext "github.com/fivegcore/emulator/nf/du/internal/context"
	"github.com/fivegcore/emulator/nf/du/internal/mac"
	"github.com/fivegcore/emulator/nf/du/internal/pdcp"
	"github.com/fivegcore/emulator/nf/du/internal/phy"
	"github.com/fivegcore/emulator/nf/du/internal/rlc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProtocolStackService(t *testing.T, cuURL string) *ProtocolStackService {
	t.Helper()
	cfg := config.DefaultConfig()
	if cuURL != "" {
		cfg.CU.URL = cuURL
	}

	contexts := ducontext.NewManager()
	scheduler := mac.NewScheduler()
	rlcMgr := rlc.NewManager()
	pdcpMgr := pdcp.NewManager()
	phyLayer := phy.NewLayer(cfg.PHY.Numerology, cfg.PHY.SlotsPerFrame, cfg.PHY.ResourceBlocks, cfg.PHY.SymbolsPerSlot, cfg.PHY.SubcarriersPerRB)
	cuClient := client.NewCUClient(cfg.CU.URL, 2*time.Second, zap.NewNop())

	return NewProtocolStackService(cfg, contexts, scheduler, rlcMgr, pdcpMgr, phyLayer, cuClient, zap.NewNop())
}

func TestProcessPRACH_AllocatesContextAndPreCreatesBearerEntities(t *testing.T) {
	svc := newTestProtocolStackService(t, "")

	resp, err := svc.ProcessPRACH(context.Background(), &PRACHRequest{PreambleIndex: 3})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), resp.GNBDUUEF1APID)
	assert.Equal(t, uint16(0x1000+3), resp.Detection.TempCRNTI)
	assert.Equal(t, 1, svc.Contexts().Count())
}

func TestForwardInitialULRRCMessage_ForwardsToCUAndReturnsRRCSetup(t *testing.T) {
	var gotPath string
	cu := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req f1.InitialULRRCMessage
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(f1.DLRRCMessage{
			GNBCUUEF1APID: 1,
			GNBDUUEF1APID: req.GNBDUUEF1APID,
			SRBID:         1,
			RRCContainer:  []byte(`{"messageType":"DL-CCCH-Message"}`),
		})
	}))
	defer cu.Close()

	svc := newTestProtocolStackService(t, cu.URL)
	ueCtx, err := svc.ProcessPRACH(context.Background(), &PRACHRequest{PreambleIndex: 1})
	require.NoError(t, err)

	resp, err := svc.ForwardInitialULRRCMessage(context.Background(), &InitialULRRCTransferRequest{
		GNBDUUEF1APID: ueCtx.GNBDUUEF1APID,
		CRNTI:         0x1001,
		RRCContainer:  []byte(`{"rrcSetupRequest":{}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "/f1ap/initial-ul-rrc-message", gotPath)
	assert.Equal(t, ueCtx.GNBDUUEF1APID, resp.GNBDUUEF1APID)
	assert.NotEmpty(t, resp.RRCContainer)
}

func TestForwardInitialULRRCMessage_UnknownUE(t *testing.T) {
	svc := newTestProtocolStackService(t, "")

	_, err := svc.ForwardInitialULRRCMessage(context.Background(), &InitialULRRCTransferRequest{GNBDUUEF1APID: 999})
	assert.Error(t, err)
}

func TestScheduleUplinkAndDownlink_CoverActiveUEs(t *testing.T) {
	svc := newTestProtocolStackService(t, "")
	_, err := svc.ProcessPRACH(context.Background(), &PRACHRequest{PreambleIndex: 1})
	require.NoError(t, err)

	ul := svc.ScheduleUplink()
	dl := svc.ScheduleDownlink()

	assert.Len(t, ul.Grants, 1)
	assert.Len(t, dl.Assignments, 1)
}

func TestTransmitRLCSDU_UsesPreCreatedEntity(t *testing.T) {
	svc := newTestProtocolStackService(t, "")
	_, err := svc.ProcessPRACH(context.Background(), &PRACHRequest{PreambleIndex: 1})
	require.NoError(t, err)

	resp, err := svc.TransmitRLCSDU(&RLCSDURequest{UEID: 1, LCID: lcidSRB1, Payload: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, uint16(0), resp.SN)
}

func TestTransmitPDCPSDU_UsesPreCreatedEntity(t *testing.T) {
	svc := newTestProtocolStackService(t, "")
	_, err := svc.ProcessPRACH(context.Background(), &PRACHRequest{PreambleIndex: 1})
	require.NoError(t, err)

	resp, err := svc.TransmitPDCPSDU(&PDCPSDURequest{UEID: 1, BearerID: lcidSRB1, SDU: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.PDU)
}

func TestTickSlot_AdvancesPHYCounters(t *testing.T) {
	svc := newTestProtocolStackService(t, "")

	before := svc.CurrentSlot()
	after := svc.TickSlot()

	assert.NotEqual(t, before, after)
}
