// Package f1 defines the F1AP message shapes exchanged between a gNB-CU and
// gNB-DU (3GPP TS 38.473), modeled as JSON over HTTP/1.1 rather than the
// binary ASN.1 PER encoding the specification prescribes - consistent with
// every other NF-to-NF interface in this emulator.
package f1

import (
	"context"
	"net"
)

// F1AP procedure codes (3GPP TS 38.473 § 9.4.5).
const (
	ProcedureCodeReset                         = 22
	ProcedureCodeF1Setup                       = 0
	ProcedureCodeGNBDUConfigurationUpdate      = 1
	ProcedureCodeGNBCUConfigurationUpdate      = 2
	ProcedureCodeCellsToBeActivated            = 3
	ProcedureCodeUEContextSetup                = 4
	ProcedureCodeUEContextRelease              = 5
	ProcedureCodeUEContextModification         = 6
	ProcedureCodeInitialULRRCMessageTransfer   = 7
	ProcedureCodeDLRRCMessageTransfer          = 8
	ProcedureCodeULRRCMessageTransfer          = 9
	ProcedureCodePaging                        = 10
	ProcedureCodeNotify                        = 11
)

// F1Interface defines the F1 interface between CU and DU.
type F1Interface interface {
	// Setup procedures
	SendF1SetupRequest(ctx context.Context, req *F1SetupRequest) (*F1SetupResponse, error)
	SendF1SetupResponse(ctx context.Context, resp *F1SetupResponse) error

	// UE Context Management
	SendUEContextSetupRequest(ctx context.Context, req *UEContextSetupRequest) (*UEContextSetupResponse, error)
	SendUEContextReleaseCommand(ctx context.Context, cmd *UEContextReleaseCommand) error
	SendUEContextModificationRequest(ctx context.Context, req *UEContextModificationRequest) (*UEContextModificationResponse, error)

	// RRC Message Transfer
	SendInitialULRRCMessageTransfer(ctx context.Context, msg *InitialULRRCMessage) error
	SendDLRRCMessageTransfer(ctx context.Context, msg *DLRRCMessage) error
	SendULRRCMessageTransfer(ctx context.Context, msg *ULRRCMessage) error

	// Configuration Update
	SendDUConfigurationUpdate(ctx context.Context, update *DUConfigurationUpdate) error
	SendCUConfigurationUpdate(ctx context.Context, update *CUConfigurationUpdate) error
}

// F1SetupRequest - DU -> CU
type F1SetupRequest struct {
	TransactionID    uint8         `json:"transactionId"`
	GNBDUID          uint64        `json:"gnbDuId"`
	GNBDUName        string        `json:"gnbDuName"`
	ServedCellsToAdd []*ServedCell `json:"servedCellsToAdd,omitempty"`
	GNBDURRCVersion  *RRCVersion   `json:"gnbDuRrcVersion,omitempty"`
}

// F1SetupResponse - CU -> DU
type F1SetupResponse struct {
	TransactionID   uint8              `json:"transactionId"`
	GNBCUNAME       string             `json:"gnbCuName"`
	CellsToActivate []*CellToActivate `json:"cellsToActivate,omitempty"`
	GNBCURRCVersion *RRCVersion        `json:"gnbCuRrcVersion,omitempty"`
}

// ServedCell information
type ServedCell struct {
	ServedCellIndex uint8              `json:"servedCellIndex"`
	ServedCellInfo  *ServedCellInfo    `json:"servedCellInfo,omitempty"`
	GNBDUSYSINFO    *SystemInformation `json:"gnbDuSysInfo,omitempty"`
}

// ServedCellInfo contains cell configuration
type ServedCellInfo struct {
	NRCGI                          *NRCGI        `json:"nrCgi"`
	NRPCI                          uint16        `json:"nrPci"` // NR Physical Cell ID
	FiveGSTAC                      []byte        `json:"fiveGsTac"`
	ConfiguredEPSTAC               []byte        `json:"configuredEpsTac,omitempty"`
	ServedPLMNs                    []*ServedPLMN `json:"servedPlmns"`
	NRModeInfo                     *NRModeInfo   `json:"nrModeInfo"`
	MeasurementTimingConfiguration []byte        `json:"measurementTimingConfiguration,omitempty"`
}

// NRCGI (NR Cell Global Identifier)
type NRCGI struct {
	PLMNID   *PLMNID `json:"plmnId"`
	NRCellID uint64  `json:"nrCellId"` // 36 bits
}

// PLMNID
type PLMNID struct {
	MCC string `json:"mcc"` // Mobile Country Code (3 digits)
	MNC string `json:"mnc"` // Mobile Network Code (2-3 digits)
}

// ServedPLMN
type ServedPLMN struct {
	PLMNID           *PLMNID         `json:"plmnId"`
	SliceSupportList []*SliceSupport `json:"sliceSupportList,omitempty"`
}

// SliceSupport (S-NSSAI)
type SliceSupport struct {
	SST uint8  `json:"sst"` // Slice/Service Type
	SD  []byte `json:"sd,omitempty"`
}

// NRModeInfo (FDD or TDD)
type NRModeInfo struct {
	FDD *FDDInfo `json:"fdd,omitempty"`
	TDD *TDDInfo `json:"tdd,omitempty"`
}

// FDDInfo
type FDDInfo struct {
	ULARFCN                 uint32 `json:"ulArfcn"`
	DLARFCN                 uint32 `json:"dlArfcn"`
	ULTransmissionBandwidth uint16 `json:"ulTransmissionBandwidth"`
	DLTransmissionBandwidth uint16 `json:"dlTransmissionBandwidth"`
}

// TDDInfo
type TDDInfo struct {
	NRARFCN               uint32 `json:"nrArfcn"`
	TransmissionBandwidth uint16 `json:"transmissionBandwidth"`
}

// SystemInformation
type SystemInformation struct {
	SIB1 []byte `json:"sib1"` // System Information Block 1
}

// CellToActivate
type CellToActivate struct {
	NRCGI *NRCGI `json:"nrCgi"`
}

// RRCVersion
type RRCVersion struct {
	Latest   []byte `json:"latest"`
	Extended []byte `json:"extended,omitempty"`
}

// UEContextSetupRequest - CU -> DU
type UEContextSetupRequest struct {
	GNBCUUEF1APID uint32                 `json:"gnbCuUeF1apId"`
	GNBDUUEF1APID uint32                 `json:"gnbDuUeF1apId,omitempty"` // Optional
	SpCell        *SpCell                `json:"spCell"`
	SRBsToBeSetup []*SRBToBeSetup        `json:"srbsToBeSetup,omitempty"`
	DRBsToBeSetup []*DRBToBeSetup        `json:"drbsToBeSetup,omitempty"`
	CUtoDURRCInfo *CUtoDURRCInformation  `json:"cuToDuRrcInfo,omitempty"`
}

// UEContextSetupResponse - DU -> CU
type UEContextSetupResponse struct {
	GNBCUUEF1APID     uint32                 `json:"gnbCuUeF1apId"`
	GNBDUUEF1APID     uint32                 `json:"gnbDuUeF1apId"`
	DUtoCURRCInfo     *DUtoCURRCInformation  `json:"duToCuRrcInfo,omitempty"`
	CellstoActivate   []*CellsActivated      `json:"cellsToActivate,omitempty"`
	SRBsSetup         []*SRBSetup            `json:"srbsSetup,omitempty"`
	DRBsSetup         []*DRBSetup            `json:"drbsSetup,omitempty"`
	SRBsFailedToSetup []*SRBFailedToSetup    `json:"srbsFailedToSetup,omitempty"`
	DRBsFailedToSetup []*DRBFailedToSetup    `json:"drbsFailedToSetup,omitempty"`
}

// UEContextReleaseCommand - CU -> DU
type UEContextReleaseCommand struct {
	GNBCUUEF1APID uint32 `json:"gnbCuUeF1apId"`
	GNBDUUEF1APID uint32 `json:"gnbDuUeF1apId"`
	Cause         *Cause `json:"cause"`
	RRCContainer  []byte `json:"rrcContainer,omitempty"`
}

// UEContextModificationRequest - CU -> DU
type UEContextModificationRequest struct {
	GNBCUUEF1APID    uint32             `json:"gnbCuUeF1apId"`
	GNBDUUEF1APID    uint32             `json:"gnbDuUeF1apId"`
	SRBsToBeSetup    []*SRBToBeSetup    `json:"srbsToBeSetup,omitempty"`
	DRBsToBeSetup    []*DRBToBeSetup    `json:"drbsToBeSetup,omitempty"`
	DRBsToBeModified []*DRBToBeModified `json:"drbsToBeModified,omitempty"`
	DRBsToBeReleased []uint8            `json:"drbsToBeReleased,omitempty"`
}

// UEContextModificationResponse - DU -> CU
type UEContextModificationResponse struct {
	GNBCUUEF1APID      uint32              `json:"gnbCuUeF1apId"`
	GNBDUUEF1APID      uint32              `json:"gnbDuUeF1apId"`
	DRBsModified       []*DRBModified      `json:"drbsModified,omitempty"`
	DRBsFailedToModify []*DRBFailedToModify `json:"drbsFailedToModify,omitempty"`
}

// SpCell (Special Cell)
type SpCell struct {
	ServCellIndex uint8                `json:"servCellIndex"`
	ServCellID    *NRCGI               `json:"servCellId"`
	ServCellULCfg *CellULConfiguration `json:"servCellUlCfg,omitempty"`
}

// CellULConfiguration
type CellULConfiguration struct {
	CellULConfigured bool `json:"cellUlConfigured"`
}

// SRBToBeSetup (Signaling Radio Bearer)
type SRBToBeSetup struct {
	SRBID                 uint8 `json:"srbId"` // 1, 2, or 3
	DuplicationIndication bool  `json:"duplicationIndication,omitempty"`
}

// DRBToBeSetup (Data Radio Bearer)
type DRBToBeSetup struct {
	DRBID                 uint8                          `json:"drbId"`
	QoSInfo               *QoSFlowLevelQoSParameters     `json:"qosInfo"`
	ULUPTNLInfo           []*UPTransportLayerInformation `json:"ulUpTnlInfo,omitempty"`
	RLCMode               string                         `json:"rlcMode"` // "AM", "UM", "TM"
	ULConfiguration       *ULConfiguration               `json:"ulConfiguration,omitempty"`
	DuplicationIndication bool                           `json:"duplicationIndication,omitempty"`
}

// DRBToBeModified
type DRBToBeModified struct {
	DRBID       uint8                          `json:"drbId"`
	QoSInfo     *QoSFlowLevelQoSParameters     `json:"qosInfo"`
	ULUPTNLInfo []*UPTransportLayerInformation `json:"ulUpTnlInfo,omitempty"`
}

// SRBSetup
type SRBSetup struct {
	SRBID uint8 `json:"srbId"`
}

// DRBSetup
type DRBSetup struct {
	DRBID       uint8                          `json:"drbId"`
	DLUPTNLInfo []*UPTransportLayerInformation `json:"dlUpTnlInfo,omitempty"`
}

// DRBModified
type DRBModified struct {
	DRBID       uint8                          `json:"drbId"`
	DLUPTNLInfo []*UPTransportLayerInformation `json:"dlUpTnlInfo,omitempty"`
}

// SRBFailedToSetup
type SRBFailedToSetup struct {
	SRBID uint8  `json:"srbId"`
	Cause *Cause `json:"cause,omitempty"`
}

// DRBFailedToSetup
type DRBFailedToSetup struct {
	DRBID uint8  `json:"drbId"`
	Cause *Cause `json:"cause,omitempty"`
}

// DRBFailedToModify
type DRBFailedToModify struct {
	DRBID uint8  `json:"drbId"`
	Cause *Cause `json:"cause,omitempty"`
}

// QoSFlowLevelQoSParameters
type QoSFlowLevelQoSParameters struct {
	QoSCharacteristics               *QoSCharacteristics          `json:"qosCharacteristics"`
	NGRANAllocationRetentionPriority *AllocationRetentionPriority `json:"ngranAllocationRetentionPriority,omitempty"`
	GBRQoSFlowInfo                   *GBRQoSFlowInformation       `json:"gbrQosFlowInfo,omitempty"`
	ReflectiveQoSAttribute           bool                         `json:"reflectiveQosAttribute,omitempty"`
}

// QoSCharacteristics
type QoSCharacteristics struct {
	NonDynamic5QI *NonDynamic5QIDescriptor `json:"nonDynamic5qi,omitempty"`
	Dynamic5QI    *Dynamic5QIDescriptor    `json:"dynamic5qi,omitempty"`
}

// NonDynamic5QIDescriptor
type NonDynamic5QIDescriptor struct {
	FiveQI             uint8  `json:"fiveQi"`
	QoSPriorityLevel   uint8  `json:"qosPriorityLevel"`
	AveragingWindow    uint16 `json:"averagingWindow,omitempty"`
	MaxDataBurstVolume uint32 `json:"maxDataBurstVolume,omitempty"`
}

// Dynamic5QIDescriptor
type Dynamic5QIDescriptor struct {
	QoSPriorityLevel   uint8            `json:"qosPriorityLevel"`
	PacketDelayBudget  uint16           `json:"packetDelayBudget"`
	PacketErrorRate    *PacketErrorRate `json:"packetErrorRate,omitempty"`
	AveragingWindow    uint16           `json:"averagingWindow,omitempty"`
	MaxDataBurstVolume uint32           `json:"maxDataBurstVolume,omitempty"`
}

// PacketErrorRate
type PacketErrorRate struct {
	Scalar   uint8 `json:"scalar"`
	Exponent uint8 `json:"exponent"`
}

// AllocationRetentionPriority
type AllocationRetentionPriority struct {
	PriorityLevel           uint8  `json:"priorityLevel"`
	PreemptionCapability    string `json:"preemptionCapability"`    // "SHALL_NOT_TRIGGER_PREEMPTION", "MAY_TRIGGER_PREEMPTION"
	PreemptionVulnerability string `json:"preemptionVulnerability"` // "NOT_PREEMPTABLE", "PREEMPTABLE"
}

// GBRQoSFlowInformation
type GBRQoSFlowInformation struct {
	MaxFlowBitRateDL        uint64 `json:"maxFlowBitRateDl"`
	MaxFlowBitRateUL        uint64 `json:"maxFlowBitRateUl"`
	GuaranteedFlowBitRateDL uint64 `json:"guaranteedFlowBitRateDl"`
	GuaranteedFlowBitRateUL uint64 `json:"guaranteedFlowBitRateUl"`
	MaxPacketLossRateDL     uint16 `json:"maxPacketLossRateDl,omitempty"`
	MaxPacketLossRateUL     uint16 `json:"maxPacketLossRateUl,omitempty"`
}

// UPTransportLayerInformation (GTP-U tunnel info)
type UPTransportLayerInformation struct {
	GTPTunnel *GTPTunnel `json:"gtpTunnel"`
}

// GTPTunnel
type GTPTunnel struct {
	TransportLayerAddress net.IP `json:"transportLayerAddress"`
	GTPTEID               uint32 `json:"gtpTeid"`
}

// ULConfiguration
type ULConfiguration struct {
	ULUEConfiguration string `json:"ulUeConfiguration"` // "NO_DATA", "SHARED", "ONLY"
}

// CUtoDURRCInformation
type CUtoDURRCInformation struct {
	CGConfigInfo    []byte `json:"cgConfigInfo,omitempty"`
	UECapabilityRAT []byte `json:"ueCapabilityRat,omitempty"`
	MeasConfig      []byte `json:"measConfig,omitempty"`
}

// DUtoCURRCInformation
type DUtoCURRCInformation struct {
	CellGroupConfig  []byte `json:"cellGroupConfig"`
	MeasGapConfig    []byte `json:"measGapConfig,omitempty"`
	RequestedPMaxFR1 uint8  `json:"requestedPMaxFr1,omitempty"`
}

// CellsActivated
type CellsActivated struct {
	NRCGI *NRCGI `json:"nrCgi"`
}

// InitialULRRCMessage - DU -> CU
type InitialULRRCMessage struct {
	GNBDUUEF1APID      uint32 `json:"gnbDuUeF1apId"`
	NRCGI              *NRCGI `json:"nrCgi"`
	CRNTI              uint16 `json:"cRnti"` // Cell Radio Network Temporary Identifier
	RRCContainer       []byte `json:"rrcContainer"` // RRC Setup Request
	DUtoCURRCContainer []byte `json:"duToCuRrcContainer,omitempty"`
}

// DLRRCMessage - CU -> DU
type DLRRCMessage struct {
	GNBCUUEF1APID uint32 `json:"gnbCuUeF1apId"`
	GNBDUUEF1APID uint32 `json:"gnbDuUeF1apId"`
	SRBID         uint8  `json:"srbId"`
	RRCContainer  []byte `json:"rrcContainer"`
}

// ULRRCMessage - DU -> CU
type ULRRCMessage struct {
	GNBCUUEF1APID uint32 `json:"gnbCuUeF1apId"`
	GNBDUUEF1APID uint32 `json:"gnbDuUeF1apId"`
	SRBID         uint8  `json:"srbId"`
	RRCContainer  []byte `json:"rrcContainer"`
}

// DUConfigurationUpdate - DU -> CU
type DUConfigurationUpdate struct {
	TransactionID       uint8         `json:"transactionId"`
	ServedCellsToAdd    []*ServedCell `json:"servedCellsToAdd,omitempty"`
	ServedCellsToModify []*ServedCell `json:"servedCellsToModify,omitempty"`
	ServedCellsToDelete []*NRCGI      `json:"servedCellsToDelete,omitempty"`
}

// CUConfigurationUpdate - CU -> DU
type CUConfigurationUpdate struct {
	TransactionID     uint8              `json:"transactionId"`
	CellsToActivate   []*CellToActivate `json:"cellsToActivate,omitempty"`
	CellsToDeactivate []*NRCGI           `json:"cellsToDeactivate,omitempty"`
}

// Cause
type Cause struct {
	RadioNetwork *CauseRadioNetwork `json:"radioNetwork,omitempty"`
	Transport    *CauseTransport    `json:"transport,omitempty"`
	Protocol     *CauseProtocol     `json:"protocol,omitempty"`
	Misc         *CauseMisc         `json:"misc,omitempty"`
}

// CauseRadioNetwork
type CauseRadioNetwork struct {
	Value string `json:"value"`
}

// CauseTransport
type CauseTransport struct {
	Value string `json:"value"`
}

// CauseProtocol
type CauseProtocol struct {
	Value string `json:"value"`
}

// CauseMisc
type CauseMisc struct {
	Value string `json:"value"`
}
