// Package mac implements the TS 38.321 MAC scheduler: deterministic
// uplink/downlink resource allocation and per-process HARQ bookkeeping.
package mac

import (
	"sync"

	ducontext "github.com/fivegcore/emulator/nf/du/internal/context"
)

// ResourceAllocation is the RB/MCS/HARQ-process grant for one UE.
type ResourceAllocation struct {
	StartRB     int `json:"startRb"`
	NumRB       int `json:"numRb"`
	MCS         int `json:"mcs"`
	HARQProcess int `json:"harqProcess"`
}

// UplinkGrant is one UE's scheduled uplink transmission opportunity.
type UplinkGrant struct {
	UEID               uint32             `json:"ueId"`
	ResourceAllocation ResourceAllocation `json:"resourceAllocation"`
	TimingAdvance      int                `json:"timingAdvance"`
}

// DownlinkAssignment is one UE's scheduled downlink transmission.
type DownlinkAssignment struct {
	UEID               uint32             `json:"ueId"`
	ResourceAllocation ResourceAllocation `json:"resourceAllocation"`
}

// harqProcessState tracks one UE's HARQ process per TS 38.321 § 5.4.1.
type harqProcessState struct {
	retxCount   int
	maxRetx     int
	pendingData bool
}

// Scheduler allocates uplink/downlink resources and tracks HARQ state.
// Allocation formulas are grounded on du.py's MacScheduler.schedule_uplink
// / schedule_downlink: deterministic functions of the UE id, not a real
// buffer-status/CQI-driven scheduler.
type Scheduler struct {
	mu            sync.Mutex
	harqProcesses map[uint32]map[int]*harqProcessState
}

// NewScheduler creates an empty MAC scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		harqProcesses: make(map[uint32]map[int]*harqProcessState),
	}
}

// ScheduleUplink grants uplink resources to every UE with an ACTIVE MAC
// state, per TS 38.321 § 5.4.
func (s *Scheduler) ScheduleUplink(ues []*ducontext.UEContext) map[uint32]UplinkGrant {
	grants := make(map[uint32]UplinkGrant)
	for _, ue := range ues {
		if ue.MACState != ducontext.MACStateActive {
			continue
		}
		id := ue.GNBDUUEF1APID
		grants[id] = UplinkGrant{
			UEID: id,
			ResourceAllocation: ResourceAllocation{
				StartRB:     int(id*10) % 100,
				NumRB:       10,
				MCS:         16,
				HARQProcess: int(id) % 8,
			},
			TimingAdvance: 0,
		}
	}
	return grants
}

// ScheduleDownlink assigns downlink resources to every UE with an ACTIVE
// MAC state, per TS 38.321 § 5.3.
func (s *Scheduler) ScheduleDownlink(ues []*ducontext.UEContext) map[uint32]DownlinkAssignment {
	assignments := make(map[uint32]DownlinkAssignment)
	for _, ue := range ues {
		if ue.MACState != ducontext.MACStateActive {
			continue
		}
		id := ue.GNBDUUEF1APID
		assignments[id] = DownlinkAssignment{
			UEID: id,
			ResourceAllocation: ResourceAllocation{
				StartRB:     int(id*12) % 100,
				NumRB:       12,
				MCS:         20,
				HARQProcess: int(id) % 8,
			},
		}
	}
	return assignments
}

// ProcessHARQFeedback records an ACK/NACK for one UE's HARQ process per
// TS 38.321 § 5.4.1: ACK clears retransmission state, NACK increments the
// retx counter and drops the pending data once maxRetx is reached.
func (s *Scheduler) ProcessHARQFeedback(ueID uint32, harqProcess int, ack bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.harqProcesses[ueID] == nil {
		s.harqProcesses[ueID] = make(map[int]*harqProcessState)
	}
	proc, ok := s.harqProcesses[ueID][harqProcess]
	if !ok {
		proc = &harqProcessState{maxRetx: 4, pendingData: true}
		s.harqProcesses[ueID][harqProcess] = proc
	}

	if ack {
		proc.retxCount = 0
		proc.pendingData = false
		return
	}

	proc.retxCount++
	if proc.retxCount >= proc.maxRetx {
		proc.pendingData = false
	}
}

// HARQState reports the current retransmission count and pending-data flag
// for one UE's HARQ process, used by tests and status reporting.
func (s *Scheduler) HARQState(ueID uint32, harqProcess int) (retxCount int, pendingData bool, exists bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	procs, ok := s.harqProcesses[ueID]
	if !ok {
		return 0, false, false
	}
	proc, ok := procs[harqProcess]
	if !ok {
		return 0, false, false
	}
	return proc.retxCount, proc.pendingData, true
}
