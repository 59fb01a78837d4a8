package mac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ducontext "github.com/fivegcore/emulator/nf/du/internal/context"
)

func activeUEs(ids ...uint32) []*ducontext.UEContext {
	m := ducontext.NewManager()
	var out []*ducontext.UEContext
	for range ids {
		out = append(out, m.CreateContext())
	}
	return out
}

func TestScheduleUplink_UsesPerUEFormula(t *testing.T) {
	s := NewScheduler()
	ues := activeUEs(1, 2)

	grants := s.ScheduleUplink(ues)

	require.Len(t, grants, 2)
	g1 := grants[ues[0].GNBDUUEF1APID]
	assert.Equal(t, (int(ues[0].GNBDUUEF1APID)*10)%100, g1.ResourceAllocation.StartRB)
	assert.Equal(t, 10, g1.ResourceAllocation.NumRB)
	assert.Equal(t, 16, g1.ResourceAllocation.MCS)
	assert.Equal(t, int(ues[0].GNBDUUEF1APID)%8, g1.ResourceAllocation.HARQProcess)
}

func TestScheduleDownlink_UsesPerUEFormula(t *testing.T) {
	s := NewScheduler()
	ues := activeUEs(1)

	assignments := s.ScheduleDownlink(ues)

	a := assignments[ues[0].GNBDUUEF1APID]
	assert.Equal(t, (int(ues[0].GNBDUUEF1APID)*12)%100, a.ResourceAllocation.StartRB)
	assert.Equal(t, 12, a.ResourceAllocation.NumRB)
	assert.Equal(t, 20, a.ResourceAllocation.MCS)
}

func TestScheduleUplink_SkipsInactiveUEs(t *testing.T) {
	s := NewScheduler()
	ues := activeUEs(1)
	ues[0].MACState = ducontext.MACStateInactive

	grants := s.ScheduleUplink(ues)

	assert.Empty(t, grants)
}

func TestProcessHARQFeedback_ACKClearsRetxCount(t *testing.T) {
	s := NewScheduler()

	s.ProcessHARQFeedback(1, 0, false)
	s.ProcessHARQFeedback(1, 0, false)
	retx, pending, ok := s.HARQState(1, 0)
	require.True(t, ok)
	assert.Equal(t, 2, retx)
	assert.True(t, pending)

	s.ProcessHARQFeedback(1, 0, true)
	retx, pending, ok = s.HARQState(1, 0)
	require.True(t, ok)
	assert.Equal(t, 0, retx)
	assert.False(t, pending)
}

func TestProcessHARQFeedback_DropsPendingAfterMaxRetx(t *testing.T) {
	s := NewScheduler()

	for i := 0; i < 4; i++ {
		s.ProcessHARQFeedback(1, 3, false)
	}

	retx, pending, ok := s.HARQState(1, 3)
	require.True(t, ok)
	assert.Equal(t, 4, retx)
	assert.False(t, pending)
}
