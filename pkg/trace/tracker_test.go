package trace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/stp.go/pkg/stp"
)

func decode(h stp.PacketHandler, data []byte) {
	stp.NewDecoder(stp.Config{Handler: h}).Decode(data)
}

func TestTracker(t *testing.T) {
	var recs RecordList
	tr := NewTracker(&Filter{Handler: &recs, DataOnly: true})
	decode(tr, stp.NewEncoder().
		Data(stp.Data8, 1).
		Master8(0x12).Channel8(0x34).Data(stp.Data16, 0xbeef).
		Channel16(0x5678).Channel8(0x9a).Data(stp.Data8, 2).
		Master16(0x1234).Data(stp.Data4, 3).
		Async().Data(stp.Data32, 4).
		Bytes())
	require.Equal(t, RecordList{
		{Packet: stp.Packet{Type: stp.Data8, Data: 1}},
		{Master: 0x12, Channel: 0x34, Packet: stp.Packet{Type: stp.Data16, Data: 0xbeef}},
		{Master: 0x12, Channel: 0x569a, Packet: stp.Packet{Type: stp.Data8, Data: 2}},
		{Master: 0x1234, Packet: stp.Packet{Type: stp.Data4, Data: 3}},
		{Packet: stp.Packet{Type: stp.Data32, Data: 4}},
	}, recs)
}

func TestTrackerStateChanged(t *testing.T) {
	tr := NewTracker(nil)
	decode(tr, stp.NewEncoder().Master8(1).Channel8(2).Bytes())
	require.EqualValues(t, 1, tr.Master())
	require.EqualValues(t, 2, tr.Channel())
	tr.StateChanged(stp.SyncStateReady)
	require.EqualValues(t, 1, tr.Master())
	tr.StateChanged(stp.SyncStateSyncing)
	require.Zero(t, tr.Master())
	require.Zero(t, tr.Channel())
}

func TestFilter(t *testing.T) {
	var recs RecordList
	f := &Filter{Handler: &recs, SkipNull: true}
	for _, typ := range []stp.ControlType{stp.Null, stp.Flag, stp.Null, stp.Data8} {
		f.HandleRecord(&Record{Packet: stp.Packet{Type: typ}})
	}
	require.Equal(t, RecordList{
		{Packet: stp.Packet{Type: stp.Flag}},
		{Packet: stp.Packet{Type: stp.Data8}},
	}, recs)
}

func TestFilterWithoutHandler(t *testing.T) {
	f := &Filter{SkipNull: true}
	require.NotPanics(t, func() {
		f.HandleRecord(&Record{Packet: stp.Packet{Type: stp.Data8, Data: 1}})
	})
	tr := NewTracker(f)
	require.NotPanics(t, func() {
		decode(tr, stp.NewEncoder().Master8(1).Data(stp.Data8, 2).Bytes())
	})
	require.EqualValues(t, 1, tr.Master())
}
