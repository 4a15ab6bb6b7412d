package sh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/stp.go/pkg/capture"
	"github.com/robotalks/stp.go/pkg/env"
	"github.com/robotalks/stp.go/pkg/stp"
	"github.com/robotalks/stp.go/pkg/trace"
)

func TestParseHex(t *testing.T) {
	testCases := []struct {
		args   []string
		expect []byte
	}{
		{[]string{"10ba", "a3"}, []byte{0x10, 0xba, 0xa3}},
		{[]string{"0x10", "0xBA"}, []byte{0x10, 0xba}},
		{[]string{"10:ba,a3"}, []byte{0x10, 0xba, 0xa3}},
		{[]string{"f"}, []byte{0x0f}},
		{nil, nil},
	}
	for _, tc := range testCases {
		data, err := ParseHex(tc.args)
		require.NoError(t, err)
		require.Equal(t, tc.expect, data)
	}
	_, err := ParseHex([]string{"zz"})
	require.Error(t, err)
}

func TestFormatRecord(t *testing.T) {
	testCases := []struct {
		rec    trace.Record
		expect string
	}{
		{trace.Record{Master: 1, Channel: 2, Packet: stp.Packet{Type: stp.Data16, Data: 0xbe}}, "m1 c2 D16 0x00be"},
		{trace.Record{Packet: stp.Packet{Type: stp.Data8, Data: 0xab, Timestamp: 5, HasTimestamp: true, Marked: true}}, "m0 c0 D8 0xab marked ts=5"},
		{trace.Record{Packet: stp.Packet{Type: stp.Data4, Data: 0x3}}, "m0 c0 D4 0x3"},
		{trace.Record{Packet: stp.Packet{Type: stp.Data32, Data: 0xbeef}}, "m0 c0 D32 0x0000beef"},
		{trace.Record{Packet: stp.Packet{Type: stp.Data64, Data: 1}}, "m0 c0 D64 0x0000000000000001"},
		{trace.Record{Master: 3, Packet: stp.Packet{Type: stp.Master, Data: 3}}, "m3 c0 MASTER"},
		{trace.Record{Packet: stp.Packet{Type: stp.GError, Data: 0x12}}, "m0 c0 GERROR 0x12"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, FormatRecord(&tc.rec))
	}
}

func TestShellDecode(t *testing.T) {
	s := New(&env.Config{SkipNull: true})
	records := s.Decode([]byte{0x10, 0xba, 0xa3})
	require.Equal(t, trace.RecordList{
		{Master: 0xab, Packet: stp.Packet{Type: stp.Master, Data: 0xab}},
	}, records)
	records = s.Decode([]byte{0xfb, 0x63, 0x44})
	require.Equal(t, trace.RecordList{
		{Master: 0xab, Channel: 0xab, Packet: stp.Packet{Type: stp.Channel, Data: 0xab}},
	}, records)
	require.True(t, s.Decoder.State().IsReceiving())

	s.SyncLoss()
	require.False(t, s.Decoder.State().IsReady())
	require.Empty(t, s.Decode(stp.NewEncoder().Data(stp.Data8, 1).Bytes()))

	s.Reset(false)
	require.True(t, s.Decoder.State().IsReady())
	require.Len(t, s.Decode(stp.NewEncoder().Data(stp.Data8, 1).Null().Bytes()), 1)
}

func TestShellLoad(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "trace.cap")
	f, err := os.Create(fn)
	require.NoError(t, err)
	w := capture.NewWriter(f)
	require.NoError(t, w.WriteChunk(stp.NewEncoder().Master8(2).Data(stp.Data8, 7).Bytes()))
	require.NoError(t, w.WriteSyncLoss())
	require.NoError(t, w.WriteChunk(stp.NewEncoder().Data(stp.Data8, 8).Async().Data(stp.Data8, 9).Null().Bytes()))
	require.NoError(t, f.Close())

	s := New(&env.Config{SkipNull: true, DataOnly: true})
	records, err := s.Load(fn, false)
	require.NoError(t, err)
	require.Equal(t, trace.RecordList{
		{Master: 2, Packet: stp.Packet{Type: stp.Data8, Data: 7}},
		{Packet: stp.Packet{Type: stp.Data8, Data: 9}},
	}, records)

	_, err = s.Load(filepath.Join(t.TempDir(), "missing"), false)
	require.Error(t, err)
}
