package stp

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testChunk struct {
	data []byte
	err  error
}

type testChunkReader struct {
	chunks []testChunk
	block  chan struct{}
}

func (r *testChunkReader) ReadChunk() ([]byte, error) {
	if len(r.chunks) == 0 {
		if r.block != nil {
			<-r.block
		}
		return nil, io.EOF
	}
	c := r.chunks[0]
	r.chunks = r.chunks[1:]
	return c.data, c.err
}

type testObserver struct {
	bytes     int
	chunks    int
	syncLosts int
}

func (o *testObserver) ChunkReceived(size int) {
	o.bytes += size
	o.chunks++
}

func (o *testObserver) SyncLost() {
	o.syncLosts++
}

func TestPumpRun(t *testing.T) {
	stream := NewEncoder().Null().Master8(0x12).DataTS(Data16, 0xabcd, 0x10).Bytes()
	resync := NewEncoder().Data(Data8, 0x55).Async().Data(Data8, 0x66).Bytes()
	r := &testChunkReader{chunks: []testChunk{
		{data: stream[:3]},
		{data: stream[3:]},
		{data: []byte{0x06}},
		{err: ErrSyncLoss},
		{data: resync},
	}}
	var pkts PacketList
	var states []SyncState
	var observer testObserver
	p := NewPump(r, Config{Handler: &pkts})
	p.Observer = &observer
	p.Notifier = StateChangedFunc(func(state SyncState) {
		states = append(states, state)
	})

	require.NoError(t, p.Run(context.Background()))
	require.Equal(t, []Packet{
		{Type: Null},
		{Type: Master, Data: 0x12},
		{Type: Data16, Data: 0xabcd, Timestamp: 0x10, HasTimestamp: true},
		{Type: Null},
		{Type: Async},
		{Type: Data8, Data: 0x66},
	}, []Packet(pkts))
	require.Equal(t, []SyncState{SyncStateReady, SyncStateSyncing, SyncStateReady}, states)
	require.Equal(t, len(stream)+1+len(resync), observer.bytes)
	require.Equal(t, 4, observer.chunks)
	require.Equal(t, 1, observer.syncLosts)
	require.Equal(t, SyncStateReady, p.Decoder().State())
}

func TestPumpReadError(t *testing.T) {
	errRead := errors.New("read failure")
	r := &testChunkReader{chunks: []testChunk{{data: []byte{0x00}}, {err: errRead}}}
	p := NewPump(r, Config{})
	require.Equal(t, errRead, p.Run(context.Background()))
}

func TestPumpCancel(t *testing.T) {
	r := &testChunkReader{block: make(chan struct{})}
	defer close(r.block)
	p := NewPump(r, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var err error
	wg.Add(1)
	go func() {
		defer wg.Done()
		err = p.Run(ctx)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	wg.Wait()
	require.Equal(t, context.Canceled, err)
}

func TestPumpNotifiesInitialState(t *testing.T) {
	testCases := []struct {
		name      string
		outOfSync bool
		expect    SyncState
	}{
		{"in sync", false, SyncStateReady},
		{"out of sync", true, SyncStateSyncing},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &testChunkReader{chunks: []testChunk{{data: []byte{0x00}}}}
			var states []SyncState
			p := NewPump(r, Config{StartOutOfSync: tc.outOfSync})
			p.Notifier = StateChangedFunc(func(state SyncState) {
				states = append(states, state)
			})
			require.NoError(t, p.Run(context.Background()))
			require.Equal(t, []SyncState{tc.expect}, states)
		})
	}
}
