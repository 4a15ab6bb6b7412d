package stp

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"
)

var (
	// ErrSyncLoss is returned by a ChunkReader when the upstream capture
	// detected a discontinuity, e.g. an overflow of the trace buffer.
	ErrSyncLoss = errors.New("sync loss")
)

// ChunkReader reads raw STP bytes in chunks. A returned chunk must not be
// modified by later calls.
type ChunkReader interface {
	ReadChunk() ([]byte, error)
}

// Observer watches the data flowing through a Pump.
type Observer interface {
	ChunkReceived(size int)
	SyncLost()
}

// Pump feeds chunks from a ChunkReader into a Decoder.
type Pump struct {
	Reader   ChunkReader
	Notifier StateNotifier
	Observer Observer

	decoder *Decoder
	state   SyncState
}

type chunk struct {
	data []byte
	err  error
}

// NewPump creates a Pump with a decoder created from config.
func NewPump(r ChunkReader, config Config) *Pump {
	return &Pump{Reader: r, decoder: NewDecoder(config)}
}

// Decoder gets the decoder owned by the pump.
func (p *Pump) Decoder() *Decoder {
	return p.decoder
}

// Run processes the stream until the reader is exhausted or ctx is canceled.
// A clean io.EOF from the reader ends Run with nil error.
// The Notifier receives the initial state first, then every change of
// the ready status.
func (p *Pump) Run(ctx context.Context) error {
	p.state = p.decoder.State()
	if n := p.Notifier; n != nil {
		n.StateChanged(p.state)
	}
	chunkCh := make(chan chunk)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go p.readLoop(subCtx, chunkCh)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-chunkCh:
			switch c.err {
			case nil:
				p.decode(c.data)
			case ErrSyncLoss:
				glog.Warning("stp: upstream sync loss")
				if o := p.Observer; o != nil {
					o.SyncLost()
				}
				p.decoder.SyncLoss()
				p.applyState()
			case io.EOF:
				glog.V(2).Info("stp: end of stream")
				return nil
			default:
				return c.err
			}
		}
	}
}

func (p *Pump) readLoop(ctx context.Context, chunkCh chan chunk) {
	for {
		data, err := p.Reader.ReadChunk()
		select {
		case chunkCh <- chunk{data: data, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil && err != ErrSyncLoss {
			return
		}
	}
}

func (p *Pump) decode(data []byte) {
	if o := p.Observer; o != nil {
		o.ChunkReceived(len(data))
	}
	p.decoder.Decode(data)
	p.applyState()
}

func (p *Pump) applyState() {
	state := p.decoder.State()
	if state.IsReady() == p.state.IsReady() {
		p.state = state
		return
	}
	p.state = state
	if state.IsReady() {
		glog.Info("stp: synchronized")
	} else {
		glog.Info("stp: out of sync")
	}
	if n := p.Notifier; n != nil {
		n.StateChanged(state)
	}
}
