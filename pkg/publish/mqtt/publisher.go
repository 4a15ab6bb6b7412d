package mqtt

import (
	"context"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	v1 "github.com/robotalks/stp.go/pkg/proto/stp/v1"
	"github.com/robotalks/stp.go/pkg/trace"
)

const (
	// DefaultPublishTimeout is the default time to wait for a publish to complete.
	DefaultPublishTimeout = time.Second
	// DefaultPendingSize is the default number of in-flight publishes
	// in async mode.
	DefaultPendingSize = 1024
)

// Pubber publishes payloads on a topic.
type Pubber interface {
	Pub(topic string, payload []byte) paho.Token
}

// PublishObserver is notified with publish results.
type PublishObserver interface {
	RecordPublished()
	PublishFailed()
}

// Publisher publishes trace records as protobuf messages.
// Records go to topic <source>/m<master>/c<channel>.
//
// By default HandleRecord waits up to Timeout for each publish, which
// stalls the decoder on a slow broker. After Async, HandleRecord only
// queues the publish and Run waits for completions. When the queue is
// full, HandleRecord falls back to waiting itself.
type Publisher struct {
	Pubber   Pubber
	Source   string
	Session  string
	Timeout  time.Duration
	Observer PublishObserver

	pendingCh chan pending
}

type pending struct {
	topic string
	token paho.Token
}

// NewPublisher creates a Publisher.
func NewPublisher(p Pubber, source, session string) *Publisher {
	return &Publisher{Pubber: p, Source: source, Session: session, Timeout: DefaultPublishTimeout}
}

// Topic returns the topic records from master and channel are published to.
func (p *Publisher) Topic(master, channel uint16) string {
	buf := make([]byte, 0, len(p.Source)+16)
	buf = append(buf, p.Source...)
	buf = append(buf, "/m"...)
	buf = strconv.AppendUint(buf, uint64(master), 10)
	buf = append(buf, "/c"...)
	buf = strconv.AppendUint(buf, uint64(channel), 10)
	return string(buf)
}

// Encode converts r into its wire form.
func (p *Publisher) Encode(r *trace.Record) ([]byte, error) {
	return proto.Marshal(&v1.Record{
		Source:       p.Source,
		Session:      p.Session,
		Master:       uint32(r.Master),
		Channel:      uint32(r.Channel),
		Type:         r.Type.String(),
		Data:         r.Data.U64(),
		Timestamp:    r.Timestamp,
		HasTimestamp: r.HasTimestamp,
		Marked:       r.Marked,
	})
}

// HandleRecord implements trace.RecordHandler.
func (p *Publisher) HandleRecord(r *trace.Record) {
	payload, err := p.Encode(r)
	if err != nil {
		glog.Errorf("mqtt: encode record error: %v", err)
		p.failed()
		return
	}
	topic := p.Topic(r.Master, r.Channel)
	token := p.Pubber.Pub(topic, payload)
	glog.V(2).Infof("PUB %q %s", topic, r.Type)
	if p.pendingCh != nil {
		select {
		case p.pendingCh <- pending{topic: topic, token: token}:
			return
		default:
		}
	}
	p.complete(topic, token)
}

// Async switches to asynchronous mode with up to size pending publishes.
// Run must be running to process completions.
func (p *Publisher) Async(size int) *Publisher {
	if size <= 0 {
		size = DefaultPendingSize
	}
	p.pendingCh = make(chan pending, size)
	return p
}

// Run waits for completions of queued publishes until ctx is done.
// Publishes still queued at that time are completed before returning.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case pub := <-p.pendingCh:
			p.complete(pub.topic, pub.token)
		case <-ctx.Done():
			for {
				select {
				case pub := <-p.pendingCh:
					p.complete(pub.topic, pub.token)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

func (p *Publisher) complete(topic string, token paho.Token) {
	if p.Timeout > 0 && !token.WaitTimeout(p.Timeout) {
		glog.Warningf("mqtt: publish %q timeout", topic)
		p.failed()
		return
	}
	if err := token.Error(); err != nil {
		glog.Warningf("mqtt: publish %q error: %v", topic, err)
		p.failed()
		return
	}
	if o := p.Observer; o != nil {
		o.RecordPublished()
	}
}

func (p *Publisher) failed() {
	if o := p.Observer; o != nil {
		o.PublishFailed()
	}
}

// DecodeRecord parses a published payload.
func DecodeRecord(payload []byte) (*v1.Record, error) {
	var r v1.Record
	if err := proto.Unmarshal(payload, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
