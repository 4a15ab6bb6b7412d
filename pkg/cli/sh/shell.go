package sh

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/stp.go/pkg/capture"
	"github.com/robotalks/stp.go/pkg/env"
	"github.com/robotalks/stp.go/pkg/stp"
	"github.com/robotalks/stp.go/pkg/trace"
)

// Shell provides ishell backed interactive decoder.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Config  *env.Config
	Decoder *stp.Decoder
	Tracker *trace.Tracker

	records trace.RecordList
}

const (
	shellKey = "$shell"
	prompt   = "stp > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&DecodeCmd,
		&SyncLossCmd,
		&ResetCmd,
		&StateCmd,
		&LoadCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Tracker = trace.NewTracker(&trace.Filter{Handler: &s.records, SkipNull: conf.SkipNull, DataOnly: conf.DataOnly})
	s.Decoder = stp.NewDecoder(stp.Config{Handler: s.Tracker, StartOutOfSync: conf.StartOutOfSync})
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Decode feeds bytes into the decoder and returns produced records.
func (s *Shell) Decode(data []byte) trace.RecordList {
	s.Decoder.Decode(data)
	return s.takeRecords()
}

// SyncLoss signals a sync loss to the decoder.
func (s *Shell) SyncLoss() {
	s.Decoder.SyncLoss()
	s.Tracker.Reset()
}

// Reset replaces the decoder with a new one.
func (s *Shell) Reset(outOfSync bool) {
	s.Decoder = stp.NewDecoder(stp.Config{Handler: s.Tracker, StartOutOfSync: outOfSync})
	s.Tracker.Reset()
	s.records = nil
}

// Load decodes a capture file and returns produced records.
func (s *Shell) Load(fn string, raw bool) (trace.RecordList, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r stp.ChunkReader
	if raw {
		r = capture.Raw(f, s.Config.ChunkSize)
	} else {
		r = capture.NewReader(f)
	}
	for {
		chunk, err := r.ReadChunk()
		switch err {
		case nil:
			s.Decoder.Decode(chunk)
		case stp.ErrSyncLoss:
			s.SyncLoss()
		default:
			records := s.takeRecords()
			if err == io.EOF {
				err = nil
			}
			return records, err
		}
	}
}

func (s *Shell) takeRecords() trace.RecordList {
	records := s.records
	s.records = nil
	return records
}

// Print prints records.
func (s *Shell) Print(c *ishell.Context, records trace.RecordList) {
	for n := range records {
		if s.OutputJSON {
			out, err := json.Marshal(NewJSONRecord(&records[n]))
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(string(out))
			continue
		}
		c.Println(FormatRecord(&records[n]))
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParseHex parses hex bytes from args, e.g. "10ba", "0x10 0xba", "10:ba".
func ParseHex(args []string) ([]byte, error) {
	var data []byte
	for _, arg := range args {
		for _, tok := range strings.FieldsFunc(arg, func(r rune) bool {
			return r == ':' || r == ',' || r == ' '
		}) {
			tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
			if len(tok)%2 != 0 {
				tok = "0" + tok
			}
			b, err := hex.DecodeString(tok)
			if err != nil {
				return nil, fmt.Errorf("invalid hex %q: %w", tok, err)
			}
			data = append(data, b...)
		}
	}
	return data, nil
}

// FormatRecord prints a record into friendly string for display.
func FormatRecord(r *trace.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "m%d c%d %s", r.Master, r.Channel, r.Type)
	switch {
	case r.Type.IsData():
		fmt.Fprintf(&sb, " 0x%0*x", r.Type.Bits()/4, r.Data.U64())
	case r.Type == stp.Master || r.Type == stp.Channel || r.Type == stp.Null ||
		r.Type == stp.Async || r.Type == stp.Flag:
	default:
		fmt.Fprintf(&sb, " %#x", r.Data.U64())
	}
	if r.Marked {
		sb.WriteString(" marked")
	}
	if ts, ok := r.TS(); ok {
		fmt.Fprintf(&sb, " ts=%d", ts)
	}
	return sb.String()
}

// JSONRecord is the JSON form of trace.Record.
type JSONRecord struct {
	Master    uint16  `json:"master"`
	Channel   uint16  `json:"channel"`
	Type      string  `json:"type"`
	Data      uint64  `json:"data"`
	Timestamp *uint64 `json:"timestamp,omitempty"`
	Marked    bool    `json:"marked,omitempty"`
}

// NewJSONRecord converts a record.
func NewJSONRecord(r *trace.Record) *JSONRecord {
	jr := &JSONRecord{
		Master:  r.Master,
		Channel: r.Channel,
		Type:    r.Type.String(),
		Data:    r.Data.U64(),
		Marked:  r.Marked,
	}
	if ts, ok := r.TS(); ok {
		jr.Timestamp = &ts
	}
	return jr
}

var (
	// DecodeCmd decodes hex bytes.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"d"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			data, err := ParseHex(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			s.Print(c, s.Decode(data))
		},
	}

	// SyncLossCmd signals sync loss.
	SyncLossCmd = ishell.Cmd{
		Name: "syncloss",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).SyncLoss()
		},
	}

	// ResetCmd resets the decoder.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "[out-of-sync]",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Reset(len(c.Args) > 0 && c.Args[0] == "out-of-sync")
		},
	}

	// StateCmd prints decoder state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			d := ShellFrom(c).Decoder
			state := d.State()
			sync := "syncing"
			if state.IsReady() {
				sync = "ready"
			}
			if state.IsReceiving() {
				sync += " receiving"
			}
			c.Printf("%s m%d c%d ts=%d\n", sync, d.Master(), d.Channel(), d.Timestamp())
		},
	}

	// LoadCmd decodes a capture file.
	LoadCmd = ishell.Cmd{
		Name:    "load",
		Aliases: []string{"l"},
		Help:    "FILE [raw]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			s := ShellFrom(c)
			raw := s.Config.Raw || (len(c.Args) > 1 && c.Args[1] == "raw")
			records, err := s.Load(c.Args[0], raw)
			s.Print(c, records)
			if err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := env.Load()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).Run(flag.Args()...)
}
