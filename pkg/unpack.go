package dragon

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dragon-exp/unpacker_go/pkg/midas"
	"github.com/dragon-exp/unpacker_go/pkg/tstamp"
	"github.com/dragon-exp/unpacker_go/pkg/vme"
)

// Category identifies the kind of event produced by the unpacker.
type Category int32

const (
	HeadEvent            Category = 1
	HeadScalerEvent      Category = 2
	TailEvent            Category = 3
	TailScalerEvent      Category = 4
	CoincEvent           Category = 5
	TimestampDiagnostics Category = 6
	RunParametersEvent   Category = 7
)

func (c Category) String() string {
	switch c {
	case HeadEvent:
		return "head"
	case HeadScalerEvent:
		return "head scaler"
	case TailEvent:
		return "tail"
	case TailScalerEvent:
		return "tail scaler"
	case CoincEvent:
		return "coinc"
	case TimestampDiagnostics:
		return "timestamp diagnostics"
	case RunParametersEvent:
		return "run parameters"
	default:
		return "unknown"
	}
}

// Mode is either Singles or *Coincidence, fixed at construction.
type Mode interface {
	isMode()
}

// Singles decodes every head and tail event as it arrives.
type Singles struct{}

// Coincidence queues head and tail events for matching.
type Coincidence struct {
	Queue *tstamp.Queue[*midas.Event]
}

func (Singles) isMode()      {}
func (*Coincidence) isMode() {}

// EventCallback is called once for every produced event, after the
// corresponding fields of the Unpacker are filled.
type EventCallback func(category Category, u *Unpacker)

type Unpacker struct {
	Head          *Head
	Tail          *Tail
	Coinc         *Coinc
	HeadScaler    *Scaler
	TailScaler    *Scaler
	RunParameters *RunParameters
	Diagnostics   *tstamp.Diagnostics

	// Called for each produced event, may be nil
	OnEvent EventCallback

	mode      Mode
	autoFlush bool
	newest    uint64
	// Scratch events the coincidence is merged from
	coincHead *Head
	coincTail *Tail
	unpacked  []Category

	DecodeFailures uint64
}

func NewUnpacker(config Configuration) (*Unpacker, error) {
	u := &Unpacker{
		Coinc:         NewCoinc(),
		HeadScaler:    NewScaler("head"),
		TailScaler:    NewScaler("tail"),
		RunParameters: NewRunParameters(),
		Diagnostics:   tstamp.NewDiagnostics(config.CoincWindow),
		autoFlush:     config.AutoFlush,
		unpacked:      make([]Category, 0),
	}
	var err error
	if u.Head, err = NewHead(); err != nil {
		return nil, fmt.Errorf("error creating head: %w", err)
	}
	if u.Tail, err = NewTail(); err != nil {
		return nil, fmt.Errorf("error creating tail: %w", err)
	}
	if u.coincHead, err = NewHead(); err != nil {
		return nil, fmt.Errorf("error creating coincidence head: %w", err)
	}
	if u.coincTail, err = NewTail(); err != nil {
		return nil, fmt.Errorf("error creating coincidence tail: %w", err)
	}

	if config.SinglesMode {
		u.mode = Singles{}
		return u, nil
	}
	queueConfig := tstamp.Config{
		Window:  config.CoincWindow,
		MaxTime: config.QueueTime,
		MaxSize: config.QueueMaxSize,
	}
	queue, err := tstamp.NewQueue[*midas.Event](queueConfig, queueHandler{u}, u.Diagnostics)
	if err != nil {
		return nil, fmt.Errorf("error creating timestamp queue: %w", err)
	}
	u.mode = &Coincidence{Queue: queue}
	return u, nil
}

func (u *Unpacker) Mode() Mode {
	return u.mode
}

func (u *Unpacker) IsSinglesMode() bool {
	_, singles := u.mode.(Singles)
	return singles
}

// UnpackedCodes returns the categories produced by the last call.
func (u *Unpacker) UnpackedCodes() []Category {
	return append([]Category(nil), u.unpacked...)
}

// UnpackBuffer parses a serialized event and unpacks it.
func (u *Unpacker) UnpackBuffer(data []byte) ([]Category, error) {
	event, err := midas.NewEvent(data)
	if err != nil {
		return nil, fmt.Errorf("error reading event: %w", err)
	}
	return u.UnpackMidasEvent(event), nil
}

// UnpackMidasEvent routes event to its decoder or to the timestamp queue and
// returns the categories produced, in order.
func (u *Unpacker) UnpackMidasEvent(event *midas.Event) []Category {
	u.unpacked = u.unpacked[:0]

	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Unpacking %v, serial %d, timestamp %d", event.EventID(),
			event.Header.SerialNumber, event.Timestamp())
		logger.Info(message, "unpacker")
	}

	switch event.EventID() {
	case midas.HEAD_EVENT:
		u.handleSingles(event, tstamp.Head)
	case midas.TAIL_EVENT:
		u.handleSingles(event, tstamp.Tail)
	case midas.HEAD_SCALER:
		u.unpackScaler(u.HeadScaler, event, HeadScalerEvent)
	case midas.TAIL_SCALER:
		u.unpackScaler(u.TailScaler, event, TailScalerEvent)
	case midas.BOR, midas.EOR:
		u.unpackRunParameters(event)
	default:
		err := &UnknownEventError{EventID: event.EventID(), Serial: event.Header.SerialNumber}
		logger.Warning(err.Error(), "unpacker")
	}
	return u.UnpackedCodes()
}

func (u *Unpacker) handleSingles(event *midas.Event, tag tstamp.Tag) {
	switch mode := u.mode.(type) {
	case Singles:
		u.processSingle(event)
	case *Coincidence:
		// The queue owns its entries
		owned := &midas.Event{Header: event.Header, Payload: bytes.Clone(event.Payload)}
		mode.Queue.Push(owned, owned.Timestamp(), tag)
		if owned.Timestamp() > u.newest {
			u.newest = owned.Timestamp()
		}
		if u.autoFlush {
			mode.Queue.Flush(u.newest)
		}
	}
}

// FlushQueue evicts the entries older than now minus the queue time and
// reports the diagnostics. It does nothing in singles mode.
func (u *Unpacker) FlushQueue(now uint64) []Category {
	mode, ok := u.mode.(*Coincidence)
	if !ok {
		return nil
	}
	u.unpacked = u.unpacked[:0]
	n := mode.Queue.Flush(now)
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Flushed %d events, %d left in queue", n, mode.Queue.Size())
		logger.Info(message, "unpacker")
	}
	u.emit(TimestampDiagnostics)
	return u.UnpackedCodes()
}

// FlushQueueIterative evicts the oldest queued event and returns the number
// of events left. Call it until it returns 0 to drain the queue.
func (u *Unpacker) FlushQueueIterative() (int, []Category) {
	mode, ok := u.mode.(*Coincidence)
	if !ok {
		return 0, nil
	}
	u.unpacked = u.unpacked[:0]
	left := mode.Queue.FlushIterative()
	u.emit(TimestampDiagnostics)
	return left, u.UnpackedCodes()
}

// HandleBOR prepares a new run: leftover queued events are drained, every
// decoder and the diagnostics are reset, and variables are read from src
// unless it is nil.
func (u *Unpacker) HandleBOR(src VariableSource) error {
	u.unpacked = u.unpacked[:0]
	if mode, ok := u.mode.(*Coincidence); ok && !mode.Queue.Empty() {
		message := fmt.Sprintf("Draining %d events left from the previous run", mode.Queue.Size())
		logger.Warning(message, "unpacker")
		mode.Queue.FlushAll()
	}

	u.Head.Reset()
	u.Tail.Reset()
	u.Coinc.Reset()
	u.coincHead.Reset()
	u.coincTail.Reset()
	u.HeadScaler.Reset()
	u.TailScaler.Reset()
	u.RunParameters.Reset()
	u.Diagnostics.Reset()
	u.newest = 0
	u.DecodeFailures = 0

	if src == nil {
		return nil
	}
	err := errors.Join(
		u.Head.SetVariables(src),
		u.Tail.SetVariables(src),
		u.coincHead.SetVariables(src),
		u.coincTail.SetVariables(src),
		u.HeadScaler.SetVariables(src),
		u.TailScaler.SetVariables(src),
	)
	if err != nil {
		return fmt.Errorf("error setting variables: %w", err)
	}
	if configuration.Verbosity > 0 {
		logger.Info("Variables set", "unpacker")
	}
	return nil
}

func (u *Unpacker) emit(category Category) {
	u.unpacked = append(u.unpacked, category)
	if u.OnEvent != nil {
		u.OnEvent(category, u)
	}
}

func (u *Unpacker) processSingle(event *midas.Event) {
	switch event.EventID() {
	case midas.HEAD_EVENT:
		u.Head.Reset()
		u.reportFailures("head", event, u.Head.Unpack(event))
		u.Head.Calculate()
		u.emit(HeadEvent)
	case midas.TAIL_EVENT:
		u.Tail.Reset()
		u.reportFailures("tail", event, u.Tail.Unpack(event))
		u.Tail.Calculate()
		u.emit(TailEvent)
	default:
		message := fmt.Sprintf("unknown event ID %d in singles path, skipping", uint16(event.EventID()))
		logger.Error(message)
	}
}

func (u *Unpacker) processCoinc(headEvent *midas.Event, tailEvent *midas.Event) {
	u.coincHead.Reset()
	u.reportFailures("coinc head", headEvent, u.coincHead.Unpack(headEvent))
	u.coincHead.Calculate()
	u.coincTail.Reset()
	u.reportFailures("coinc tail", tailEvent, u.coincTail.Unpack(tailEvent))
	u.coincTail.Calculate()

	u.Coinc.Reset()
	if err := u.Coinc.Merge(u.coincHead, u.coincTail); err != nil {
		message := fmt.Errorf("skipping coincidence: %w", err)
		logger.Error(message.Error())
		return
	}
	u.emit(CoincEvent)
}

func (u *Unpacker) unpackScaler(scaler *Scaler, event *midas.Event, category Category) {
	if err := scaler.Unpack(event); err != nil {
		message := fmt.Errorf("error unpacking scaler serial %d: %w", event.Header.SerialNumber, err)
		logger.Error(message.Error())
	}
	u.emit(category)
}

func (u *Unpacker) unpackRunParameters(event *midas.Event) {
	if err := u.RunParameters.ReadData(event); err != nil {
		message := fmt.Errorf("error reading run parameters: %w", err)
		logger.Error(message.Error())
	}
	u.emit(RunParametersEvent)
}

func (u *Unpacker) reportFailures(subsystem string, event *midas.Event, failures []error) {
	for _, err := range failures {
		message := fmt.Sprintf("%s serial %d: %v", subsystem, event.Header.SerialNumber, err)
		switch {
		case errors.Is(err, ErrMissingBank):
			if configuration.Verbosity > 0 {
				logger.Warning(message, "unpacker")
			}
			continue
		case errors.Is(err, vme.ErrInvalidMarker):
			// expected protocol noise
			if configuration.Verbosity > 1 {
				logger.Info(message, "unpacker")
			}
		default:
			logger.Error(message)
		}
		u.DecodeFailures++
	}
}

// queueHandler receives the output of the timestamp queue.
type queueHandler struct {
	u *Unpacker
}

func (h queueHandler) HandleCoinc(head tstamp.Entry[*midas.Event], tail tstamp.Entry[*midas.Event]) {
	h.u.processCoinc(head.Value, tail.Value)
}

func (h queueHandler) HandleSingle(entry tstamp.Entry[*midas.Event]) {
	h.u.processSingle(entry.Value)
}
