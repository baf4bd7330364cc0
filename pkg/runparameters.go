package dragon

import (
	"fmt"

	"github.com/dragon-exp/unpacker_go/pkg/midas"
)

const RunParametersBank = "RUNP"

// RunParameters holds the run metadata of the begin and end of run events.
// The RUNP bank carries: run time, head trigger time, tail trigger time.
type RunParameters struct {
	RunNumber        uint32
	RunStart         float64
	RunStop          float64
	HeadTriggerStart float64
	HeadTriggerStop  float64
	TailTriggerStart float64
	TailTriggerStop  float64
}

func NewRunParameters() *RunParameters {
	r := &RunParameters{}
	r.Reset()
	return r
}

func (r *RunParameters) Reset() {
	r.RunNumber = 0
	r.RunStart = NoData
	r.RunStop = NoData
	r.HeadTriggerStart = NoData
	r.HeadTriggerStop = NoData
	r.TailTriggerStart = NoData
	r.TailTriggerStop = NoData
}

func (r *RunParameters) ReadData(event *midas.Event) error {
	data, ok := event.FindBank(RunParametersBank)
	if !ok {
		return fmt.Errorf("run parameters: %w: %q", ErrMissingBank, RunParametersBank)
	}
	words := midas.QwordsOf(data)
	if len(words) < 3 {
		return fmt.Errorf("run parameters: %w: %d words, want 3", midas.ErrShortBuffer, len(words))
	}
	r.RunNumber = event.Header.SerialNumber
	switch event.EventID() {
	case midas.BOR:
		r.RunStart = float64(words[0])
		r.HeadTriggerStart = float64(words[1])
		r.TailTriggerStart = float64(words[2])
	case midas.EOR:
		r.RunStop = float64(words[0])
		r.HeadTriggerStop = float64(words[1])
		r.TailTriggerStop = float64(words[2])
	default:
		return fmt.Errorf("run parameters from %v event", event.EventID())
	}
	return nil
}
