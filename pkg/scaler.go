package dragon

import (
	"errors"
	"fmt"

	"github.com/dragon-exp/unpacker_go/pkg/midas"
)

const NumScalerChannels = 17

type ScalerVariables struct {
	Bank string
	// Seconds between two scaler reads
	ReadPeriod float64
	Names      []string
}

func DefaultScalerVariables(side string) ScalerVariables {
	v := ScalerVariables{
		ReadPeriod: 1,
		Names:      make([]string, NumScalerChannels),
	}
	switch side {
	case "tail":
		v.Bank = "TSCL"
	default:
		v.Bank = "HSCL"
	}
	for i := range v.Names {
		v.Names[i] = fmt.Sprintf("channel_%d", i)
	}
	return v
}

// Scaler holds the counters of one side. Sum accumulates across reads until
// Reset.
type Scaler struct {
	Side      string
	Variables ScalerVariables
	Count     [NumScalerChannels]uint32
	Sum       [NumScalerChannels]uint64
	Rate      [NumScalerChannels]float64
}

func NewScaler(side string) *Scaler {
	return &Scaler{
		Side:      side,
		Variables: DefaultScalerVariables(side),
	}
}

func (s *Scaler) Reset() {
	s.Count = [NumScalerChannels]uint32{}
	s.Sum = [NumScalerChannels]uint64{}
	s.Rate = [NumScalerChannels]float64{}
}

// Unpack reads one scaler event. Words beyond the known channels are
// ignored.
func (s *Scaler) Unpack(event *midas.Event) error {
	data, ok := event.FindBank(s.Variables.Bank)
	if !ok {
		return fmt.Errorf("%s scaler: %w: %q", s.Side, ErrMissingBank, s.Variables.Bank)
	}
	words := midas.DwordsOf(data)
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Unpacking %d %s scaler words", len(words), s.Side)
		logger.Info(message, "scaler")
	}
	for i, count := range words {
		if i >= NumScalerChannels {
			break
		}
		s.Count[i] = count
		s.Sum[i] += uint64(count)
		s.Rate[i] = float64(count) / s.Variables.ReadPeriod
	}
	return nil
}

func (s *Scaler) SetVariables(src VariableSource) error {
	next := s.Variables
	next.Names = append([]string(nil), s.Variables.Names...)
	prefix := "scaler/" + s.Side
	err := errors.Join(
		readString(src, prefix+"/bank", &next.Bank),
		readFloat(src, prefix+"/read_period", &next.ReadPeriod),
		readStrings(src, prefix+"/names", next.Names),
	)
	if err != nil {
		return err
	}
	if next.ReadPeriod <= 0 {
		return &VariableError{Key: prefix + "/read_period", Value: fmt.Sprint(next.ReadPeriod),
			Err: errors.New("must be positive")}
	}
	s.Variables = next
	return nil
}
