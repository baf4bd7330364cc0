package dragon

import (
	"fmt"

	"github.com/dragon-exp/unpacker_go/pkg/calib"
	"github.com/dragon-exp/unpacker_go/pkg/midas"
	"github.com/dragon-exp/unpacker_go/pkg/vme"
)

const NoData = calib.NoData

// unpackModule decodes the bank called name into module. found is false if
// the event has no such bank.
func unpackModule(event *midas.Event, name string, module *vme.Adc) (found bool, failures []error) {
	data, ok := event.FindBank(name)
	if !ok {
		return false, []error{fmt.Errorf("%w: %q", ErrMissingBank, name)}
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Unpacking bank %s: %d bytes", name, len(data))
		logger.Info(message, "modules")
	}
	return true, module.UnpackBank(data)
}

func identityChannels(n int) []int {
	channels := make([]int, n)
	for i := range channels {
		channels[i] = i
	}
	return channels
}

func newNoData(n int) []float64 {
	values := make([]float64, n)
	fillNoData(values)
	return values
}

func fillNoData(values []float64) {
	for i := range values {
		values[i] = NoData
	}
}

func anyValid(values []float64) bool {
	for _, v := range values {
		if calib.Valid(v) {
			return true
		}
	}
	return false
}
