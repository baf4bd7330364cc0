package dragon

import (
	"errors"

	"github.com/dragon-exp/unpacker_go/pkg/calib"
	"github.com/dragon-exp/unpacker_go/pkg/midas"
	"github.com/dragon-exp/unpacker_go/pkg/vme"
)

// Number of gamma array crystals
const NumHeadChannels = 30

type HeadVariables struct {
	AdcBank    string
	TdcBank    string
	AdcChannel []int
	TdcChannel []int
	Energy     calib.Coefficients
	Time       calib.Coefficients
}

func DefaultHeadVariables() HeadVariables {
	return HeadVariables{
		AdcBank:    "HADC",
		TdcBank:    "HTDC",
		AdcChannel: identityChannels(NumHeadChannels),
		TdcChannel: identityChannels(NumHeadChannels),
		Energy:     calib.NewCoefficients(NumHeadChannels),
		Time:       calib.NewCoefficients(NumHeadChannels),
	}
}

// Head is the gamma array event: one ADC for the crystal energies and one TDC
// for their times.
type Head struct {
	Variables HeadVariables
	Adc       *vme.Adc
	Tdc       *vme.Adc

	Serial      uint32
	TriggerTime float64
	Energy      []float64
	Time        []float64
	Sum         float64
	// Crystal with the highest energy, NoData if no crystal fired
	Hit0 int
	E0   float64
	T0   float64

	present bool
}

func NewHead() (*Head, error) {
	adc, err := vme.NewAdc(vme.MaxChannels)
	if err != nil {
		return nil, err
	}
	tdc, err := vme.NewAdc(vme.MaxChannels)
	if err != nil {
		return nil, err
	}
	h := &Head{
		Variables: DefaultHeadVariables(),
		Adc:       adc,
		Tdc:       tdc,
		Energy:    newNoData(NumHeadChannels),
		Time:      newNoData(NumHeadChannels),
	}
	h.Reset()
	return h, nil
}

func (h *Head) Reset() {
	h.Adc.Reset()
	h.Tdc.Reset()
	h.Serial = 0
	h.TriggerTime = NoData
	fillNoData(h.Energy)
	fillNoData(h.Time)
	h.Sum = NoData
	h.Hit0 = NoData
	h.E0 = NoData
	h.T0 = NoData
	h.present = false
}

// Present reports whether the last unpacked event carried the energy ADC.
func (h *Head) Present() bool {
	return h.present
}

// Unpack decodes the raw banks of event and returns the word failures.
func (h *Head) Unpack(event *midas.Event) []error {
	h.Serial = event.Header.SerialNumber
	h.TriggerTime = float64(event.Timestamp())

	found, failures := unpackModule(event, h.Variables.AdcBank, h.Adc)
	h.present = found
	_, tdcFailures := unpackModule(event, h.Variables.TdcBank, h.Tdc)
	failures = append(failures, tdcFailures...)

	calib.ChannelMap(h.Energy, h.Variables.AdcChannel, h.Adc.Data)
	calib.ChannelMap(h.Time, h.Variables.TdcChannel, h.Tdc.Data)
	return failures
}

// Calculate calibrates the mapped channels and ranks the hits.
func (h *Head) Calculate() {
	h.Variables.Energy.Apply(h.Energy)
	h.Variables.Time.Apply(h.Time)

	if anyValid(h.Energy) {
		h.Sum = calib.Sum(h.Energy)
	}
	order := calib.IndexSort(h.Energy, calib.GreaterAndValid[float64])
	if hit := order[0]; calib.Valid(h.Energy[hit]) {
		h.Hit0 = hit
		h.E0 = h.Energy[hit]
		h.T0 = h.Time[hit]
	}
}

func (h *Head) SetVariables(src VariableSource) error {
	next := h.Variables
	next.AdcChannel = append([]int(nil), h.Variables.AdcChannel...)
	next.TdcChannel = append([]int(nil), h.Variables.TdcChannel...)
	err := errors.Join(
		readString(src, "head/bank/adc", &next.AdcBank),
		readString(src, "head/bank/tdc", &next.TdcBank),
		readInts(src, "head/adc/channel", next.AdcChannel),
		readInts(src, "head/tdc/channel", next.TdcChannel),
		readCoefficients(src, "head/energy", &next.Energy),
		readCoefficients(src, "head/time", &next.Time),
	)
	if err != nil {
		return err
	}
	h.Variables = next
	return nil
}
