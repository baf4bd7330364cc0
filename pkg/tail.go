package dragon

import (
	"errors"

	"github.com/dragon-exp/unpacker_go/pkg/calib"
	"github.com/dragon-exp/unpacker_go/pkg/midas"
	"github.com/dragon-exp/unpacker_go/pkg/vme"
)

const (
	NumAnodes      = 4
	NumDsssdStrips = 32
	NumMcpChannels = 2
)

type TailVariables struct {
	IcBank       string
	DsssdBank    string
	TdcBank      string
	AnodeChannel []int
	DsssdChannel []int
	McpChannel   []int
	Anode        calib.Coefficients
	Dsssd        calib.Coefficients
	Mcp          calib.Coefficients
}

func DefaultTailVariables() TailVariables {
	return TailVariables{
		IcBank:       "TAIC",
		DsssdBank:    "TADS",
		TdcBank:      "TTDC",
		AnodeChannel: identityChannels(NumAnodes),
		DsssdChannel: identityChannels(NumDsssdStrips),
		McpChannel:   identityChannels(NumMcpChannels),
		Anode:        calib.NewCoefficients(NumAnodes),
		Dsssd:        calib.NewCoefficients(NumDsssdStrips),
		Mcp:          calib.NewCoefficients(NumMcpChannels),
	}
}

// Tail is the heavy ion event: ionization chamber anodes and DSSSD strips on
// two ADCs, MCP times on a TDC.
type Tail struct {
	Variables TailVariables
	IcAdc     *vme.Adc
	DsssdAdc  *vme.Adc
	Tdc       *vme.Adc

	Serial      uint32
	TriggerTime float64
	Anode       []float64
	AnodeSum    float64
	Dsssd       []float64
	DsssdMax    float64
	DsssdHit    int
	McpTime     []float64
	McpTOF      float64

	present bool
}

func NewTail() (*Tail, error) {
	icAdc, err := vme.NewAdc(vme.MaxChannels)
	if err != nil {
		return nil, err
	}
	dsssdAdc, err := vme.NewAdc(vme.MaxChannels)
	if err != nil {
		return nil, err
	}
	tdc, err := vme.NewAdc(vme.MaxChannels)
	if err != nil {
		return nil, err
	}
	t := &Tail{
		Variables: DefaultTailVariables(),
		IcAdc:     icAdc,
		DsssdAdc:  dsssdAdc,
		Tdc:       tdc,
		Anode:     newNoData(NumAnodes),
		Dsssd:     newNoData(NumDsssdStrips),
		McpTime:   newNoData(NumMcpChannels),
	}
	t.Reset()
	return t, nil
}

func (t *Tail) Reset() {
	t.IcAdc.Reset()
	t.DsssdAdc.Reset()
	t.Tdc.Reset()
	t.Serial = 0
	t.TriggerTime = NoData
	fillNoData(t.Anode)
	fillNoData(t.Dsssd)
	fillNoData(t.McpTime)
	t.AnodeSum = NoData
	t.DsssdMax = NoData
	t.DsssdHit = NoData
	t.McpTOF = NoData
	t.present = false
}

// Present reports whether the last unpacked event carried any of the ADCs.
func (t *Tail) Present() bool {
	return t.present
}

func (t *Tail) Unpack(event *midas.Event) []error {
	t.Serial = event.Header.SerialNumber
	t.TriggerTime = float64(event.Timestamp())

	icFound, failures := unpackModule(event, t.Variables.IcBank, t.IcAdc)
	dsssdFound, dsssdFailures := unpackModule(event, t.Variables.DsssdBank, t.DsssdAdc)
	_, tdcFailures := unpackModule(event, t.Variables.TdcBank, t.Tdc)
	failures = append(failures, dsssdFailures...)
	failures = append(failures, tdcFailures...)
	t.present = icFound || dsssdFound

	calib.ChannelMap(t.Anode, t.Variables.AnodeChannel, t.IcAdc.Data)
	calib.ChannelMap(t.Dsssd, t.Variables.DsssdChannel, t.DsssdAdc.Data)
	calib.ChannelMap(t.McpTime, t.Variables.McpChannel, t.Tdc.Data)
	return failures
}

func (t *Tail) Calculate() {
	t.Variables.Anode.Apply(t.Anode)
	t.Variables.Dsssd.Apply(t.Dsssd)
	t.Variables.Mcp.Apply(t.McpTime)

	if anyValid(t.Anode) {
		t.AnodeSum = calib.Sum(t.Anode)
	}
	order := calib.IndexSort(t.Dsssd, calib.GreaterAndValid[float64])
	if hit := order[0]; calib.Valid(t.Dsssd[hit]) {
		t.DsssdHit = hit
		t.DsssdMax = t.Dsssd[hit]
	}
	t.McpTOF = calib.TOF(t.McpTime[1], t.McpTime[0])
}

func (t *Tail) SetVariables(src VariableSource) error {
	next := t.Variables
	next.AnodeChannel = append([]int(nil), t.Variables.AnodeChannel...)
	next.DsssdChannel = append([]int(nil), t.Variables.DsssdChannel...)
	next.McpChannel = append([]int(nil), t.Variables.McpChannel...)
	err := errors.Join(
		readString(src, "tail/bank/ic", &next.IcBank),
		readString(src, "tail/bank/dsssd", &next.DsssdBank),
		readString(src, "tail/bank/tdc", &next.TdcBank),
		readInts(src, "tail/anode/channel", next.AnodeChannel),
		readInts(src, "tail/dsssd/channel", next.DsssdChannel),
		readInts(src, "tail/mcp/channel", next.McpChannel),
		readCoefficients(src, "tail/anode", &next.Anode),
		readCoefficients(src, "tail/dsssd", &next.Dsssd),
		readCoefficients(src, "tail/mcp", &next.Mcp),
	)
	if err != nil {
		return err
	}
	t.Variables = next
	return nil
}
