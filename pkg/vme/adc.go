package vme

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// NoData is the value of a channel not present in the current event.
const NoData int16 = -1

// MaxChannels is the largest width addressable by the 5-bit channel field.
const MaxChannels = 32

// WordSize is the stride, in bytes, between two module words in a bank.
const WordSize = 4

type WordType uint8

// Word type discriminator, bits 24-26
const (
	DataWord    WordType = 0x0 // 0 0 0
	HeaderWord  WordType = 0x2 // 0 1 0
	FooterWord  WordType = 0x4 // 0 0 1
	InvalidWord WordType = 0x6 // 0 1 1
)

func (w WordType) String() string {
	switch w {
	case DataWord:
		return "data"
	case HeaderWord:
		return "header"
	case FooterWord:
		return "footer"
	case InvalidWord:
		return "invalid"
	default:
		return fmt.Sprintf("unknown(0x%x)", uint8(w))
	}
}

var (
	ErrInvalidMarker     = errors.New("invalid word marker")
	ErrUnknownWordType   = errors.New("unknown word type")
	ErrChannelOutOfRange = errors.New("channel out of range")
	ErrBadWidth          = errors.New("bad module width")
	ErrTruncatedWord     = errors.New("truncated word")
)

// DecodeError reports a single word that could not be applied to a module.
type DecodeError struct {
	Word    uint32
	Type    WordType
	Channel int
	Err     error
}

func (e *DecodeError) Error() string {
	if errors.Is(e.Err, ErrChannelOutOfRange) {
		return fmt.Sprintf("word 0x%08x: %v: %d", e.Word, e.Err, e.Channel)
	}
	return fmt.Sprintf("word 0x%08x (%v): %v", e.Word, e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Adc holds the state of one CAEN V792/V785/V775 style module. The three
// models share the same output buffer format.
type Adc struct {
	Data []int16
	// Bit i set when channel i reported an under/overflow
	Underflow uint32
	Overflow  uint32
	Count     uint32
	NPresent  uint16
}

func NewAdc(width int) (*Adc, error) {
	if width <= 0 || width > MaxChannels {
		return nil, fmt.Errorf("%w: %d (must be in 1..%d)", ErrBadWidth, width, MaxChannels)
	}
	adc := &Adc{Data: make([]int16, width)}
	adc.Reset()
	return adc, nil
}

func (m *Adc) Width() int {
	return len(m.Data)
}

func (m *Adc) Reset() {
	for i := range m.Data {
		m.Data[i] = NoData
	}
	m.Underflow = 0
	m.Overflow = 0
	m.Count = 0
	m.NPresent = 0
}

// Get returns the value of channel ch, or NoData if ch is not a channel of
// this module.
func (m *Adc) Get(ch int) int16 {
	if ch < 0 || ch >= len(m.Data) {
		return NoData
	}
	return m.Data[ch]
}

func TypeOf(word uint32) WordType {
	return WordType((word >> 24) & 0x7)
}

// UnpackWord applies one word to the module.
func (m *Adc) UnpackWord(word uint32) error {
	wordType := TypeOf(word)
	switch wordType {
	case DataWord:
		return m.unpackData(word)
	case HeaderWord:
		m.NPresent = uint16((word >> 6) & 0x0FF)
		return nil
	case FooterWord:
		m.Count = word & 0x0FFFFFF
		return nil
	case InvalidWord:
		return &DecodeError{Word: word, Type: wordType, Err: ErrInvalidMarker}
	default:
		return &DecodeError{Word: word, Type: wordType, Err: ErrUnknownWordType}
	}
}

func (m *Adc) unpackData(word uint32) error {
	ch := int((word >> 16) & 0x01F)
	if ch >= len(m.Data) {
		return &DecodeError{Word: word, Type: DataWord, Channel: ch, Err: ErrChannelOutOfRange}
	}
	if (word>>13)&0x1 != 0 {
		m.Underflow |= 1 << ch
	}
	if (word>>12)&0x1 != 0 {
		m.Overflow |= 1 << ch
	}
	m.Data[ch] = int16(word & 0x0FFF)
	return nil
}

// UnpackBank decodes every word of a bank, in order. A failing word does not
// stop the scan; all failures are returned.
func (m *Adc) UnpackBank(bank []byte) []error {
	var failures []error
	position := 0
	for ; position+WordSize <= len(bank); position += WordSize {
		word := binary.LittleEndian.Uint32(bank[position : position+WordSize])
		if err := m.UnpackWord(word); err != nil {
			failures = append(failures, err)
		}
	}
	if position < len(bank) {
		failures = append(failures, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedWord, len(bank)-position))
	}
	return failures
}

// Encoding helpers, used to build synthetic buffers.

func DataWordOf(ch int, value uint16, underflow bool, overflow bool) uint32 {
	word := uint32(DataWord)<<24 | (uint32(ch)&0x01F)<<16 | uint32(value)&0x0FFF
	if underflow {
		word |= 1 << 13
	}
	if overflow {
		word |= 1 << 12
	}
	return word
}

func HeaderWordOf(nPresent uint16) uint32 {
	return uint32(HeaderWord)<<24 | (uint32(nPresent)&0x0FF)<<6
}

func FooterWordOf(count uint32) uint32 {
	return uint32(FooterWord)<<24 | count&0x0FFFFFF
}

func InvalidWordOf() uint32 {
	return uint32(InvalidWord) << 24
}

func EncodeWords(words []uint32) []byte {
	data := make([]byte, len(words)*WordSize)
	for i, word := range words {
		binary.LittleEndian.PutUint32(data[i*WordSize:], word)
	}
	return data
}
