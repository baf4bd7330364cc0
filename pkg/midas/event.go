package midas

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrShortBuffer = errors.New("buffer is too short")
	ErrBankOverrun = errors.New("bank overruns event payload")
)

var (
	eventHeaderSize = binary.Size(EventHeaderStruct{})
	bankHeaderSize  = binary.Size(BankHeaderStruct{})
)

// Event is one raw buffer as handed over by the reader: a header and the
// payload of banks.
type Event struct {
	Header  EventHeaderStruct
	Payload []byte
}

type Bank struct {
	Name     string
	BankType BankTypeType
	Data     []byte
}

func (e *Event) EventID() EventIDType {
	return e.Header.EventID
}

func (e *Event) Timestamp() uint64 {
	return e.Header.Timestamp
}

func (e *Event) Size() uint32 {
	return e.Header.DataSize
}

// ReadEvent parses one event from the beginning of data. The returned
// payload aliases data.
func ReadEvent(data []byte) (EventHeaderStruct, []byte, error) {
	var header EventHeaderStruct
	if len(data) < eventHeaderSize {
		return header, nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrShortBuffer, len(data), eventHeaderSize)
	}
	headerReader := bytes.NewReader(data[:eventHeaderSize])
	if err := binary.Read(headerReader, binary.LittleEndian, &header); err != nil {
		return header, nil, err
	}

	end := eventHeaderSize + int(header.DataSize)
	if len(data) < end {
		return header, nil, fmt.Errorf("%w: %d bytes, event needs %d", ErrShortBuffer, len(data), end)
	}
	return header, data[eventHeaderSize:end], nil
}

// ReadEventFromReader reads the next event from r. io.EOF is returned
// unwrapped when r is exhausted at an event boundary.
func ReadEventFromReader(r io.Reader) (*Event, error) {
	var header EventHeaderStruct
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated event header", ErrShortBuffer)
		}
		return nil, err
	}
	payload := make([]byte, header.DataSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading payload of event serial %d: %w", header.SerialNumber, err)
	}
	return &Event{Header: header, Payload: payload}, nil
}

func NewEvent(data []byte) (*Event, error) {
	header, payload, err := ReadEvent(data)
	if err != nil {
		return nil, err
	}
	return &Event{Header: header, Payload: payload}, nil
}

// Banks walks the payload and returns every bank in order.
func (e *Event) Banks() ([]Bank, error) {
	banks := make([]Bank, 0)
	position := 0
	for position < len(e.Payload) {
		bank, nRead, err := readBank(e.Payload, position)
		if err != nil {
			return banks, err
		}
		banks = append(banks, bank)
		position += nRead
	}
	return banks, nil
}

// FindBank returns the data of the first bank called name.
func (e *Event) FindBank(name string) ([]byte, bool) {
	position := 0
	for position < len(e.Payload) {
		bank, nRead, err := readBank(e.Payload, position)
		if err != nil {
			return nil, false
		}
		if bank.Name == name {
			return bank.Data, true
		}
		position += nRead
	}
	return nil, false
}

func readBank(payload []byte, position int) (Bank, int, error) {
	if len(payload)-position < bankHeaderSize {
		return Bank{}, 0, fmt.Errorf("%w: bank header at offset %d", ErrBankOverrun, position)
	}
	var header BankHeaderStruct
	headerReader := bytes.NewReader(payload[position : position+bankHeaderSize])
	if err := binary.Read(headerReader, binary.LittleEndian, &header); err != nil {
		return Bank{}, 0, err
	}

	start := position + bankHeaderSize
	end := start + int(header.Size)
	if end > len(payload) {
		return Bank{}, 0, fmt.Errorf("%w: bank %q needs %d bytes at offset %d", ErrBankOverrun,
			string(header.Name[:]), header.Size, start)
	}
	bank := Bank{
		Name:     string(header.Name[:]),
		BankType: header.BankType,
		Data:     payload[start:end],
	}
	nRead := bankHeaderSize + alignBank(int(header.Size))
	if position+nRead > len(payload) {
		// last bank without padding
		nRead = len(payload) - position
	}
	return bank, nRead, nil
}
