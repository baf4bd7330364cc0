package midas

import (
	"bytes"
	"encoding/binary"
)

// EventBuilder assembles a raw buffer from banks. It is used to synthesize
// buffers for replay and tests.
type EventBuilder struct {
	header  EventHeaderStruct
	payload bytes.Buffer
}

func NewEventBuilder(eventID EventIDType, serial uint32, timestamp uint64) *EventBuilder {
	return &EventBuilder{
		header: EventHeaderStruct{
			EventID:      eventID,
			SerialNumber: serial,
			Timestamp:    timestamp,
		},
	}
}

func (b *EventBuilder) AddBank(name string, bankType BankTypeType, data []byte) *EventBuilder {
	var header BankHeaderStruct
	copy(header.Name[:], name)
	header.BankType = bankType
	header.Size = uint32(len(data))
	binary.Write(&b.payload, binary.LittleEndian, header)
	b.payload.Write(data)
	padding := alignBank(len(data)) - len(data)
	b.payload.Write(make([]byte, padding))
	return b
}

func (b *EventBuilder) AddDwordBank(name string, words []uint32) *EventBuilder {
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*i:], w)
	}
	return b.AddBank(name, TID_DWORD, data)
}

func (b *EventBuilder) AddQwordBank(name string, words []uint64) *EventBuilder {
	data := make([]byte, 8*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint64(data[8*i:], w)
	}
	return b.AddBank(name, TID_QWORD, data)
}

func (b *EventBuilder) Event() *Event {
	header := b.header
	header.DataSize = uint32(b.payload.Len())
	return &Event{Header: header, Payload: append([]byte(nil), b.payload.Bytes()...)}
}

// Bytes returns the serialized header followed by the payload.
func (b *EventBuilder) Bytes() []byte {
	event := b.Event()
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, event.Header)
	out.Write(event.Payload)
	return out.Bytes()
}

// DwordsOf decodes a TID_DWORD bank.
func DwordsOf(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return words
}

// QwordsOf decodes a TID_QWORD bank.
func QwordsOf(data []byte) []uint64 {
	words := make([]uint64, len(data)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[8*i:])
	}
	return words
}
