package midas

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSizes(t *testing.T) {
	assert.Equal(t, 20, eventHeaderSize)
	assert.Equal(t, 12, bankHeaderSize)
	assert.Equal(t, 0, alignBank(0))
	assert.Equal(t, 8, alignBank(1))
	assert.Equal(t, 8, alignBank(8))
	assert.Equal(t, 16, alignBank(12))
}

func TestBuildAndRead(t *testing.T) {
	data := NewEventBuilder(HEAD_EVENT, 42, 123456).
		AddDwordBank("VADC", []uint32{1, 2, 3}).
		AddDwordBank("VTDC", []uint32{0xdeadbeef}).
		Bytes()

	event, err := NewEvent(data)
	require.NoError(t, err)
	assert.Equal(t, HEAD_EVENT, event.EventID())
	assert.Equal(t, uint32(42), event.Header.SerialNumber)
	assert.Equal(t, uint64(123456), event.Timestamp())
	// two bank headers, 12 bytes padded to 16 and 4 padded to 8
	assert.Equal(t, uint32(12+16+12+8), event.Size())

	banks, err := event.Banks()
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "VADC", banks[0].Name)
	assert.Equal(t, TID_DWORD, banks[0].BankType)
	assert.Equal(t, []uint32{1, 2, 3}, DwordsOf(banks[0].Data))

	tdc, ok := event.FindBank("VTDC")
	require.True(t, ok)
	assert.Equal(t, []uint32{0xdeadbeef}, DwordsOf(tdc))

	_, ok = event.FindBank("NONE")
	assert.False(t, ok)
}

func TestQwordBank(t *testing.T) {
	event := NewEventBuilder(BOR, 7, 0).AddQwordBank("RUNP", []uint64{1, 1 << 40, 3}).Event()
	data, ok := event.FindBank("RUNP")
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 1 << 40, 3}, QwordsOf(data))
}

func TestReadEventShortBuffer(t *testing.T) {
	_, _, err := ReadEvent(make([]byte, 10))
	assert.True(t, errors.Is(err, ErrShortBuffer))

	data := NewEventBuilder(TAIL_EVENT, 1, 1).AddDwordBank("TADC", []uint32{5}).Bytes()
	_, _, err = ReadEvent(data[:len(data)-1])
	assert.True(t, errors.Is(err, ErrShortBuffer))
}

func TestBankOverrun(t *testing.T) {
	event := NewEventBuilder(HEAD_EVENT, 1, 1).AddDwordBank("VADC", []uint32{1, 2}).Event()
	// Claim more data than the payload carries
	event.Payload[8] = 0xff
	_, err := event.Banks()
	assert.True(t, errors.Is(err, ErrBankOverrun))
	_, ok := event.FindBank("VADC")
	assert.False(t, ok)
}

func TestReadEventFromReader(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(NewEventBuilder(HEAD_EVENT, 1, 10).AddDwordBank("VADC", []uint32{1}).Bytes())
	stream.Write(NewEventBuilder(TAIL_EVENT, 2, 12).AddDwordBank("TADC", []uint32{2}).Bytes())

	first, err := ReadEventFromReader(&stream)
	require.NoError(t, err)
	assert.Equal(t, HEAD_EVENT, first.EventID())
	second, err := ReadEventFromReader(&stream)
	require.NoError(t, err)
	assert.Equal(t, TAIL_EVENT, second.EventID())
	assert.Equal(t, uint64(12), second.Timestamp())

	_, err = ReadEventFromReader(&stream)
	assert.Equal(t, io.EOF, err)
}

func TestEventIDString(t *testing.T) {
	assert.Equal(t, "begin of run", BOR.String())
	assert.Equal(t, "unknown", EventIDType(99).String())
}
