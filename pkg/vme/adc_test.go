package vme

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdcWidth(t *testing.T) {
	for _, width := range []int{0, -1, 33} {
		_, err := NewAdc(width)
		assert.ErrorIs(t, err, ErrBadWidth, "width %d", width)
	}

	adc, err := NewAdc(32)
	require.NoError(t, err)
	assert.Equal(t, 32, adc.Width())
	for ch := 0; ch < 32; ch++ {
		assert.Equal(t, NoData, adc.Get(ch))
	}
	assert.Equal(t, NoData, adc.Get(32))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		word uint32
		want WordType
	}{
		{DataWordOf(3, 100, false, false), DataWord},
		{HeaderWordOf(5), HeaderWord},
		{FooterWordOf(77), FooterWord},
		{InvalidWordOf(), InvalidWord},
		{0x01000000, WordType(1)},
		{0xF7000000, WordType(7)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeOf(tt.word), "word 0x%08x", tt.word)
	}
}

func TestUnpackBankRoundTrip(t *testing.T) {
	adc, err := NewAdc(32)
	require.NoError(t, err)

	words := []uint32{
		HeaderWordOf(3),
		DataWordOf(0, 4095, false, true),
		DataWordOf(7, 123, false, false),
		DataWordOf(31, 0, true, false),
		FooterWordOf(0x00ABCDEF),
	}
	failures := adc.UnpackBank(EncodeWords(words))
	assert.Empty(t, failures)

	want := make([]int16, 32)
	for i := range want {
		want[i] = NoData
	}
	want[0] = 4095
	want[7] = 123
	want[31] = 0
	if diff := cmp.Diff(want, adc.Data); diff != "" {
		t.Errorf("channel data mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint32(1<<0), adc.Overflow)
	assert.Equal(t, uint32(1<<31), adc.Underflow)
	assert.Equal(t, uint16(3), adc.NPresent)
	assert.Equal(t, uint32(0x00ABCDEF), adc.Count)
}

func TestUnpackBankToleratesBadWords(t *testing.T) {
	adc, err := NewAdc(16)
	require.NoError(t, err)

	words := []uint32{
		InvalidWordOf(),
		DataWordOf(20, 55, false, false), // beyond a 16 channel module
		0x03000000,                       // discriminator 3 is not defined
		DataWordOf(2, 99, false, false),
	}
	data := append(EncodeWords(words), 0x01, 0x02)
	failures := adc.UnpackBank(data)
	require.Len(t, failures, 4)

	assert.ErrorIs(t, failures[0], ErrInvalidMarker)
	assert.ErrorIs(t, failures[1], ErrChannelOutOfRange)
	assert.ErrorIs(t, failures[2], ErrUnknownWordType)
	assert.ErrorIs(t, failures[3], ErrTruncatedWord)

	var decodeErr *DecodeError
	require.True(t, errors.As(failures[1], &decodeErr))
	assert.Equal(t, 20, decodeErr.Channel)

	// Words after the failures are still applied
	assert.Equal(t, int16(99), adc.Get(2))
}

func TestResetIdempotent(t *testing.T) {
	adc, err := NewAdc(8)
	require.NoError(t, err)
	adc.UnpackBank(EncodeWords([]uint32{DataWordOf(1, 10, true, true), FooterWordOf(4)}))

	adc.Reset()
	once := *adc
	once.Data = append([]int16(nil), adc.Data...)
	adc.Reset()
	assert.Equal(t, once, *adc)
	assert.Equal(t, uint32(0), adc.Count)
	assert.Equal(t, uint32(0), adc.Overflow)
}
