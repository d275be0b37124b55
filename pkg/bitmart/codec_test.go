package bitmart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	raw := deflateBytes(t, []byte(`{"subscribe":"price","symbol":"BTC_USDT","data":{"current_price":"1"},"code":0}`))

	envelope, err := decodeFrame(raw)
	require.NoError(t, err)
	require.NotNil(t, envelope)
	assert.Equal(t, "price", envelope.Subscribe)
	assert.Equal(t, "BTC_USDT", envelope.Symbol)
	require.NotNil(t, envelope.Code)
	assert.Equal(t, StatusSuccess, *envelope.Code)
	assert.False(t, envelope.FirstSubscribe)
}

func TestDecodeFrameAbsentCode(t *testing.T) {
	raw := deflateBytes(t, []byte(`{"subscribe":"price","symbol":"BTC_USDT","data":{},"firstSubscribe":true}`))

	envelope, err := decodeFrame(raw)
	require.NoError(t, err)
	require.NotNil(t, envelope)
	assert.Nil(t, envelope.Code)
	assert.True(t, envelope.FirstSubscribe)
}

func TestDecodeFrameEmptyPayload(t *testing.T) {
	// An empty inflate result is a no-op, not an error.
	envelope, err := decodeFrame(deflateBytes(t, nil))
	require.NoError(t, err)
	assert.Nil(t, envelope)

	envelope, err = decodeFrame(nil)
	require.NoError(t, err)
	assert.Nil(t, envelope)
}

func TestDecodeFrameMalformedJSON(t *testing.T) {
	raw := deflateBytes(t, []byte(`{"subscribe":`))
	_, err := decodeFrame(raw)
	require.Error(t, err)
}

func TestDecodeFrameCorruptCompression(t *testing.T) {
	_, err := decodeFrame([]byte("definitely not deflate data"))
	require.Error(t, err)
}

func TestEnvelopeCodeSemantics(t *testing.T) {
	success := StatusSuccess
	topicError := StatusTopicError

	// Absent code: success only where the channel allows it (price).
	absent := &Envelope{}
	assert.True(t, absent.ok(true))
	assert.False(t, absent.ok(false))

	explicit := &Envelope{Code: &success}
	assert.True(t, explicit.ok(true))
	assert.True(t, explicit.ok(false))

	rejected := &Envelope{Code: &topicError}
	assert.False(t, rejected.ok(true))
	assert.False(t, rejected.ok(false))
}
