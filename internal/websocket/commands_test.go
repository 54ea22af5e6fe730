package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsStringAndNumber(t *testing.T) {
	var p editMessagePayload
	require.NoError(t, json.Unmarshal([]byte(`{"message_id":"42","new_text":"x"}`), &p))
	assert.Equal(t, ID(42), p.MessageID)

	require.NoError(t, json.Unmarshal([]byte(`{"message_id":42,"new_text":"x"}`), &p))
	assert.Equal(t, ID(42), p.MessageID)
}

func TestIDRejectsGarbage(t *testing.T) {
	var p editMessagePayload
	assert.Error(t, json.Unmarshal([]byte(`{"message_id":"fourty-two"}`), &p))
}

func TestOptionalIDNull(t *testing.T) {
	var p chatMessagePayload
	require.NoError(t, json.Unmarshal([]byte(`{"message":"hi","reply_to":null}`), &p))
	assert.Nil(t, p.ReplyTo)

	require.NoError(t, json.Unmarshal([]byte(`{"message":"hi","reply_to":"7"}`), &p))
	require.NotNil(t, p.ReplyTo)
	assert.Equal(t, ID(7), *p.ReplyTo)
}
