package repo

import (
	"testing"
	"time"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChatLegacyShape(t *testing.T) {
	t.Parallel()

	chat, err := DecodeChat([]byte(`{"id":"-100"}`))
	require.NoError(t, err)
	assert.Equal(t, "-100", chat.ID)
	assert.NotNil(t, chat.Tags)
	assert.Nil(t, chat.Admin)
}

func TestDecodeChatKeepsTagOrder(t *testing.T) {
	t.Parallel()

	in := models.NewChat("-100", nil)
	for _, text := range []string{"first", "second", "third"} {
		in.AddTag(models.Tag{
			Text:      text,
			Author:    models.User{ID: "1", FirstName: "Ana"},
			CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
		}, models.DefaultMaxTags)
	}

	data, err := EncodeChat(in)
	require.NoError(t, err)
	out, err := DecodeChat(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeCorrupt(t *testing.T) {
	t.Parallel()

	_, err := DecodeChat([]byte(`{"id":`))
	assert.Error(t, err)
	_, err = DecodeUser([]byte(`[]`))
	assert.Error(t, err)
}
