package edtypes

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		raw  string
		want Command
		ok   bool
	}{
		{"bold", CmdBold, true},
		{" h2 ", CmdH2, true},
		{"checklist", CmdChecklist, true},
		{"newBlock", CmdNewBlock, true},
		{"Bold", "Bold", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCommand(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestCommandMapping(t *testing.T) {
	assert.Equal(t, "strong", CmdBold.InlineTag())
	assert.Equal(t, "s", CmdStrike.InlineTag())
	assert.Empty(t, CmdH1.InlineTag())

	assert.Equal(t, 3, CmdH3.HeadingLevel())
	assert.Zero(t, CmdHeading.HeadingLevel())

	assert.Equal(t, FormatBulletList, CmdBulletList.Format())
	assert.Equal(t, FormatChecklist, CmdChecklist.Format())
	assert.Equal(t, FormatLink, CmdLink.Format())
	assert.Empty(t, CmdUndo.Format())
	assert.Empty(t, CmdHeading.Format())
}

func TestFormatSet(t *testing.T) {
	s := FormatSet{FormatItalic: {}, FormatBold: {}, FormatH2: {}}
	assert.True(t, s.Has(FormatBold))
	assert.False(t, s.Has(FormatCode))
	assert.Equal(t, []Format{FormatBold, FormatH2, FormatItalic}, s.Sorted())
	assert.Empty(t, FormatSet{}.Sorted())
}

func TestPayloadCodec(t *testing.T) {
	type size struct {
		Rows int `json:"rows"`
		Cols int `json:"cols"`
	}

	encoded, err := EncodePayload(size{Rows: 3, Cols: 4})
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte(`{"rows":3,"cols":4}`)), encoded)

	raw, err := DecodePayload(encoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows":3,"cols":4}`, string(raw))

	got, err := DecodePayloadInto[size](CustomBlockInfo{ID: "b-1", Type: "table", Payload: raw})
	require.NoError(t, err)
	assert.Equal(t, size{Rows: 3, Cols: 4}, got)

	t.Run("not base64", func(t *testing.T) {
		_, err := DecodePayload("not base64!")
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := DecodePayload(base64.StdEncoding.EncodeToString([]byte("foo")))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("missing payload", func(t *testing.T) {
		_, err := DecodePayloadInto[size](CustomBlockInfo{ID: "b-1"})
		assert.ErrorIs(t, err, ErrEmptyPayload)
	})

	t.Run("unencodable", func(t *testing.T) {
		_, err := EncodePayload(func() {})
		assert.Error(t, err)
	})
}
