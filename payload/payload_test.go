package payload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestJSONEncode(t *testing.T) {
	data, err := NewJSON(quote{Symbol: "700.HK", Price: 320.5}).EncodePayload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"700.HK","price":320.5}`, string(data))
}

func TestJSONEncodeUnsupportedValue(t *testing.T) {
	_, err := NewJSON(make(chan int)).EncodePayload()
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, CodecJSON, perr.Codec)
	assert.Equal(t, "encode", perr.Op)
	assert.Contains(t, err.Error(), "json encode")
}

func TestJSONDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    quote
		wantErr bool
	}{
		{name: "object", input: `{"symbol":"AAPL.US","price":189.1}`, want: quote{Symbol: "AAPL.US", Price: 189.1}},
		{name: "unknown fields ignored", input: `{"symbol":"X","extra":true}`, want: quote{Symbol: "X"}},
		{name: "malformed", input: `{"symbol":`, wantErr: true},
		{name: "wrong type", input: `{"price":"high"}`, wantErr: true},
		{name: "empty input", input: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[JSON[quote]]([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "json decode")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestText(t *testing.T) {
	data, err := Text("hello").EncodePayload()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	got, err := Decode[Text]([]byte(`"{}"`))
	require.NoError(t, err)
	assert.Equal(t, `"{}"`, got.String())

	_, err = Decode[Text]([]byte{0xff, 0xfe})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text decode")
}

func TestEmpty(t *testing.T) {
	data, err := Empty{}.EncodePayload()
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = Decode[Empty]([]byte(`{"anything": [1, 2, 3]}`))
	assert.NoError(t, err)

	_, err = Decode[Empty]([]byte{0xff})
	assert.NoError(t, err)
}
