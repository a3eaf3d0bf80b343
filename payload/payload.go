package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Codec names reported in errors
const (
	CodecJSON  = "json"
	CodecText  = "text"
	CodecEmpty = "empty"
)

var errInvalidUTF8 = errors.New("invalid utf-8 sequence")

// Encoder converts a value into raw body bytes.
type Encoder interface {
	EncodePayload() ([]byte, error)
}

// Decoder populates a value from raw body bytes.
type Decoder interface {
	DecodePayload(data []byte) error
}

// DecoderPtr constrains a type parameter to pointers of R that implement Decoder.
type DecoderPtr[R any] interface {
	*R
	Decoder
}

// Decode allocates an R and decodes data into it.
func Decode[R any, P DecoderPtr[R]](data []byte) (R, error) {
	var out R
	if err := P(&out).DecodePayload(data); err != nil {
		var zero R
		return zero, err
	}
	return out, nil
}

// Error reports an encode or decode failure for a codec.
type Error struct {
	Codec string
	Op    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Codec, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// JSON wraps a value that is encoded and decoded with encoding/json.
type JSON[T any] struct {
	Value T
}

// NewJSON wraps v for JSON encoding.
func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{Value: v}
}

// EncodePayload marshals the wrapped value.
func (j JSON[T]) EncodePayload() ([]byte, error) {
	data, err := json.Marshal(j.Value)
	if err != nil {
		return nil, &Error{Codec: CodecJSON, Op: "encode", Err: err}
	}
	return data, nil
}

// DecodePayload unmarshals data into the wrapped value.
func (j *JSON[T]) DecodePayload(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return &Error{Codec: CodecJSON, Op: "decode", Err: err}
	}
	j.Value = v
	return nil
}

// Text is a raw UTF-8 payload.
type Text string

// EncodePayload returns the string bytes unchanged.
func (t Text) EncodePayload() ([]byte, error) {
	return []byte(t), nil
}

// DecodePayload accepts data only when it is valid UTF-8.
func (t *Text) DecodePayload(data []byte) error {
	if !utf8.Valid(data) {
		return &Error{Codec: CodecText, Op: "decode", Err: errInvalidUTF8}
	}
	*t = Text(data)
	return nil
}

// String returns the text as a plain string.
func (t Text) String() string {
	return string(t)
}

// Empty carries no bytes in either direction.
type Empty struct{}

// EncodePayload always returns an empty body.
func (Empty) EncodePayload() ([]byte, error) {
	return []byte{}, nil
}

// DecodePayload ignores its input.
func (*Empty) DecodePayload([]byte) error {
	return nil
}
