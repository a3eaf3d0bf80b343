// Package payload defines the codecs used to move typed values in and out of
// request and response bodies.
//
// Encoding and decoding are separate contracts so a type may support only one
// direction. JSON, Text and Empty cover the common cases; domain types can
// implement Encoder or Decoder directly.
package payload
