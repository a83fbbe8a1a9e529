// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gobmsg

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/thediveo/spaceport/uds"
)

// MaxMessageSize is the maximum size of a single encoded message.
const MaxMessageSize = 8192

// Encoder encodes values in gob form into an internal byte buffer, one message
// at a time. Gob type information is sent only with the first message of each
// type, so an Encoder must be used with a single stream only.
type Encoder struct {
	buff bytes.Buffer
	enc  *gob.Encoder
}

// NewEncoder returns a new Encoder.
func NewEncoder() *Encoder {
	e := &Encoder{}
	e.buff.Grow(MaxMessageSize)
	e.enc = gob.NewEncoder(&e.buff)
	return e
}

// Encode the passed value and return its binary representation. The returned
// slice becomes invalid with the next call to Encode.
func (e *Encoder) Encode(v any) ([]byte, error) {
	e.buff.Reset()
	if err := e.enc.Encode(v); err != nil {
		return nil, err
	}
	if e.buff.Len() > MaxMessageSize {
		return nil, fmt.Errorf("message size %d exceeds maximum of %d",
			e.buff.Len(), MaxMessageSize)
	}
	return e.buff.Bytes(), nil
}

// Decoder decodes gob messages received into its internal buffer.
type Decoder struct {
	buff []byte
	r    *bytes.Reader
	dec  *gob.Decoder
}

// NewDecoder returns a new Decoder.
func NewDecoder() *Decoder {
	buff := make([]byte, MaxMessageSize)
	r := bytes.NewReader(buff)
	return &Decoder{
		buff: buff,
		r:    r,
		dec:  gob.NewDecoder(r),
	}
}

// Buffer returns the buffer to receive a message into.
func (d *Decoder) Buffer() []byte { return d.buff }

// Decode the message stored in the first n bytes of the buffer returned by
// [Decoder.Buffer] into v.
func (d *Decoder) Decode(n int, v any) error {
	d.r.Reset(d.buff[:n])
	return d.dec.Decode(v)
}

// Conn exchanges gob messages with piggybacked file descriptors over a
// connected unix domain socket. A Conn must not be used concurrently for
// sending, nor concurrently for receiving.
type Conn struct {
	conn *uds.Conn
	enc  *Encoder
	dec  *Decoder
}

// New returns a new Conn taking ownership of the passed unix domain socket.
func New(conn *uds.Conn) *Conn {
	return &Conn{
		conn: conn,
		enc:  NewEncoder(),
		dec:  NewDecoder(),
	}
}

// Send the passed message value together with the passed file descriptors.
// When sending interface values, pass a pointer to the interface variable, see
// also the [gob interface example]. Send does not close the file descriptors.
//
// [gob interface example]: https://pkg.go.dev/encoding/gob#example-package-Interface
func (c *Conn) Send(v any, fds ...int) error {
	msg, err := c.enc.Encode(v)
	if err != nil {
		return fmt.Errorf("cannot encode message: %w", err)
	}
	if err := c.conn.Send(msg, fds...); err != nil {
		return fmt.Errorf("cannot send message: %w", err)
	}
	return nil
}

// Receive the next message into v, returning at most maxfds file descriptors
// sent together with the message. The caller takes ownership of the returned
// file descriptors, even in case of a decoding error.
func (c *Conn) Receive(v any, maxfds int) ([]int, error) {
	n, fds, err := c.conn.Receive(c.dec.Buffer(), maxfds)
	if err != nil {
		return nil, err
	}
	if err := c.dec.Decode(n, v); err != nil {
		return fds, fmt.Errorf("cannot decode message: %w", err)
	}
	return fds, nil
}

// SetReadDeadline sets the deadline for future Receive calls.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Close the underlying unix domain socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}
