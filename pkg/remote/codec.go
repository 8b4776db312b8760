package remote

import (
	"github.com/reflow-ui/reflow/internal/errors"
)

// Encoder appends binary data to an internal buffer. Put methods never
// fail; the buffer grows as needed. The method names follow
// encoding/binary's Put* convention rather than the io writer
// interfaces, whose signatures these are not.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with a default initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Reset empties the encoder, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The slice is valid until the next
// Reset or Put call.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// PutByte appends a single byte.
func (e *Encoder) PutByte(b byte) {
	e.buf = append(e.buf, b)
}

// PutUvarint appends an unsigned varint: 7 bits of data per byte,
// MSB marks continuation.
func (e *Encoder) PutUvarint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// PutString appends a varint-length-prefixed UTF-8 string.
func (e *Encoder) PutString(s string) {
	e.PutUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// PutBool appends a boolean as one byte.
func (e *Encoder) PutBool(b bool) {
	if b {
		e.buf = append(e.buf, 0x01)
		return
	}
	e.buf = append(e.buf, 0x00)
}

// Decoder reads binary data from a buffer.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder creates a decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.off >= len(d.buf) {
		return 0, errors.New("P002").WithDetail("unexpected end of frame")
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

// ReadUvarint reads an unsigned varint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; ; i++ {
		if i >= 10 {
			return 0, errors.New("P002").WithDetail("varint overflow")
		}
		b, err := d.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7F) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
	}
}

// ReadString reads a varint-length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if uint64(d.Remaining()) < n {
		return "", errors.New("P002").WithDetail("string length exceeds frame")
	}
	s := string(d.buf[d.off : d.off+int(n)])
	d.off += int(n)
	return s, nil
}

// ReadBool reads a one-byte boolean.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}
