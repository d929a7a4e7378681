// Package wire implements the length-prefixed binary framing for the
// daemon's Unix-domain control socket (spec §4.2, §6). All integers are
// big-endian; strings are length-prefixed UTF-8; collections are
// length-prefixed sequences of their element encoding.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ErrUnknownTag is returned when a discriminator byte does not match any
// known Command/Response/MDListStatus/SortBy variant. Per spec §4.2 the
// connection is ended on receipt of this error.
type ErrUnknownTag struct {
	Context string
	Tag     byte
}

func (e *ErrUnknownTag) Error() string {
	return fmt.Sprintf("wire: unknown tag 0x%02x for %s", e.Tag, e.Context)
}

func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func ReadU8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func WriteU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func ReadU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteString encodes s as a u64 length followed by its raw UTF-8 bytes.
// An empty string is length 0 with no body.
func WriteString(w io.Writer, s string) error {
	if err := WriteU64(w, uint64(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := io.WriteString(w, s)
	return err
}

func ReadString(r io.Reader) (string, error) {
	n, err := ReadU64(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteOptionString encodes an Option<string>: tag 0x00 then payload for
// Some, or bare tag 0x01 for None.
func WriteOptionString(w io.Writer, s *string) error {
	if s == nil {
		return WriteU8(w, 0x01)
	}
	if err := WriteU8(w, 0x00); err != nil {
		return err
	}
	return WriteString(w, *s)
}

func ReadOptionString(r io.Reader) (*string, error) {
	tag, err := ReadU8(r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		s, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		return &s, nil
	case 0x01:
		return nil, nil
	default:
		return nil, &ErrUnknownTag{Context: "Option<string>", Tag: tag}
	}
}

// WriteOptionU8 encodes an Option<u8>.
func WriteOptionU8(w io.Writer, v *uint8) error {
	if v == nil {
		return WriteU8(w, 0x01)
	}
	if err := WriteU8(w, 0x00); err != nil {
		return err
	}
	return WriteU8(w, *v)
}

func ReadOptionU8(r io.Reader) (*uint8, error) {
	tag, err := ReadU8(r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		v, err := ReadU8(r)
		if err != nil {
			return nil, err
		}
		return &v, nil
	case 0x01:
		return nil, nil
	default:
		return nil, &ErrUnknownTag{Context: "Option<u8>", Tag: tag}
	}
}

// WriteStringSlice encodes a Vec<string>.
func WriteStringSlice(w io.Writer, ss []string) error {
	if err := WriteU64(w, uint64(len(ss))); err != nil {
		return err
	}
	for _, s := range ss {
		if err := WriteString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func ReadStringSlice(r io.Reader) ([]string, error) {
	n, err := ReadU64(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// WriteU8Slice encodes a Vec<u8>.
func WriteU8Slice(w io.Writer, bs []uint8) error {
	if err := WriteU64(w, uint64(len(bs))); err != nil {
		return err
	}
	for _, b := range bs {
		if err := WriteU8(w, b); err != nil {
			return err
		}
	}
	return nil
}

func ReadU8Slice(r io.Reader) ([]uint8, error) {
	n, err := ReadU64(r)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, 0, n)
	for i := uint64(0); i < n; i++ {
		b, err := ReadU8(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
