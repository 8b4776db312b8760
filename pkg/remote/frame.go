package remote

import (
	"github.com/reflow-ui/reflow/internal/errors"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 4

	// MaxPayloadSize is the maximum payload size (2^16 - 1 bytes).
	MaxPayloadSize = 65535
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameHandshake FrameType = 0x00 // Connection setup
	FrameEvent     FrameType = 0x01 // Client -> server events
	FrameMutations FrameType = 0x02 // Server -> client tree mutations
	FramePing      FrameType = 0x03 // Liveness probe
	FrameError     FrameType = 0x04 // Error report
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameHandshake:
		return "Handshake"
	case FrameEvent:
		return "Event"
	case FrameMutations:
		return "Mutations"
	case FramePing:
		return "Ping"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	// FlagFinal marks the last frame of a flush batch.
	FlagFinal FrameFlags = 0x01
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame is one protocol frame.
//
// Wire format: type (1 byte), flags (1 byte), payload length (2 bytes
// big-endian), then the payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// Encode returns the frame's wire bytes including the header.
func (f *Frame) Encode() ([]byte, error) {
	length := len(f.Payload)
	if length > MaxPayloadSize {
		return nil, errors.New("P001")
	}
	buf := make([]byte, FrameHeaderSize+length)
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	buf[2] = byte(length >> 8)
	buf[3] = byte(length)
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf, nil
}

// DecodeFrame decodes one frame from data. The input must contain the
// full header and payload.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, errors.New("P002").WithDetail("frame shorter than header")
	}
	length := int(data[2])<<8 | int(data[3])
	if len(data) < FrameHeaderSize+length {
		return nil, errors.New("P002").WithDetail("frame shorter than declared payload")
	}
	return &Frame{
		Type:    FrameType(data[0]),
		Flags:   FrameFlags(data[1]),
		Payload: data[FrameHeaderSize : FrameHeaderSize+length],
	}, nil
}
