package publish

import (
	"encoding/binary"
	"fmt"

	"github.com/banshee-data/cloudreplay/internal/cloud"
)

// Wire format magic and version for frame payloads ("CRF" + version 1).
const frameMagic uint32 = 0x43524601

// SubscribeRequest opens a subscription to one named output channel.
type SubscribeRequest struct {
	Channel string
}

// Codec is a grpc encoding.Codec that carries the replay wire format
// directly. The outgoing message is already a pre-serialized byte blob
// plus small metadata, so a protobuf round-trip would only re-copy the
// payload; the codec frames it as-is instead.
type Codec struct{}

// Name identifies the codec to grpc.
func (Codec) Name() string { return "cloudreplay" }

// Marshal encodes a SubscribeRequest or a *cloud.Message.
func (Codec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case *SubscribeRequest:
		return encodeSubscribe(m), nil
	case *cloud.Message:
		return EncodeMessage(m), nil
	default:
		return nil, fmt.Errorf("codec: unsupported message type %T", v)
	}
}

// Unmarshal decodes into a SubscribeRequest or a *cloud.Message.
func (Codec) Unmarshal(data []byte, v interface{}) error {
	switch m := v.(type) {
	case *SubscribeRequest:
		return decodeSubscribe(data, m)
	case *cloud.Message:
		return DecodeMessage(data, m)
	default:
		return fmt.Errorf("codec: unsupported message type %T", v)
	}
}

func encodeSubscribe(req *SubscribeRequest) []byte {
	buf := make([]byte, 2+len(req.Channel))
	binary.LittleEndian.PutUint16(buf, uint16(len(req.Channel)))
	copy(buf[2:], req.Channel)
	return buf
}

func decodeSubscribe(data []byte, req *SubscribeRequest) error {
	if len(data) < 2 {
		return fmt.Errorf("codec: subscribe request truncated (%d bytes)", len(data))
	}
	n := int(binary.LittleEndian.Uint16(data))
	if len(data) < 2+n {
		return fmt.Errorf("codec: subscribe request channel truncated")
	}
	req.Channel = string(data[2 : 2+n])
	return nil
}

// EncodeMessage frames a cloud.Message for the wire: a fixed header,
// the field descriptors, then the raw point blob. All integers are
// little-endian, matching the point payload itself.
func EncodeMessage(m *cloud.Message) []byte {
	size := 4 + // magic
		2 + len(m.Header.FrameID) +
		4 + 4 + // sec, nanosec
		4 + 4 + // height, width
		4 + 4 + // point step, row step
		1 + // flags
		1 // field count
	for _, f := range m.Fields {
		size += 1 + len(f.Name) + 4 + 1 + 4
	}
	size += 4 + len(m.Data)

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, frameMagic)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(m.Header.FrameID)))
	buf = append(buf, m.Header.FrameID...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.Header.Sec))
	buf = binary.LittleEndian.AppendUint32(buf, m.Header.Nanosec)
	buf = binary.LittleEndian.AppendUint32(buf, m.Height)
	buf = binary.LittleEndian.AppendUint32(buf, m.Width)
	buf = binary.LittleEndian.AppendUint32(buf, m.PointStep)
	buf = binary.LittleEndian.AppendUint32(buf, m.RowStep)

	var flags byte
	if m.IsBigEndian {
		flags |= 1
	}
	if m.IsDense {
		flags |= 2
	}
	buf = append(buf, flags)

	buf = append(buf, byte(len(m.Fields)))
	for _, f := range m.Fields {
		buf = append(buf, byte(len(f.Name)))
		buf = append(buf, f.Name...)
		buf = binary.LittleEndian.AppendUint32(buf, f.Offset)
		buf = append(buf, f.Datatype)
		buf = binary.LittleEndian.AppendUint32(buf, f.Count)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Data)))
	buf = append(buf, m.Data...)
	return buf
}

// DecodeMessage parses a wire frame into m.
func DecodeMessage(data []byte, m *cloud.Message) error {
	r := wireReader{data: data}

	magic, err := r.u32()
	if err != nil {
		return err
	}
	if magic != frameMagic {
		return fmt.Errorf("codec: bad frame magic 0x%08x", magic)
	}

	idLen, err := r.u16()
	if err != nil {
		return err
	}
	id, err := r.bytes(int(idLen))
	if err != nil {
		return err
	}
	m.Header.FrameID = string(id)

	sec, err := r.u32()
	if err != nil {
		return err
	}
	m.Header.Sec = int32(sec)
	if m.Header.Nanosec, err = r.u32(); err != nil {
		return err
	}
	if m.Height, err = r.u32(); err != nil {
		return err
	}
	if m.Width, err = r.u32(); err != nil {
		return err
	}
	if m.PointStep, err = r.u32(); err != nil {
		return err
	}
	if m.RowStep, err = r.u32(); err != nil {
		return err
	}

	flags, err := r.u8()
	if err != nil {
		return err
	}
	m.IsBigEndian = flags&1 != 0
	m.IsDense = flags&2 != 0

	fieldCount, err := r.u8()
	if err != nil {
		return err
	}
	m.Fields = make([]cloud.PointField, fieldCount)
	for i := range m.Fields {
		nameLen, err := r.u8()
		if err != nil {
			return err
		}
		name, err := r.bytes(int(nameLen))
		if err != nil {
			return err
		}
		m.Fields[i].Name = string(name)
		if m.Fields[i].Offset, err = r.u32(); err != nil {
			return err
		}
		if m.Fields[i].Datatype, err = r.u8(); err != nil {
			return err
		}
		if m.Fields[i].Count, err = r.u32(); err != nil {
			return err
		}
	}

	dataLen, err := r.u32()
	if err != nil {
		return err
	}
	payload, err := r.bytes(int(dataLen))
	if err != nil {
		return err
	}
	m.Data = make([]byte, len(payload))
	copy(m.Data, payload)

	return nil
}

// wireReader is a bounds-checked cursor over a wire frame.
type wireReader struct {
	data []byte
	off  int
}

func (r *wireReader) bytes(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("codec: frame truncated at offset %d (want %d bytes)", r.off, n)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *wireReader) u8() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *wireReader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *wireReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
