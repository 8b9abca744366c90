package dispatch

import (
	"encoding/binary"

	"github.com/m2mdev/lwm2mcore/codec"
	"github.com/m2mdev/lwm2mcore/registry"
)

// tlvType is the Type-of-Identifier field of a TLV item, OMA-TS-
// LightweightM2M-V1_0_2-20180209-A 6.4.3.
type tlvType byte

const (
	tlvObjectInstance  tlvType = 0
	tlvMultipleResource tlvType = 2
	tlvResource         tlvType = 3
)

// tlvItem is one OMA TLV record: a type/id/length header followed by its
// value bytes, OMA-TS-LightweightM2M-V1_0_2-20180209-A 6.4.3 (same bit
// layout, same length-class thresholds). Fields are lowercase since the
// type is package-private to dispatch.
type tlvItem struct {
	Type  tlvType
	ID    uint16
	Value []byte
}

// marshal encodes one TLV item, choosing the shortest id (1 or 2 bytes)
// and length (0, 1, 2 or 3 bytes) field widths the header supports.
func (t tlvItem) marshal() []byte {
	header := []byte{byte(t.Type) << 6}
	if t.ID <= 0xFF {
		header = append(header, byte(t.ID))
	} else {
		header[0] |= 1 << 5
		header = append(header, byte(t.ID>>8), byte(t.ID))
	}
	length := len(t.Value)
	switch {
	case length <= 0x07:
		header[0] |= byte(length)
	case length <= 0xFF:
		header[0] |= 1 << 3
		header = append(header, byte(length))
	case length <= 0xFFFF:
		header[0] |= 2 << 3
		header = append(header, byte(length>>8), byte(length))
	default:
		header[0] |= 3 << 3
		header = append(header, byte(length>>16), byte(length>>8), byte(length))
	}
	return append(header, t.Value...)
}

// unmarshalTLVItem parses one TLV item from the front of raw and returns
// it along with the number of bytes consumed, or ok=false if raw does
// not hold a complete item.
func unmarshalTLVItem(raw []byte) (item tlvItem, n int, ok bool) {
	if len(raw) < 1 {
		return tlvItem{}, 0, false
	}
	item.Type = tlvType((raw[0] >> 6) & 0x03)
	idx := 1

	if (raw[0]>>5)&0x01 == 0 {
		if len(raw) < idx+1 {
			return tlvItem{}, 0, false
		}
		item.ID = uint16(raw[idx])
		idx++
	} else {
		if len(raw) < idx+2 {
			return tlvItem{}, 0, false
		}
		item.ID = binary.BigEndian.Uint16(raw[idx : idx+2])
		idx += 2
	}

	var length int
	switch (raw[0] >> 3) & 0x03 {
	case 0:
		length = int(raw[0] & 0x07)
	case 1:
		if len(raw) < idx+1 {
			return tlvItem{}, 0, false
		}
		length = int(raw[idx])
		idx++
	case 2:
		if len(raw) < idx+2 {
			return tlvItem{}, 0, false
		}
		length = int(binary.BigEndian.Uint16(raw[idx : idx+2]))
		idx += 2
	case 3:
		if len(raw) < idx+3 {
			return tlvItem{}, 0, false
		}
		length = int(raw[idx])<<16 | int(raw[idx+1])<<8 | int(raw[idx+2])
		idx += 3
	}

	if len(raw) < idx+length {
		return tlvItem{}, 0, false
	}
	item.Value = append([]byte(nil), raw[idx:idx+length]...)
	idx += length
	return item, idx, true
}

// unmarshalTLVItems parses every TLV item in raw, in order.
func unmarshalTLVItems(raw []byte) []tlvItem {
	var items []tlvItem
	for len(raw) > 0 {
		item, n, ok := unmarshalTLVItem(raw)
		if !ok {
			break
		}
		items = append(items, item)
		raw = raw[n:]
	}
	return items
}

// encodeResourceValue turns a plain-text resource value (as returned by
// a Reader, already in codec's textual convention) into the raw bytes a
// TLV Resource item carries, per resource type.
func encodeResourceValue(value string, t registry.ResourceType) []byte {
	switch t {
	case registry.TypeInt, registry.TypeTime:
		n, err := parseInt(value)
		if err != nil {
			return nil
		}
		return codec.EncodeInt(n)
	case registry.TypeFloat:
		f, err := parseFloat(value)
		if err != nil {
			return nil
		}
		return codec.EncodeFloat(f)
	case registry.TypeBool:
		return codec.EncodeBool(value == "true")
	case registry.TypeOpaque:
		raw, err := codec.DecodeOpaqueText(value)
		if err != nil {
			return nil
		}
		return raw
	default: // string, unknown
		return []byte(value)
	}
}

// decodeResourceValue is the inverse of encodeResourceValue: it turns
// the raw bytes of a TLV Resource item into the plain-text convention a
// Writer receives.
func decodeResourceValue(raw []byte, t registry.ResourceType) (value string, err error) {
	switch t {
	case registry.TypeInt, registry.TypeTime:
		n, err := codec.DecodeInt(raw)
		if err != nil {
			return "", err
		}
		return formatInt(n), nil
	case registry.TypeFloat:
		f, err := codec.DecodeFloat(raw)
		if err != nil {
			return "", err
		}
		return formatFloat(f), nil
	case registry.TypeBool:
		b, err := codec.DecodeBool(raw)
		if err != nil {
			return "", err
		}
		if b {
			return "true", nil
		}
		return "false", nil
	case registry.TypeOpaque:
		return codec.EncodeOpaqueText(raw), nil
	default: // string, unknown
		return string(raw), nil
	}
}

func encodeInstanceTLV(values map[uint16]string, descs map[uint16]registry.ResourceType) []byte {
	var out []byte
	for _, rid := range sortedKeys(values) {
		item := tlvItem{Type: tlvResource, ID: rid, Value: encodeResourceValue(values[rid], descs[rid])}
		out = append(out, item.marshal()...)
	}
	return out
}
