package protocol

import "fmt"

// DeltaOp identifies a delta sink call.
type DeltaOp uint8

const (
	OpAppendNode  DeltaOp = 0x01 // Parent, ID, Tag
	OpRemoveNode  DeltaOp = 0x02 // Parent, ID
	OpUpdateNode  DeltaOp = 0x03 // Old, ID
	OpReplaceNode DeltaOp = 0x04 // Old, ID, Tag
	OpInsertNode  DeltaOp = 0x05 // Parent, Ref, ID, Tag
	OpSetText     DeltaOp = 0x06 // ID, Value
	OpEraseStyle  DeltaOp = 0x07 // ID, Key
	OpApplyStyle  DeltaOp = 0x08 // ID, Key, Value
	OpDetachEvent DeltaOp = 0x09 // ID, Key, Dispose
	OpAttachEvent DeltaOp = 0x0A // ID, Key, PreventDefault, StopPropagation, Handler
)

// String returns the string representation of the op.
func (op DeltaOp) String() string {
	switch op {
	case OpAppendNode:
		return "AppendNode"
	case OpRemoveNode:
		return "RemoveNode"
	case OpUpdateNode:
		return "UpdateNode"
	case OpReplaceNode:
		return "ReplaceNode"
	case OpInsertNode:
		return "InsertNode"
	case OpSetText:
		return "SetText"
	case OpEraseStyle:
		return "EraseStyle"
	case OpApplyStyle:
		return "ApplyStyle"
	case OpDetachEvent:
		return "DetachEvent"
	case OpAttachEvent:
		return "AttachEvent"
	default:
		return "Unknown"
	}
}

// Delta is one delta sink call on the wire. Only the fields the op uses
// are encoded.
type Delta struct {
	Op     DeltaOp
	Parent uint64 // AppendNode, RemoveNode, InsertNode
	Ref    uint64 // InsertNode
	Old    uint64 // UpdateNode, ReplaceNode
	ID     uint64 // target node (new id for Update/Replace)
	Tag    string
	Key    string // style key or event name
	Value  string // style value or text

	Dispose         bool // DetachEvent
	PreventDefault  bool // AttachEvent
	StopPropagation bool // AttachEvent
	Handler         uint64
}

// String renders the delta as a call, e.g. ApplyStyle(3,color,red).
func (d Delta) String() string {
	switch d.Op {
	case OpAppendNode:
		return fmt.Sprintf("AppendNode(%d,%d,%s)", d.Parent, d.ID, d.Tag)
	case OpRemoveNode:
		return fmt.Sprintf("RemoveNode(%d,%d)", d.Parent, d.ID)
	case OpUpdateNode:
		return fmt.Sprintf("UpdateNode(%d,%d)", d.Old, d.ID)
	case OpReplaceNode:
		return fmt.Sprintf("ReplaceNode(%d,%d,%s)", d.Old, d.ID, d.Tag)
	case OpInsertNode:
		return fmt.Sprintf("InsertNode(%d,%d,%d,%s)", d.Parent, d.Ref, d.ID, d.Tag)
	case OpSetText:
		return fmt.Sprintf("SetText(%d,%q)", d.ID, d.Value)
	case OpEraseStyle:
		return fmt.Sprintf("EraseStyle(%d,%s)", d.ID, d.Key)
	case OpApplyStyle:
		return fmt.Sprintf("ApplyStyle(%d,%s,%s)", d.ID, d.Key, d.Value)
	case OpDetachEvent:
		return fmt.Sprintf("DetachEvent(%d,%s,%t)", d.ID, d.Key, d.Dispose)
	case OpAttachEvent:
		return fmt.Sprintf("AttachEvent(%d,%s,%t,%t,%d)", d.ID, d.Key, d.PreventDefault, d.StopPropagation, d.Handler)
	default:
		return fmt.Sprintf("Unknown(0x%02x)", uint8(d.Op))
	}
}

// DeltasFrame is the ordered output of one render pass.
type DeltasFrame struct {
	Seq    uint64
	Deltas []Delta
}

// EncodeDeltas encodes a deltas frame payload.
func EncodeDeltas(df *DeltasFrame) []byte {
	e := NewEncoder()
	EncodeDeltasTo(e, df)
	return e.Bytes()
}

// EncodeDeltasTo encodes a deltas frame payload using the provided encoder.
func EncodeDeltasTo(e *Encoder, df *DeltasFrame) {
	e.WriteUvarint(df.Seq)
	e.WriteUvarint(uint64(len(df.Deltas)))
	for i := range df.Deltas {
		encodeDelta(e, &df.Deltas[i])
	}
}

func encodeDelta(e *Encoder, d *Delta) {
	e.WriteByte(byte(d.Op))
	switch d.Op {
	case OpAppendNode:
		e.WriteUvarint(d.Parent)
		e.WriteUvarint(d.ID)
		e.WriteString(d.Tag)
	case OpRemoveNode:
		e.WriteUvarint(d.Parent)
		e.WriteUvarint(d.ID)
	case OpUpdateNode:
		e.WriteUvarint(d.Old)
		e.WriteUvarint(d.ID)
	case OpReplaceNode:
		e.WriteUvarint(d.Old)
		e.WriteUvarint(d.ID)
		e.WriteString(d.Tag)
	case OpInsertNode:
		e.WriteUvarint(d.Parent)
		e.WriteUvarint(d.Ref)
		e.WriteUvarint(d.ID)
		e.WriteString(d.Tag)
	case OpSetText:
		e.WriteUvarint(d.ID)
		e.WriteString(d.Value)
	case OpEraseStyle:
		e.WriteUvarint(d.ID)
		e.WriteString(d.Key)
	case OpApplyStyle:
		e.WriteUvarint(d.ID)
		e.WriteString(d.Key)
		e.WriteString(d.Value)
	case OpDetachEvent:
		e.WriteUvarint(d.ID)
		e.WriteString(d.Key)
		e.WriteBool(d.Dispose)
	case OpAttachEvent:
		e.WriteUvarint(d.ID)
		e.WriteString(d.Key)
		e.WriteBool(d.PreventDefault)
		e.WriteBool(d.StopPropagation)
		e.WriteUvarint(d.Handler)
	}
}

// DecodeDeltas decodes a deltas frame payload.
func DecodeDeltas(data []byte) (*DeltasFrame, error) {
	d := NewDecoder(data)
	df, err := DecodeDeltasFrom(d)
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return df, nil
}

// DecodeDeltasFrom decodes a deltas frame payload from a decoder.
func DecodeDeltasFrom(d *Decoder) (*DeltasFrame, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	df := &DeltasFrame{Seq: seq, Deltas: make([]Delta, count)}
	for i := 0; i < count; i++ {
		if err := decodeDelta(d, &df.Deltas[i]); err != nil {
			return nil, fmt.Errorf("protocol: delta %d: %w", i, err)
		}
	}
	return df, nil
}

func decodeDelta(d *Decoder, out *Delta) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	out.Op = DeltaOp(op)

	r := fieldReader{d: d}
	switch out.Op {
	case OpAppendNode:
		r.uvarint(&out.Parent)
		r.uvarint(&out.ID)
		r.string(&out.Tag)
	case OpRemoveNode:
		r.uvarint(&out.Parent)
		r.uvarint(&out.ID)
	case OpUpdateNode:
		r.uvarint(&out.Old)
		r.uvarint(&out.ID)
	case OpReplaceNode:
		r.uvarint(&out.Old)
		r.uvarint(&out.ID)
		r.string(&out.Tag)
	case OpInsertNode:
		r.uvarint(&out.Parent)
		r.uvarint(&out.Ref)
		r.uvarint(&out.ID)
		r.string(&out.Tag)
	case OpSetText:
		r.uvarint(&out.ID)
		r.string(&out.Value)
	case OpEraseStyle:
		r.uvarint(&out.ID)
		r.string(&out.Key)
	case OpApplyStyle:
		r.uvarint(&out.ID)
		r.string(&out.Key)
		r.string(&out.Value)
	case OpDetachEvent:
		r.uvarint(&out.ID)
		r.string(&out.Key)
		r.bool(&out.Dispose)
	case OpAttachEvent:
		r.uvarint(&out.ID)
		r.string(&out.Key)
		r.bool(&out.PreventDefault)
		r.bool(&out.StopPropagation)
		r.uvarint(&out.Handler)
	default:
		return fmt.Errorf("unknown delta op 0x%02x", op)
	}
	return r.err
}

// fieldReader reads a sequence of fields, keeping the first error.
type fieldReader struct {
	d   *Decoder
	err error
}

func (r *fieldReader) uvarint(dst *uint64) {
	if r.err == nil {
		*dst, r.err = r.d.ReadUvarint()
	}
}

func (r *fieldReader) string(dst *string) {
	if r.err == nil {
		*dst, r.err = r.d.ReadString()
	}
}

func (r *fieldReader) bool(dst *bool) {
	if r.err == nil {
		*dst, r.err = r.d.ReadBool()
	}
}
