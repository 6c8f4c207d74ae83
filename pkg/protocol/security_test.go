package protocol

import (
	"io"
	"testing"
)

func TestAllocationLimits(t *testing.T) {
	t.Run("string exceeds limit", func(t *testing.T) {
		e := NewEncoder()
		e.WriteUvarint(DefaultMaxAllocation + 1)
		if _, err := NewDecoder(e.Bytes()).ReadString(); err != ErrAllocationTooLarge {
			t.Errorf("ReadString() error = %v, want %v", err, ErrAllocationTooLarge)
		}
	})

	t.Run("collection exceeds limit", func(t *testing.T) {
		e := NewEncoder()
		e.WriteUvarint(MaxCollectionCount + 1)
		if _, err := NewDecoder(e.Bytes()).ReadCollectionCount(); err != ErrCollectionTooLarge {
			t.Errorf("ReadCollectionCount() error = %v, want %v", err, ErrCollectionTooLarge)
		}
	})

	t.Run("collection larger than data", func(t *testing.T) {
		e := NewEncoder()
		e.WriteUvarint(1000)
		if _, err := NewDecoder(e.Bytes()).ReadCollectionCount(); err != io.ErrUnexpectedEOF {
			t.Errorf("ReadCollectionCount() error = %v, want %v", err, io.ErrUnexpectedEOF)
		}
	})
}

func TestVarintOverflow(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	if _, err := NewDecoder(data).ReadUvarint(); err != ErrVarintOverflow {
		t.Errorf("ReadUvarint() error = %v, want %v", err, ErrVarintOverflow)
	}
}

func TestEncoderDecoderPrimitives(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(300)
	e.WriteString("abc")
	e.WriteBool(true)
	e.WriteUint16(0xBEEF)

	d := NewDecoder(e.Bytes())
	if v, err := d.ReadUvarint(); err != nil || v != 300 {
		t.Errorf("ReadUvarint() = %d, %v, want 300", v, err)
	}
	if s, err := d.ReadString(); err != nil || s != "abc" {
		t.Errorf("ReadString() = %q, %v, want abc", s, err)
	}
	if b, err := d.ReadBool(); err != nil || !b {
		t.Errorf("ReadBool() = %v, %v, want true", b, err)
	}
	if v, err := d.ReadUint16(); err != nil || v != 0xBEEF {
		t.Errorf("ReadUint16() = %x, %v, want beef", v, err)
	}
	if !d.EOF() {
		t.Errorf("Remaining() = %d, want 0", d.Remaining())
	}

	e.Reset()
	if e.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", e.Len())
	}
}

func FuzzDecodeDeltas(f *testing.F) {
	f.Add(EncodeDeltas(&DeltasFrame{Seq: 1, Deltas: allDeltas()}))
	f.Add([]byte{0x00, 0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		df, err := DecodeDeltas(data)
		if err != nil {
			return
		}
		if _, err := DecodeDeltas(EncodeDeltas(df)); err != nil {
			t.Errorf("re-decode error = %v", err)
		}
	})
}

func FuzzDecodeEvent(f *testing.F) {
	f.Add(EncodeEvent(&Event{Node: 1, Name: "click", Handler: 1, Data: map[string]string{"k": "v"}}))
	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeEvent(data)
	})
}
