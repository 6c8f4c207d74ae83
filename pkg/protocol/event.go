package protocol

import (
	"errors"
	"sort"
)

// Event is a UI event sent by the host back to the tree owner. Handler is the
// id the host received in AttachEvent for Name on Node.
type Event struct {
	Seq     uint64
	Node    uint64
	Name    string
	Handler uint64
	Data    map[string]string // Event-specific values (input value, key, ...)
}

// ErrEventTarget is returned for an event without a target node or name.
var ErrEventTarget = errors.New("protocol: event without target")

// EncodeEvent encodes an event to bytes.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	EncodeEventTo(e, ev)
	return e.Bytes()
}

// EncodeEventTo encodes an event using the provided encoder. Data keys are
// written in sorted order so equal events encode identically.
func EncodeEventTo(e *Encoder, ev *Event) {
	e.WriteUvarint(ev.Seq)
	e.WriteUvarint(ev.Node)
	e.WriteString(ev.Name)
	e.WriteUvarint(ev.Handler)

	keys := make([]string, 0, len(ev.Data))
	for k := range ev.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.WriteUvarint(uint64(len(keys)))
	for _, k := range keys {
		e.WriteString(k)
		e.WriteString(ev.Data[k])
	}
}

// DecodeEvent decodes an event from bytes.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	ev, err := DecodeEventFrom(d)
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeEventFrom decodes an event from a decoder.
func DecodeEventFrom(d *Decoder) (*Event, error) {
	ev := &Event{}
	r := fieldReader{d: d}
	r.uvarint(&ev.Seq)
	r.uvarint(&ev.Node)
	r.string(&ev.Name)
	r.uvarint(&ev.Handler)
	if r.err != nil {
		return nil, r.err
	}
	if ev.Node == 0 || ev.Name == "" {
		return nil, ErrEventTarget
	}

	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		ev.Data = make(map[string]string, count)
	}
	for i := 0; i < count; i++ {
		var k, v string
		r.string(&k)
		r.string(&v)
		if r.err != nil {
			return nil, r.err
		}
		ev.Data[k] = v
	}
	return ev, nil
}
