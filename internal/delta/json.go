package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireOp is the Quill JSON shape of one operation, e.g. {"retain":5},
// {"insert":"Hello","attributes":{"bold":true}} or {"delete":2}.
type wireOp struct {
	Retain     *int            `json:"retain,omitempty"`
	Insert     json.RawMessage `json:"insert,omitempty"`
	Delete     *int            `json:"delete,omitempty"`
	Attributes Attributes      `json:"attributes,omitempty"`
}

// MarshalJSON encodes the operation in Quill's wire format.
func (o Op) MarshalJSON() ([]byte, error) {
	w := wireOp{Attributes: o.attrs}
	switch o.kind {
	case OpRetain:
		n := o.length
		w.Retain = &n
	case OpDelete:
		n := o.length
		w.Delete = &n
		w.Attributes = nil
	case OpInsert:
		var (
			raw []byte
			err error
		)
		if o.embed != nil {
			raw, err = json.Marshal(o.embed)
		} else {
			raw, err = json.Marshal(o.text)
		}
		if err != nil {
			return nil, err
		}
		w.Insert = raw
	default:
		return nil, fmt.Errorf("%w: cannot encode", ErrMalformedOp)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes one Quill operation. The variant is decided here,
// once; an op naming zero or several of retain/insert/delete is rejected.
func (o *Op) UnmarshalJSON(data []byte) error {
	var w wireOp
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOp, err)
	}

	set := 0
	if w.Retain != nil {
		set++
	}
	if len(w.Insert) > 0 {
		if bytes.Equal(w.Insert, []byte("null")) {
			return fmt.Errorf("%w: null insert", ErrMalformedOp)
		}
		set++
	}
	if w.Delete != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%w: %s", ErrMalformedOp, bytes.TrimSpace(data))
	}

	var op Op
	switch {
	case w.Retain != nil:
		op = Retain(*w.Retain, w.Attributes)
	case w.Delete != nil:
		op = Delete(*w.Delete)
	default:
		var text string
		if err := json.Unmarshal(w.Insert, &text); err == nil {
			op = Insert(text, w.Attributes)
			break
		}
		var embed map[string]any
		if err := json.Unmarshal(w.Insert, &embed); err != nil || embed == nil {
			return fmt.Errorf("%w: insert must be text or an object", ErrMalformedOp)
		}
		op = InsertEmbed(embed, w.Attributes)
	}
	if err := op.validate(); err != nil {
		return err
	}
	*o = op
	return nil
}

// MarshalJSON encodes the delta as {"ops":[...]}.
func (d Delta) MarshalJSON() ([]byte, error) {
	ops := d.ops
	if ops == nil {
		ops = []Op{}
	}
	return json.Marshal(struct {
		Ops []Op `json:"ops"`
	}{ops})
}

// UnmarshalJSON accepts {"ops":[...]}, a bare op array, or null.
func (d *Delta) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Delta{}
		return nil
	}

	var ops []Op
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &ops); err != nil {
			return err
		}
	} else {
		var w struct {
			Ops []Op `json:"ops"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		ops = w.Ops
	}
	*d = New(ops...)
	return nil
}
