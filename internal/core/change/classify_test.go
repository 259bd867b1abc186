package change

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
)

func TestClassify(t *testing.T) {
	bold := delta.Attributes{"bold": true}
	tests := []struct {
		name string
		d    delta.Delta
		want event.Kind
	}{
		{"empty", delta.New(), event.KindSkip},
		{"insert only", delta.New().Insert("a", nil), event.KindTextInsert},
		{"retain then insert", delta.New().Retain(4, nil).Insert("a", nil), event.KindTextInsert},
		{"replace insert first", delta.New().Retain(1, nil).Insert("a", nil).Delete(3), event.KindTextInsert},
		{"replace delete first", delta.New().Delete(3).Insert("a", nil), event.KindTextInsert},
		{"embed", delta.New().InsertEmbed(map[string]any{"image": "x"}, nil), event.KindTextInsert},
		{"empty insert", delta.New().Insert("", nil), event.KindTextInsert},
		{"delete only", delta.New().Delete(2), event.KindTextDelete},
		{"retain then delete", delta.New().Retain(2, nil).Delete(1), event.KindTextDelete},
		{"retain", delta.New().Retain(5, nil), event.KindSkip},
		{"format", delta.New().Retain(2, nil).Retain(3, bold), event.KindSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.d))
		})
	}
}

func TestClassifyInsertDominates(t *testing.T) {
	// Every position of a single insert among deletes and retains.
	for pos := 0; pos < 4; pos++ {
		ops := []delta.Op{delta.Retain(1, nil), delta.Delete(1), delta.Delete(2)}
		ops = append(ops[:pos], append([]delta.Op{delta.Insert("x", nil)}, ops[pos:]...)...)
		assert.Equal(t, event.KindTextInsert, Classify(delta.New(ops...)), "insert at %d", pos)
	}
}
