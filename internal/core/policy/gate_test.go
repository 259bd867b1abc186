package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/provtrace/internal/delta"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/provenance"
)

func ins(text string) delta.Delta { return delta.New().Retain(2, nil).Insert(text, nil) }

func TestMachineOnly(t *testing.T) {
	g := NewGate(MachineOnly)
	tests := []struct {
		name  string
		actor provenance.Actor
		kind  event.Kind
		d     delta.Delta
		want  Decision
	}{
		{"human spaces", provenance.Human, event.KindTextInsert, ins("   "), Accept},
		{"human newline and tab", provenance.Human, event.KindTextInsert, ins("\n\t"), Accept},
		{"human crlf", provenance.Human, event.KindTextInsert, ins("\r\n"), Accept},
		{"human word", provenance.Human, event.KindTextInsert, ins("hello"), RejectAndRevert},
		{"human padded word", provenance.Human, event.KindTextInsert, ins(" a "), RejectAndRevert},
		{"human combining mark on space", provenance.Human, event.KindTextInsert, ins(" \u0301"), RejectAndRevert},
		{"human second insert not blank", provenance.Human, event.KindTextInsert,
			delta.New().Insert(" ", nil).Retain(1, nil).Insert("x", nil), RejectAndRevert},
		{"human embed", provenance.Human, event.KindTextInsert,
			delta.New().InsertEmbed(map[string]any{"image": "x"}, nil), RejectAndRevert},
		{"human replace with space", provenance.Human, event.KindTextInsert,
			delta.New().Retain(1, nil).Insert(" ", nil).Delete(4), Accept},
		{"human delete", provenance.Human, event.KindTextDelete, delta.New().Delete(10), Accept},
		{"human format", provenance.Human, event.KindSkip, delta.New().Retain(3, delta.Attributes{"bold": true}), Reject},
		{"human cursor", provenance.Human, event.KindCursorForward, delta.New(), Reject},
		{"api insert", provenance.Programmatic, event.KindTextInsert, ins("generated text"), Accept},
		{"api delete", provenance.Programmatic, event.KindTextDelete, delta.New().Delete(1), Accept},
		{"api format", provenance.Programmatic, event.KindSkip, delta.New().Retain(1, nil), Accept},
		{"internal insert", provenance.Internal, event.KindTextInsert, ins("x"), Reject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Admit(tt.actor, tt.kind, tt.d))
		})
	}
}

func TestUnrestrictedAcceptsEverything(t *testing.T) {
	var g Gate
	assert.Equal(t, Unrestricted, g.Mode())
	for _, actor := range []provenance.Actor{provenance.Human, provenance.Programmatic, provenance.Internal} {
		assert.Equal(t, Accept, g.Admit(actor, event.KindTextInsert, ins("hello")))
	}
}

func TestSetMode(t *testing.T) {
	g := NewGate(Unrestricted)
	g.SetMode(MachineOnly)
	assert.Equal(t, RejectAndRevert, g.Admit(provenance.Human, event.KindTextInsert, ins("x")))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":             Unrestricted,
		"unrestricted": Unrestricted,
		"Machine-Only": MachineOnly,
		"machine_only": MachineOnly,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("human-only")
	assert.Error(t, err)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("machine-only")))
	assert.Equal(t, MachineOnly, m)
	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "machine-only", string(text))
}

func TestWhitespaceOnly(t *testing.T) {
	assert.True(t, WhitespaceOnly(delta.New()))
	assert.True(t, WhitespaceOnly(delta.New().Delete(3)))
	assert.True(t, WhitespaceOnly(delta.New().Insert("", nil)))
	assert.True(t, WhitespaceOnly(delta.New().Insert("  ", nil)))
	assert.False(t, WhitespaceOnly(delta.New().Insert("\u200b", nil)))
}

func TestWhitespaceMatchesBrowserTrim(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"byte order mark", "\uFEFF", true},
		{"nbsp and tab", "\u00a0\t", true},
		{"line separator", "\u2028\u2029", true},
		{"ideographic space", "\u3000", true},
		{"next line", "\u0085", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WhitespaceOnly(delta.New().Insert(tt.text, nil)))
		})
	}

	g := NewGate(MachineOnly)
	assert.Equal(t, Accept, g.Admit(provenance.Human, event.KindTextInsert, delta.New().Insert("\uFEFF", nil)))
}
