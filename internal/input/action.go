// internal/input/action.go
package input

// Action is an editing command decoded from a key.
type Action int

const (
	ActionUnknown Action = iota
	ActionQuit

	// --- Cursor Movement ---
	ActionMoveLeft
	ActionMoveRight
	ActionMoveHome // Start of document
	ActionMoveEnd  // End of document

	// --- Selection ---
	ActionSelectLeft
	ActionSelectRight
	ActionSelectHome
	ActionSelectEnd
	ActionSelectAll

	// --- Text Manipulation ---
	ActionInsertRune // Requires Rune
	ActionInsertNewLine
	ActionDeleteCharForward  // Delete key
	ActionDeleteCharBackward // Backspace key
	ActionCopy
	ActionPaste
	ActionUndo
	ActionRedo

	// --- Suggestions ---
	ActionRequestSuggestion // Tab
)

var actionNames = map[Action]string{
	ActionUnknown:            "unknown",
	ActionQuit:               "quit",
	ActionMoveLeft:           "move-left",
	ActionMoveRight:          "move-right",
	ActionMoveHome:           "move-home",
	ActionMoveEnd:            "move-end",
	ActionSelectLeft:         "select-left",
	ActionSelectRight:        "select-right",
	ActionSelectHome:         "select-home",
	ActionSelectEnd:          "select-end",
	ActionSelectAll:          "select-all",
	ActionInsertRune:         "insert-rune",
	ActionInsertNewLine:      "insert-newline",
	ActionDeleteCharForward:  "delete-forward",
	ActionDeleteCharBackward: "delete-backward",
	ActionCopy:               "copy",
	ActionPaste:              "paste",
	ActionUndo:               "undo",
	ActionRedo:               "redo",
	ActionRequestSuggestion:  "request-suggestion",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ActionEvent is a decoded key with its payload.
type ActionEvent struct {
	Action Action
	Rune   rune // Used for ActionInsertRune
}
