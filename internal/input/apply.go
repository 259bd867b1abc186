// internal/input/apply.go
package input

import (
	"errors"

	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/surface"
)

// ErrQuit is returned by Apply for ActionQuit.
var ErrQuit = errors.New("quit requested")

// Apply performs ev on surf as a human edit.
func Apply(surf *surface.Surface, ev ActionEvent) error {
	switch ev.Action {
	case ActionQuit:
		return ErrQuit
	case ActionMoveLeft:
		return surf.MoveCursor(-1, false)
	case ActionMoveRight:
		return surf.MoveCursor(1, false)
	case ActionMoveHome:
		return surf.MoveTo(0, false)
	case ActionMoveEnd:
		return surf.MoveTo(surf.Len(), false)
	case ActionSelectLeft:
		return surf.MoveCursor(-1, true)
	case ActionSelectRight:
		return surf.MoveCursor(1, true)
	case ActionSelectHome:
		return surf.MoveTo(0, true)
	case ActionSelectEnd:
		return surf.MoveTo(surf.Len(), true)
	case ActionSelectAll:
		return surf.Select(0, surf.Len())
	case ActionInsertRune:
		return surf.TypeText(string(ev.Rune))
	case ActionInsertNewLine:
		return surf.TypeText("\n")
	case ActionDeleteCharForward:
		return surf.DeleteForward()
	case ActionDeleteCharBackward:
		return surf.Backspace()
	case ActionCopy:
		_, err := surf.Copy()
		return err
	case ActionPaste:
		_, err := surf.Paste()
		return err
	case ActionUndo:
		_, err := surf.Undo()
		return err
	case ActionRedo:
		_, err := surf.Redo()
		return err
	case ActionRequestSuggestion:
		return surf.Tab()
	default:
		logger.DebugTagf("input", "Ignoring %v", ev.Action)
		return nil
	}
}
