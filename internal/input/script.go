// internal/input/script.go
package input

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

var keysByName = func() map[string]tcell.Key {
	m := make(map[string]tcell.Key, len(tcell.KeyNames))
	for k, name := range tcell.KeyNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

// ParseKey reads a key written as a tcell key name ("Left", "Tab",
// "Ctrl-V") with optional "Shift+" or "Ctrl+" prefixes, or as a single
// character.
func ParseKey(keyName string) (*tcell.EventKey, error) {
	mod := tcell.ModNone
	name := strings.TrimSpace(keyName)
	for {
		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(lower, "shift+"):
			mod |= tcell.ModShift
			name = name[len("shift+"):]
			continue
		case strings.HasPrefix(lower, "ctrl+") && len(name) > len("ctrl+"):
			mod |= tcell.ModCtrl
			name = name[len("ctrl+"):]
			if utf8.RuneCountInString(name) == 1 {
				name = "Ctrl-" + strings.ToUpper(name)
			}
			continue
		}
		break
	}
	if name == "" {
		return nil, fmt.Errorf("empty key in %q", keyName)
	}

	if k, ok := keysByName[strings.ToLower(name)]; ok {
		if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ && strings.HasPrefix(strings.ToLower(name), "ctrl-") {
			mod |= tcell.ModCtrl
		}
		return tcell.NewEventKey(k, 0, mod), nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return tcell.NewEventKey(tcell.KeyRune, r, mod), nil
	}
	return nil, fmt.Errorf("unknown key %q", keyName)
}

// ReadScript reads a key script. Each line is a key for ParseKey, or a
// double-quoted Go string whose characters are typed one by one. Blank
// lines and lines starting with '#' are skipped.
func ReadScript(r io.Reader) ([]*tcell.EventKey, error) {
	var events []*tcell.EventKey
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, `"`) {
			text, err := strconv.Unquote(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			for _, ch := range text {
				if ch == '\n' {
					events = append(events, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
					continue
				}
				events = append(events, tcell.NewEventKey(tcell.KeyRune, ch, tcell.ModNone))
			}
			continue
		}
		ev, err := ParseKey(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read key script: %w", err)
	}
	return events, nil
}
