// Package transcript keeps the rolling text window the analysers read from.
package transcript

import "strings"

// Window holds the most recent transcribed words. It is owned by a single
// session worker and is not safe for concurrent use.
type Window struct {
	maxWords int
	words    []string
}

func NewWindow(maxWords int) *Window {
	if maxWords <= 0 {
		maxWords = 1000
	}
	return &Window{maxWords: maxWords}
}

// Append adds newly transcribed text and drops the oldest words beyond the limit.
// It reports whether anything was added.
func (w *Window) Append(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	w.words = append(w.words, fields...)
	if over := len(w.words) - w.maxWords; over > 0 {
		w.words = append(w.words[:0:0], w.words[over:]...)
	}
	return true
}

// Text returns the whole window.
func (w *Window) Text() string {
	return strings.Join(w.words, " ")
}

// Words returns the number of words currently held.
func (w *Window) Words() int {
	return len(w.words)
}

// Tail returns at most the last n characters of the window.
func (w *Window) Tail(n int) string {
	return Tail(w.Text(), n)
}

// Tail returns at most the last n runes of s.
func Tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
