package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendKeepsLastWords(t *testing.T) {
	w := NewWindow(5)
	require.True(t, w.Append("satu dua tiga"))
	require.True(t, w.Append("empat  lima\nenam"))
	require.Equal(t, 5, w.Words())
	require.Equal(t, "dua tiga empat lima enam", w.Text())
}

func TestAppendIgnoresBlankText(t *testing.T) {
	w := NewWindow(10)
	require.False(t, w.Append("   \n"))
	require.Equal(t, "", w.Text())
}

func TestTailIsRuneSafe(t *testing.T) {
	require.Equal(t, "ué", Tail("café ué", 2))
	require.Equal(t, "abc", Tail("abc", 10))
	require.Equal(t, "", Tail("abc", 0))

	w := NewWindow(1000)
	w.Append(strings.Repeat("kata ", 600))
	require.Len(t, w.Tail(1500), 1500)
}
