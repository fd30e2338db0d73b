package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTMLHelpers(t *testing.T) {
	require.Equal(t, "<b>a &lt;b&gt; &amp; c</b>", Bold("a <b> & c"))
	require.Equal(t, "<i>x</i>", Italic("x"))
	require.Equal(t, "one\ntwo", Lines("one", "", "two"))
	require.Empty(t, Lines())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 3))
	require.Equal(t, "ab…", Truncate("abcd", 3))
	require.Equal(t, "жж…", Truncate("жжжж", 3))
	require.Equal(t, "abc", Truncate("abc", 0))
}
