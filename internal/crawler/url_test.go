package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "fragment and query", in: "http://a/x?y#z", want: "http://a/x"},
		{name: "fragment only", in: "https://www.ics.uci.edu/about#team", want: "https://www.ics.uci.edu/about"},
		{name: "query only", in: "https://www.ics.uci.edu/search?q=go", want: "https://www.ics.uci.edu/search"},
		{name: "fragment before query", in: "https://x.ics.uci.edu/a#b?c", want: "https://x.ics.uci.edu/a"},
		{name: "untouched", in: "https://X.ics.uci.edu/Path/", want: "https://X.ics.uci.edu/Path/"},
		{name: "empty", in: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, NormalizeURL(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"http://a/x?y#z",
		"https://www.ics.uci.edu/~eppstein/pix/",
		"https://www.stat.uci.edu/?p=1#top",
		"#only-fragment",
	}
	for _, n := range []Normalizer{DefaultNormalizer(), {StripQuery: false}} {
		for _, in := range inputs {
			once := n.Normalize(in)
			require.Equal(t, once, n.Normalize(once), "normalizing %q twice", in)
		}
	}
}

func TestNormalizeKeepsQueryWhenConfigured(t *testing.T) {
	t.Parallel()

	n := Normalizer{StripQuery: false}
	require.Equal(t, "http://a/x?y", n.Normalize("http://a/x?y#z"))
}
