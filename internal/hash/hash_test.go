package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLNormalizes(t *testing.T) {
	t.Parallel()

	base := URL("https://www.sumo.or.jp/En/news/123")
	assert.Equal(t, base, URL("https://www.sumo.or.jp/En/news/123/"))
	assert.Equal(t, base, URL("HTTPS://www.sumo.or.jp/En/news/123"))
	assert.NotEqual(t, base, URL("https://www.sumo.or.jp/En/news/124"))
}

func TestContentIgnoresWhitespaceRuns(t *testing.T) {
	t.Parallel()

	a := Content("Onosato wins   the Emperor's Cup")
	b := Content("Onosato wins the\n\tEmperor's Cup")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Content("Onosato loses the Emperor's Cup"))
}

func TestURLDeterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, URL("http://www.ifs-sumo.org"), URL("http://www.ifs-sumo.org"))
}
