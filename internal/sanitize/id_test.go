package sanitize

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIDRoundTripAndCharset(t *testing.T) {
	safe := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	for _, id := range []string{"m1", "with space", `quote"and'`, "#hash.dot", "ümlaut/ß", "a"} {
		enc := EncodeID(id)
		assert.Regexp(t, safe, enc)
		assert.NotContains(t, enc, "=")
		got, err := DecodeID(enc)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDecodeIDRejectsForeignValues(t *testing.T) {
	_, err := DecodeID("other-bTE")
	assert.Error(t, err)
	_, err = DecodeID("mapping-***")
	assert.Error(t, err)
}
