package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		0:                       "0.00 Bytes",
		512:                     "512.00 Bytes",
		1024:                    "1.00 KB",
		1536:                    "1.50 KB",
		5 * 1024 * 1024:         "5.00 MB",
		6 * 1024 * 1024:         "6.00 MB",
		5*1024*1024 + 1:         "5.00 MB",
		3 << 30:                 "3.00 GB",
		2 << 40:                 "2.00 TB",
		4096 * (int64(1) << 40): "4096.00 TB",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatBytes(in), "FormatBytes(%d)", in)
	}
}
