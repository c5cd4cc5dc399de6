package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mapexec/internal/errors"
)

func TestParseBaseURL(t *testing.T) {
	for _, ok := range []string{"http://localhost:8090", "https://host/base/", " http://h:1/x "} {
		u, err := ParseBaseURL(ok)
		require.NoError(t, err, ok)
		assert.True(t, u.IsAbs())
	}
	for _, bad := range []string{"", "localhost:8090", "/relative", "::", "mailto:a@b"} {
		_, err := ParseBaseURL(bad)
		var cerr *apperrors.ConfigurationError
		assert.ErrorAs(t, err, &cerr, bad)
	}
}

func TestParseMaxFileSizeMB(t *testing.T) {
	n, err := ParseMaxFileSizeMB("5")
	require.NoError(t, err)
	assert.Equal(t, int64(5*1024*1024), n)

	for _, bad := range []string{"", "0", "-3", "2.5", "ten"} {
		n, err := ParseMaxFileSizeMB(bad)
		assert.Error(t, err, bad)
		assert.Equal(t, MB(DefaultMaxFileSizeMB), n, bad)
	}
}
