package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionHTTPErrorMessage(t *testing.T) {
	err := &ExecutionHTTPError{MappingID: "m1", StatusCode: 500}
	assert.Equal(t, "Mapping failed. Service returned with status 500.", err.Error())
}

func TestKindOfWrapped(t *testing.T) {
	base := &CatalogFetchError{URL: "http://x/", Err: stderrors.New("boom")}
	wrapped := fmt.Errorf("reload: %w", base)

	k, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindCatalogFetch, k)

	_, ok = KindOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestTransportErrorUsesUnderlyingText(t *testing.T) {
	inner := stderrors.New("dial tcp: connection refused")
	err := &ExecutionTransportError{MappingID: "m1", Err: inner}
	assert.Equal(t, "dial tcp: connection refused", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestNetworkErrorClassification(t *testing.T) {
	fe := NetworkError(stderrors.New("dial tcp 127.0.0.1:8090: connect: connection refused"))
	assert.Equal(t, "Mapping service refused connection", fe.Message)
	assert.Contains(t, fe.Error(), "How to fix:")
}

func TestConfigurationErrorText(t *testing.T) {
	err := &ConfigurationError{Field: "base-url", Value: "::", Err: stderrors.New("missing scheme")}
	assert.Equal(t, `invalid base-url "::": missing scheme`, err.Error())
}
