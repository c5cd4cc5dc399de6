package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapexec/internal/catalog"
)

var testCatalog = []catalog.MappingDescriptor{
	{ID: "m1", Title: "Invoice to JSON"},
	{ID: "m2", Title: "Invoice to XML"},
	{ID: "m3", Title: "Customer export"},
}

func TestResolveMappingByID(t *testing.T) {
	d, err := resolveMapping(testCatalog, "m2")
	require.NoError(t, err)
	assert.Equal(t, "Invoice to XML", d.Title)
}

func TestResolveMappingByTitle(t *testing.T) {
	d, err := resolveMapping(testCatalog, "customer EXPORT")
	require.NoError(t, err)
	assert.Equal(t, "m3", d.ID)
}

func TestResolveMappingFuzzy(t *testing.T) {
	d, err := resolveMapping(testCatalog, "custexp")
	require.NoError(t, err)
	assert.Equal(t, "m3", d.ID)

	_, err = resolveMapping(testCatalog, "invoice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
	assert.Contains(t, err.Error(), "m1")
	assert.Contains(t, err.Error(), "m2")

	_, err = resolveMapping(testCatalog, "payroll")
	assert.Error(t, err)

	_, err = resolveMapping(testCatalog, "  ")
	assert.Error(t, err)
}
