package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDateTimeDefaultsToRFC3339(t *testing.T) {
	result, err := handleDateTime(nil, DateTimeArgs{})
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, result.Datetime)
	assert.NoError(t, err)
}

func TestHandleDateTimeHonorsCustomFormat(t *testing.T) {
	result, err := handleDateTime(nil, DateTimeArgs{Format: "2006-01-02"})
	require.NoError(t, err)
	_, err = time.Parse("2006-01-02", result.Datetime)
	assert.NoError(t, err)
}

func TestDateTimeBuildsValidTool(t *testing.T) {
	tool, handler := DateTime()
	assert.Equal(t, "get_datetime", tool.Name)
	require.NotNil(t, handler)
}
