package util

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndAppend(t *testing.T) {
	filePath := path.Join(t.TempDir(), "nested", "out.txt")
	require.NoError(t, WriteToFile(filePath, "a", "b"))
	require.NoError(t, AppendToFile(filePath, "c"))

	bs, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(bs))

	require.NoError(t, WriteToFile(filePath, "d"))
	bs, err = os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "d\n", string(bs))
}
