package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_PairedUpAndDown(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	ups, downs := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			ups++
		case strings.HasSuffix(f, ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitSchema_SeedsCanonicalStates(t *testing.T) {
	data, err := migrations.ReadFile("sql/000001_init.up.sql")
	require.NoError(t, err)

	for _, code := range []string{"'AVAILABLE'", "'LOANED'", "'IN_REPAIR'", "'DECOMMISSIONED'"} {
		assert.Contains(t, string(data), code)
	}
	assert.Contains(t, string(data), "CHECK (stock >= 0)")
	assert.Contains(t, string(data), "CHECK (return_date > init_date)")
}
