package idgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/sony/sonyflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	gen, err := New()
	require.NoError(t, err)
	assert.NotNil(t, gen.sf)
}

func failingMachineID() (uint16, error) {
	return 0, errors.New("no private ip address")
}

func TestNewWithSettings_MachineIDFailure(t *testing.T) {
	t.Parallel()

	gen, err := NewWithSettings(sonyflake.Settings{MachineID: failingMachineID})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, gen)
}

func TestNew_FallsBackToHostname(t *testing.T) {
	t.Parallel()

	gen, err := newWithFallback(failingMachineID)
	require.NoError(t, err)

	id, err := gen.GenerateRequestID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "req-"))
}

func TestGenerator_Unavailable(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name string
		gen  *Generator
	}{
		{name: "nil generator", gen: nil},
		{name: "zero generator", gen: &Generator{}},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := tc.gen.GenerateID()
			assert.ErrorIs(t, err, ErrUnavailable)

			_, err = tc.gen.GenerateTaskID()
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestGeneratePrefixedIDs(t *testing.T) {
	t.Parallel()

	gen, err := New()
	require.NoError(t, err)

	testcases := []struct {
		name     string
		generate func() (string, error)
		prefix   string
	}{
		{
			name:     "snapshot job ID",
			generate: gen.GenerateSnapshotJobID,
			prefix:   "snap-",
		},
		{
			name:     "request ID",
			generate: gen.GenerateRequestID,
			prefix:   "req-",
		},
		{
			name:     "task ID",
			generate: gen.GenerateTaskID,
			prefix:   "task-",
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ids := make(map[string]bool)
			for i := 0; i < 100; i++ {
				id, err := tc.generate()
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(id, tc.prefix), "unexpected ID %s", id)
				assert.False(t, ids[id], "ID should be unique: %s", id)
				ids[id] = true
			}
		})
	}
}

func TestGenerateID_Incremental(t *testing.T) {
	t.Parallel()

	gen, err := New()
	require.NoError(t, err)

	// 生成多个 ID，验证它们是递增的
	var prevID uint64
	for i := 0; i < 100; i++ {
		id, err := gen.GenerateID()
		require.NoError(t, err)

		if i > 0 {
			assert.Greater(t, id, prevID, "ID should be incremental: %d > %d", id, prevID)
		}
		prevID = id
	}
}

func TestDefaultGenerator(t *testing.T) {
	t.Parallel()

	assert.Same(t, DefaultGenerator(), DefaultGenerator())

	id, err := GenerateRequestID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "req-"))

	id, err = GenerateSnapshotJobID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "snap-"))
}
