package vault_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparklabs/ideavault/api/vault"
)

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr bool
	}{
		{name: "simple", a: 5000, b: 2000, want: 7000},
		{name: "zero", a: 0, b: 0, want: 0},
		{name: "at cap", a: math.MaxInt64 - 1, b: 1, want: math.MaxInt64},
		{name: "over cap", a: math.MaxInt64, b: 1, wantErr: true},
		{name: "u64 wraparound", a: math.MaxUint64, b: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vault.CheckedAdd(tt.a, tt.b)
			if tt.wantErr {
				assert.ErrorIs(t, err, vault.ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckedSub(t *testing.T) {
	got, err := vault.CheckedSub(5000, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), got)

	got, err = vault.CheckedSub(5000, 5000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	_, err = vault.CheckedSub(2000, 5000)
	assert.ErrorIs(t, err, vault.ErrOverflow)

	_, err = vault.CheckedSub(0, 1)
	assert.ErrorIs(t, err, vault.ErrOverflow)
}
