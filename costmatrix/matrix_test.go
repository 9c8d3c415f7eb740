package costmatrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloplan/veloroute/costmatrix"
)

func TestNew_RejectsBadOrder(t *testing.T) {
	_, err := costmatrix.New(0)
	require.ErrorIs(t, err, costmatrix.ErrBadShape)
	_, err = costmatrix.New(-3)
	require.ErrorIs(t, err, costmatrix.ErrBadShape)
}

func TestMatrix_AtSetBounds(t *testing.T) {
	m, err := costmatrix.New(2)
	require.NoError(t, err)

	require.NoError(t, m.Set(0, 1, 7.5))
	v, err := m.At(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)

	_, err = m.At(2, 0)
	require.ErrorIs(t, err, costmatrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(-1, 0, 1), costmatrix.ErrOutOfRange)
}

func TestMatrix_SetRejectsBadValues(t *testing.T) {
	m, err := costmatrix.New(2)
	require.NoError(t, err)

	require.ErrorIs(t, m.Set(0, 1, math.NaN()), costmatrix.ErrNotFinite)
	require.ErrorIs(t, m.Set(0, 1, math.Inf(1)), costmatrix.ErrNotFinite)
	require.ErrorIs(t, m.Set(0, 1, -0.5), costmatrix.ErrNegativeCost)
}

func TestMatrix_Validate(t *testing.T) {
	m, err := costmatrix.FromRows([][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	})
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	// Corrupt the diagonal through the raw buffer (simulates a bad loader).
	m.Raw()[0] = 4
	require.ErrorIs(t, m.Validate(), costmatrix.ErrNonZeroDiagonal)

	m.Raw()[0] = math.Inf(1)
	require.ErrorIs(t, m.Validate(), costmatrix.ErrNotFinite)

	m.Raw()[0] = -1
	require.ErrorIs(t, m.Validate(), costmatrix.ErrNegativeCost)
}

func TestMatrix_IsSymmetric(t *testing.T) {
	sym, err := costmatrix.FromRows([][]float64{
		{0, 5, 2},
		{5, 0, 4},
		{2, 4, 0},
	})
	require.NoError(t, err)
	assert.True(t, sym.IsSymmetric())

	asym, err := costmatrix.FromRows([][]float64{
		{0, 5, 2},
		{6, 0, 4},
		{2, 4, 0},
	})
	require.NoError(t, err)
	assert.False(t, asym.IsSymmetric())
}

func TestMatrix_CloneIsIndependent(t *testing.T) {
	m, err := costmatrix.FromRows([][]float64{{0, 1}, {2, 0}})
	require.NoError(t, err)

	cp := m.Clone()
	require.NoError(t, m.Set(0, 1, 9))

	v, err := cp.At(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestFromRows_RejectsRagged(t *testing.T) {
	_, err := costmatrix.FromRows([][]float64{{0, 1}, {2}})
	require.ErrorIs(t, err, costmatrix.ErrBadShape)
}
