package oracle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloplan/veloroute/geo"
	"github.com/veloplan/veloroute/oracle"
)

var testPts = []geo.Coordinate{
	{Lat: 42.3601, Lon: -71.0589},
	{Lat: 42.3736, Lon: -71.1097},
	{Lat: 42.3467, Lon: -71.0972},
}

func TestGreatCircle_CostMatchesHaversine(t *testing.T) {
	g := oracle.GreatCircle{}
	got, err := g.Cost(context.Background(), testPts[0], testPts[1])
	require.NoError(t, err)
	assert.Equal(t, geo.Haversine(testPts[0], testPts[1]), got)
}

func TestGreatCircle_CostRejectsBadCoordinate(t *testing.T) {
	g := oracle.GreatCircle{}
	_, err := g.Cost(context.Background(), geo.Coordinate{Lat: 99, Lon: 0}, testPts[0])
	require.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestGreatCircle_CostTableSymmetricZeroDiagonal(t *testing.T) {
	g := oracle.GreatCircle{}
	table, err := g.CostTable(context.Background(), testPts)
	require.NoError(t, err)
	require.Len(t, table, len(testPts))

	for i := range table {
		require.Len(t, table[i], len(testPts))
		assert.Zero(t, table[i][i])
		for j := range table[i] {
			assert.Equal(t, table[j][i], table[i][j], "cell (%d,%d)", i, j)
		}
	}
}

func TestGreatCircle_DirectionsStraightSegment(t *testing.T) {
	g := oracle.GreatCircle{SpeedMPS: 5}
	leg, err := g.Directions(context.Background(), testPts[0], testPts[2])
	require.NoError(t, err)

	require.Len(t, leg.Geometry, 2)
	assert.Equal(t, testPts[0], leg.Geometry[0])
	assert.Equal(t, testPts[2], leg.Geometry[1])
	assert.Equal(t, geo.Haversine(testPts[0], testPts[2]), leg.DistanceMeters)
	assert.InDelta(t, leg.DistanceMeters/5, leg.DurationSeconds, 1e-9)
}

func TestGreatCircle_Symmetric(t *testing.T) {
	assert.True(t, oracle.GreatCircle{}.Symmetric())
}
