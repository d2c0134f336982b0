package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reunite-app/missing-persons-api/models"
)

func TestCityLookup_ExactMatch(t *testing.T) {
	coords, ok := CityLookup("Mumbai")

	assert.True(t, ok)
	assert.Equal(t, 19.0760, coords.Lat)
	assert.Equal(t, 72.8777, coords.Lng)
	assert.Equal(t, models.CoordSourceCityLookup, coords.Source)
}

func TestCityLookup_SubstringMatch(t *testing.T) {
	coords, ok := CityLookup("Andheri East, Mumbai, Maharashtra")

	assert.True(t, ok)
	assert.Equal(t, 19.0760, coords.Lat)
}

func TestCityLookup_NoMatch(t *testing.T) {
	_, ok := CityLookup("Timbuktu")

	assert.False(t, ok)
}

func TestDistance(t *testing.T) {
	// Delhi to Mumbai is roughly 1150 km
	d := Distance(28.6139, 77.2090, 19.0760, 72.8777)

	assert.InDelta(t, 1150, d, 20)
}

func TestDistance_SamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Distance(28.6139, 77.2090, 28.6139, 77.2090))
}
