package geo

import (
	"math"
	"strings"

	"github.com/reunite-app/missing-persons-api/models"
)

// indianCities is a local lookup table for common report locations, a cheaper
// alternative fallback when the network providers are unavailable.
var indianCities = map[string][2]float64{
	"delhi":         {28.6139, 77.2090},
	"mumbai":        {19.0760, 72.8777},
	"bangalore":     {12.9716, 77.5946},
	"chennai":       {13.0827, 80.2707},
	"kolkata":       {22.5726, 88.3639},
	"hyderabad":     {17.3850, 78.4867},
	"pune":          {18.5204, 73.8567},
	"ahmedabad":     {23.0225, 72.5714},
	"jaipur":        {26.9124, 75.7873},
	"lucknow":       {26.8467, 80.9462},
	"kanpur":        {26.4499, 80.3319},
	"nagpur":        {21.1458, 79.0882},
	"indore":        {22.7196, 75.8577},
	"thane":         {19.2183, 72.9781},
	"bhopal":        {23.2599, 77.4126},
	"visakhapatnam": {17.6868, 83.2185},
	"pimpri":        {18.6298, 73.7997},
	"patna":         {25.5941, 85.1376},
	"vadodara":      {22.3072, 73.1812},
	"ghaziabad":     {28.6692, 77.4538},
	"ludhiana":      {30.9010, 75.8573},
	"agra":          {27.1767, 78.0081},
	"nashik":        {19.9975, 73.7898},
	"faridabad":     {28.4089, 77.3178},
	"meerut":        {28.9845, 77.7064},
	"rajkot":        {22.3039, 70.8022},
	"kalyan":        {19.2437, 73.1355},
	"vasai":         {19.4559, 72.8066},
	"varanasi":      {25.3176, 82.9739},
}

// CityLookup returns hardcoded coordinates for known city names, matching
// exactly or by substring in either direction. The second return is false
// when nothing matches.
func CityLookup(locationName string) (Coordinates, bool) {
	search := strings.ToLower(strings.TrimSpace(locationName))

	if coords, ok := indianCities[search]; ok {
		return Coordinates{Lat: coords[0], Lng: coords[1], Source: models.CoordSourceCityLookup}, true
	}

	for city, coords := range indianCities {
		if strings.Contains(search, city) || strings.Contains(city, search) {
			return Coordinates{Lat: coords[0], Lng: coords[1], Source: models.CoordSourceCityLookup}, true
		}
	}

	return Coordinates{}, false
}

const earthRadiusKm = 6371

// Distance returns the great-circle distance between two points in kilometers
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
