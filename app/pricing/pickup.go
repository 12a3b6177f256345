package pricing

import (
	"context"
	"math"

	"github.com/rosesandhello/facescrape/app/listing"
)

const earthRadiusMiles = 3958.8

// PickupEstimator prices the round trip to collect an item. Distance comes
// from the listing's coordinates against the home location when both are
// known, otherwise from the marketplace's own "X miles away" figure.
type PickupEstimator struct {
	homeLat    float64
	homeLng    float64
	vehicleMPG float64
	gasPrice   *GasPrice
}

func NewPickupEstimator(homeLat, homeLng, vehicleMPG float64, gasPrice *GasPrice) *PickupEstimator {
	return &PickupEstimator{
		homeLat:    homeLat,
		homeLng:    homeLng,
		vehicleMPG: vehicleMPG,
		gasPrice:   gasPrice,
	}
}

// Cost returns the estimated fuel cost in dollars for a round trip to the
// listing. Zero when the vehicle MPG is unset or no distance is known.
func (p *PickupEstimator) Cost(ctx context.Context, loc listing.Location) float64 {
	if p.vehicleMPG <= 0 {
		return 0
	}

	distance := p.distanceMiles(loc)
	if distance <= 0 {
		return 0
	}

	roundTrip := distance * 2
	return roundTrip / p.vehicleMPG * p.gasPrice.Get(ctx)
}

func (p *PickupEstimator) distanceMiles(loc listing.Location) float64 {
	if loc.HasCoordinates() && (p.homeLat != 0 || p.homeLng != 0) {
		return Haversine(p.homeLat, p.homeLng, loc.Lat, loc.Lng)
	}
	return loc.DistanceMiles
}

// Haversine returns the great-circle distance in miles between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}
