package normalize

import "github.com/ternarybob/vellum/internal/models"

// Geo bucket labels and their base scores.
const (
	BucketLocal     = "local"
	BucketState     = "nc" // same state as the target, not a configured local city
	BucketNeighbor  = "neighbor"
	BucketRemoteUSA = "remote_usa"
	BucketOther     = "other"
	BucketUnknown   = "unknown"
)

var bucketScores = map[string]int{
	BucketLocal:     100,
	BucketState:     80,
	BucketNeighbor:  60,
	BucketRemoteUSA: 50,
	BucketOther:     0,
	BucketUnknown:   0,
}

// GeoParams supplies the target-state frame of reference a geo bucket is
// computed against.
type GeoParams struct {
	TargetState  string
	NeighborUSA  map[string]bool
	LocalCities  map[string]bool
}

// Geo buckets a normalized location against a target state, its configured
// neighbor states, and a set of cities considered "local" regardless of
// state. Returns the bucket label and its base score.
func Geo(loc models.LocationNorm, params GeoParams) (bucket string, score int) {
	if loc.Remote {
		if loc.RemoteScope == "usa" {
			return BucketRemoteUSA, bucketScores[BucketRemoteUSA]
		}
		return BucketUnknown, bucketScores[BucketUnknown]
	}

	if loc.City != "" && params.LocalCities[normalizeCityKey(loc.City)] {
		return BucketLocal, bucketScores[BucketLocal]
	}

	if loc.State == "" {
		if loc.Raw == "" {
			return BucketUnknown, bucketScores[BucketUnknown]
		}
		// Non-US location (no state assigned, not remote).
		return BucketUnknown, bucketScores[BucketUnknown]
	}

	if loc.State == params.TargetState {
		return BucketState, bucketScores[BucketState]
	}

	if params.NeighborUSA[loc.State] {
		return BucketNeighbor, bucketScores[BucketNeighbor]
	}

	return BucketOther, bucketScores[BucketOther]
}

func normalizeCityKey(city string) string {
	out := make([]rune, 0, len(city))
	for _, r := range city {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		out = append(out, r)
	}
	return string(out)
}
