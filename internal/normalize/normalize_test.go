package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/vellum/internal/common"
)

func defaultOpts() LocationOptions {
	return LocationOptions{MultiStatePrimary: "alphabetical"}
}

func TestLocation_RawIsPreserved(t *testing.T) {
	for _, raw := range []string{"Raleigh, NC", "Bangalore, India", "Remote - USA", ""} {
		got := Location(raw, defaultOpts())
		assert.Equal(t, raw, got.Raw)
	}
}

func TestLocation_NonUSCountrySuppressesState(t *testing.T) {
	got := Location("Bangalore, India", defaultOpts())
	assert.Empty(t, got.State)
	assert.False(t, got.Remote)
}

func TestLocation_CityStateUSA(t *testing.T) {
	got := Location("Raleigh, NC", defaultOpts())
	assert.Equal(t, "NC", got.State)
	assert.Equal(t, "Raleigh", got.City)
	assert.False(t, got.Remote)
}

func TestLocation_RemoteUSAPatterns(t *testing.T) {
	cases := []string{"Remote - USA", "US Remote", "United States, Remote", "Remote (USA)"}
	for _, c := range cases {
		got := Location(c, defaultOpts())
		assert.True(t, got.Remote, c)
		assert.Equal(t, "usa", got.RemoteScope, c)
	}
}

func TestLocation_GlobalRemoteDoesNotClaimUSAScope(t *testing.T) {
	got := Location("Remote", defaultOpts())
	assert.True(t, got.Remote)
	assert.Equal(t, "global", got.RemoteScope)
}

func TestLocation_MultiStateAlphabeticalPrimary(t *testing.T) {
	got := Location("Austin, TX / Raleigh, NC", defaultOpts())
	assert.ElementsMatch(t, []string{"TX", "NC"}, got.States)
	assert.Equal(t, "NC", got.State, "alphabetically-first state wins by default")
}

func TestLocation_MultiStateFirstObservedPrimary(t *testing.T) {
	got := Location("Austin, TX / Raleigh, NC", LocationOptions{MultiStatePrimary: "first_observed"})
	assert.Equal(t, "TX", got.State)
}

func TestLocation_EmptyInput(t *testing.T) {
	got := Location("", defaultOpts())
	assert.Equal(t, "", got.Raw)
	assert.Empty(t, got.State)
	assert.False(t, got.Remote)
}

func TestRole_NegativeKeywordWinsOverFamilyMatch(t *testing.T) {
	got := Role("Senior Software Engineer", "", nil)
	assert.Equal(t, "other", got.Family)
}

func TestRole_ProductFamily(t *testing.T) {
	got := Role("Senior Product Manager", "", nil)
	assert.Equal(t, "product", got.Family)
}

func TestRole_TPMProgramFamily(t *testing.T) {
	got := Role("Technical Program Manager II", "", nil)
	assert.Equal(t, "tpm_program", got.Family)
}

func TestRole_ProjectFamily(t *testing.T) {
	got := Role("Senior Project Manager", "", nil)
	assert.Equal(t, "project", got.Family)
}

func TestRole_NoMatchIsOtherAtLowConfidence(t *testing.T) {
	got := Role("Chief of Staff", "", nil)
	assert.Equal(t, "other", got.Family)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestRole_ConfiguredOverride(t *testing.T) {
	overrides := common.DefaultResolverDefaults().RoleFamilyOverrides
	got := Role("Strategic Project Lead", "", overrides)
	assert.Equal(t, "tpm_program", got.Family)
	assert.Equal(t, 0.7, got.Confidence)
}

func TestGeo_LocalCityBucket(t *testing.T) {
	loc := Location("Raleigh, NC", defaultOpts())
	params := GeoParams{
		TargetState: "NC",
		NeighborUSA: map[string]bool{"VA": true, "SC": true, "TN": true, "GA": true},
		LocalCities: map[string]bool{"raleigh": true},
	}
	bucket, score := Geo(loc, params)
	assert.Equal(t, BucketLocal, bucket)
	assert.Equal(t, 100, score)
}

func TestGeo_SameStateNotLocalCity(t *testing.T) {
	loc := Location("Charlotte, NC", defaultOpts())
	params := GeoParams{
		TargetState: "NC",
		NeighborUSA: map[string]bool{},
		LocalCities: map[string]bool{"raleigh": true},
	}
	bucket, _ := Geo(loc, params)
	assert.Equal(t, BucketState, bucket)
}

func TestGeo_NeighborState(t *testing.T) {
	loc := Location("Richmond, VA", defaultOpts())
	params := GeoParams{
		TargetState: "NC",
		NeighborUSA: map[string]bool{"VA": true},
		LocalCities: map[string]bool{},
	}
	bucket, score := Geo(loc, params)
	assert.Equal(t, BucketNeighbor, bucket)
	assert.Equal(t, 60, score)
}

func TestGeo_RemoteUSA(t *testing.T) {
	loc := Location("Remote - USA", defaultOpts())
	bucket, score := Geo(loc, GeoParams{TargetState: "NC"})
	assert.Equal(t, BucketRemoteUSA, bucket)
	assert.Equal(t, 50, score)
}

func TestGeo_OtherState(t *testing.T) {
	loc := Location("Seattle, WA", defaultOpts())
	bucket, _ := Geo(loc, GeoParams{TargetState: "NC", NeighborUSA: map[string]bool{}})
	assert.Equal(t, BucketOther, bucket)
}

func TestGeo_UnknownForNonUS(t *testing.T) {
	loc := Location("Bangalore, India", defaultOpts())
	bucket, score := Geo(loc, GeoParams{TargetState: "NC"})
	assert.Equal(t, BucketUnknown, bucket)
	assert.Equal(t, 0, score)
}
