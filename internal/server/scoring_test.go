package server

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/models"
)

func TestParseJobsQuery_DefaultsAndStates(t *testing.T) {
	raw, err := url.ParseQuery("ats_filter=Greenhouse&states=nc, va&include_remote_usa=true")
	assert.NoError(t, err)

	q := parseJobsQuery(raw)
	assert.Equal(t, "greenhouse", q.atsFilter)
	assert.Equal(t, geoModeAll, q.geoMode)
	assert.True(t, q.includeRemoteUSA)
	assert.True(t, q.states["NC"])
	assert.True(t, q.states["VA"])
}

func TestJobsQuery_Matches(t *testing.T) {
	job := models.Job{
		ATS: "greenhouse", Company: "Acme", Title: "Product Manager",
		Location: "Raleigh, NC", RoleFamily: "product",
		LocationNorm: models.LocationNorm{States: []string{"NC"}},
	}

	assert.True(t, jobsQuery{}.matches(job))
	assert.True(t, jobsQuery{roleFilter: "product"}.matches(job))
	assert.False(t, jobsQuery{roleFilter: "engineering"}.matches(job))
	assert.True(t, jobsQuery{search: "acme"}.matches(job))
	assert.False(t, jobsQuery{search: "nonexistent"}.matches(job))
	assert.True(t, jobsQuery{states: map[string]bool{"NC": true}}.matches(job))
	assert.False(t, jobsQuery{states: map[string]bool{"VA": true}}.matches(job))
}

func TestJobsQuery_PassesGeoMode(t *testing.T) {
	local := models.Job{GeoBucket: "local"}
	neighbor := models.Job{GeoBucket: "neighbor"}
	nc := models.Job{GeoBucket: "nc"}
	remote := models.Job{GeoBucket: "remote_usa"}
	other := models.Job{GeoBucket: "other"}

	all := jobsQuery{geoMode: geoModeAll}
	assert.True(t, all.passesGeoMode(other))

	localOnly := jobsQuery{geoMode: geoModeLocalOnly}
	assert.True(t, localOnly.passesGeoMode(local))
	assert.False(t, localOnly.passesGeoMode(neighbor))
	assert.False(t, localOnly.passesGeoMode(remote))

	localOnlyWidened := jobsQuery{geoMode: geoModeLocalOnly, includeRemoteUSA: true}
	assert.True(t, localOnlyWidened.passesGeoMode(remote))

	ncPriority := jobsQuery{geoMode: geoModeNCPriority}
	assert.True(t, ncPriority.passesGeoMode(local))
	assert.True(t, ncPriority.passesGeoMode(nc))
	assert.False(t, ncPriority.passesGeoMode(neighbor))

	remoteUSA := jobsQuery{geoMode: geoModeRemoteUSA}
	assert.True(t, remoteUSA.passesGeoMode(remote))
	assert.False(t, remoteUSA.passesGeoMode(local))
}

func TestFreshnessPenalty(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0, freshnessPenalty(models.Job{LastSeen: now.Add(-10 * 24 * time.Hour)}, now))
	assert.Equal(t, 10, freshnessPenalty(models.Job{LastSeen: now.Add(-31 * 24 * time.Hour)}, now))
	assert.Equal(t, 20, freshnessPenalty(models.Job{LastSeen: now.Add(-61 * 24 * time.Hour)}, now))
	assert.Equal(t, 0, freshnessPenalty(models.Job{}, now), "zero last_seen and updated_at means no penalty")
}

func TestCityBonus(t *testing.T) {
	job := models.Job{LocationNorm: models.LocationNorm{City: "Raleigh"}}
	assert.Equal(t, 20, cityBonus(job, "raleigh"))
	assert.Equal(t, 0, cityBonus(job, "durham"))
	assert.Equal(t, 0, cityBonus(job, ""))
}

func TestCompanyPriority(t *testing.T) {
	companies := []common.CompanyConfig{{Name: "Acme", Priority: 10}}
	assert.Equal(t, 10, companyPriority(models.Job{Company: "acme"}, companies))
	assert.Equal(t, 0, companyPriority(models.Job{Company: "Other"}, companies))
}

func TestScore_CombinesAllFactors(t *testing.T) {
	now := time.Now()
	companies := []common.CompanyConfig{{Name: "Acme", Priority: 10}}
	job := models.Job{
		Company:      "Acme",
		GeoScore:     100,
		LocationNorm: models.LocationNorm{City: "Raleigh"},
		LastSeen:     now.Add(-61 * 24 * time.Hour),
	}
	q := jobsQuery{city: "raleigh"}

	// 10 (priority) + 100 (geo) + 20 (city) - 20 (stale) = 110
	assert.Equal(t, 110, score(job, q, companies, now))
}
