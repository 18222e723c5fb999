package server

import (
	"strings"
	"time"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/models"
)

// geoMode selects which jobs /jobs returns and how they are scored,
// spec.md §6's geo_mode query parameter.
type geoMode string

const (
	geoModeAll          geoMode = "all"
	geoModeNCPriority   geoMode = "nc_priority"
	geoModeLocalOnly    geoMode = "local_only"
	geoModeNeighborOnly geoMode = "neighbor_only"
	geoModeRemoteUSA    geoMode = "remote_usa"
)

// jobsQuery is the parsed form of GET /jobs's query string.
type jobsQuery struct {
	atsFilter       string
	roleFilter      string
	locationFilter  string
	companyFilter   string
	search          string
	states          map[string]bool
	includeRemoteUSA bool
	city            string
	geoMode         geoMode
}

func parseJobsQuery(q map[string][]string) jobsQuery {
	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	states := make(map[string]bool)
	for _, code := range strings.Split(get("states"), ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			states[code] = true
		}
	}

	mode := geoMode(strings.ToLower(get("geo_mode")))
	if mode == "" {
		mode = geoModeAll
	}

	return jobsQuery{
		atsFilter:        strings.ToLower(get("ats_filter")),
		roleFilter:       strings.ToLower(get("role_filter")),
		locationFilter:   strings.ToLower(get("location_filter")),
		companyFilter:    strings.ToLower(get("company_filter")),
		search:           strings.ToLower(get("search")),
		states:           states,
		includeRemoteUSA: get("include_remote_usa") == "true",
		city:             strings.ToLower(get("city")),
		geoMode:          mode,
	}
}

// matches reports whether job satisfies every filter in q save for the
// geo_mode bucket test, which passesGeoMode handles separately.
func (q jobsQuery) matches(job models.Job) bool {
	if q.atsFilter != "" && !strings.Contains(strings.ToLower(job.ATS), q.atsFilter) {
		return false
	}
	if q.roleFilter != "" && !strings.Contains(strings.ToLower(job.RoleFamily), q.roleFilter) {
		return false
	}
	if q.locationFilter != "" && !strings.Contains(strings.ToLower(job.Location), q.locationFilter) {
		return false
	}
	if q.companyFilter != "" && !strings.Contains(strings.ToLower(job.Company), q.companyFilter) {
		return false
	}
	if q.search != "" {
		haystack := strings.ToLower(job.Title + " " + job.Company + " " + job.Location)
		if !strings.Contains(haystack, q.search) {
			return false
		}
	}
	if len(q.states) > 0 {
		found := false
		for _, s := range job.LocationNorm.States {
			if q.states[strings.ToUpper(s)] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// passesGeoMode reports whether job's geo bucket belongs in the result
// set for q.geoMode, optionally widened by includeRemoteUSA.
func (q jobsQuery) passesGeoMode(job models.Job) bool {
	bucket := job.GeoBucket
	switch q.geoMode {
	case geoModeAll:
		return true
	case geoModeLocalOnly:
		return bucket == "local" || (q.includeRemoteUSA && bucket == "remote_usa")
	case geoModeNeighborOnly:
		return bucket == "neighbor" || (q.includeRemoteUSA && bucket == "remote_usa")
	case geoModeNCPriority:
		return bucket == "local" || bucket == "nc" || (q.includeRemoteUSA && bucket == "remote_usa")
	case geoModeRemoteUSA:
		return bucket == "remote_usa"
	default:
		return true
	}
}

// freshnessPenalty reports how much to subtract from a job's score based
// on how long it has gone unseen on its source ATS.
func freshnessPenalty(job models.Job, now time.Time) int {
	reference := job.LastSeen
	if reference.IsZero() {
		reference = job.UpdatedAt
	}
	if reference.IsZero() {
		return 0
	}
	age := now.Sub(reference)
	switch {
	case age > 60*24*time.Hour:
		return 20
	case age > 30*24*time.Hour:
		return 10
	default:
		return 0
	}
}

// cityBonus rewards a job whose normalized city matches q.city exactly,
// on top of the geo bucket's own base score.
func cityBonus(job models.Job, city string) int {
	if city == "" {
		return 0
	}
	if strings.EqualFold(job.LocationNorm.City, city) {
		return 20
	}
	return 0
}

// companyPriority looks up the configured priority for job.Company,
// defaulting to 0 for a company not in the ingestion target list (e.g.
// one added manually via POST /pipeline/add).
func companyPriority(job models.Job, companies []common.CompanyConfig) int {
	for _, c := range companies {
		if strings.EqualFold(c.Name, job.Company) {
			return c.Priority
		}
	}
	return 0
}

// score computes spec.md §6's job score: company priority + geo score +
// city bonus - freshness penalty. No state bonus is added; the states
// query parameter only filters the result set.
func score(job models.Job, q jobsQuery, companies []common.CompanyConfig, now time.Time) int {
	total := companyPriority(job, companies) + job.GeoScore + cityBonus(job, q.city)
	total -= freshnessPenalty(job, now)
	return total
}
