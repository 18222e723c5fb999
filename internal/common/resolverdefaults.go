package common

// ResolverDefaults surfaces the opinionated heuristics the Normalizer and
// Answer Resolver would otherwise hard-code, per the decision recorded in
// DESIGN.md: the "strategic project lead" role-family heuristic and the
// demographics fallback chain both encode opinion, not fact, and should be
// changeable without a code edit.
type ResolverDefaults struct {
	// RoleFamilyOverrides maps a lowercased title phrase, matched as a
	// whole-word substring of the title, to a role family and the
	// confidence to report for it. "strategic project
	// lead" -> "tpm_program" at 0.7 is the default entry.
	RoleFamilyOverrides map[string]RoleFamilyOverride `toml:"role_family_overrides"`

	// DemographicDecline is the value recorded for gender/race/veteran/
	// disability/hispanic questions when the profile has no declared
	// value and DeclineToAnswer is set.
	DemographicDecline string `toml:"demographic_decline"`

	// RejectionMemoryClearsOnClose decides the open question about
	// sweeper-induced closes: when true, a transition to "closed" clears
	// a job's ats_job_id from the rejection memory the same as any other
	// transition out of a skip status; when false, closed jobs stay
	// remembered as rejected.
	RejectionMemoryClearsOnClose bool `toml:"rejection_memory_clears_on_close"`

	// MultiStatePrimary picks how LocationNorm.State is chosen when a
	// posting lists more than one state: "alphabetical" (default) or
	// "first_observed".
	MultiStatePrimary string `toml:"multi_state_primary"`
}

// RoleFamilyOverride is one entry in RoleFamilyOverrides.
type RoleFamilyOverride struct {
	Family     string  `toml:"family"`
	Confidence float64 `toml:"confidence"`
}

// DefaultResolverDefaults returns the baseline heuristics, matching the
// behavior described in DESIGN.md's Open Question decisions.
func DefaultResolverDefaults() ResolverDefaults {
	return ResolverDefaults{
		RoleFamilyOverrides: map[string]RoleFamilyOverride{
			"strategic project lead": {Family: "tpm_program", Confidence: 0.7},
		},
		DemographicDecline:           "decline_to_answer",
		RejectionMemoryClearsOnClose: false,
		MultiStatePrimary:            "alphabetical",
	}
}
