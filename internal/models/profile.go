package models

// PersonalInfo carries the applicant's identity and contact fields.
type PersonalInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
}

// Links carries profile/portfolio URLs commonly requested by ATS forms.
type Links struct {
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
	Website  string `json:"website,omitempty"`
}

// WorkExperience is one entry in the applicant's employment history, used
// to fill repeatable "work history" sections.
type WorkExperience struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	StartMonth  string `json:"start_month,omitempty"`
	StartYear   string `json:"start_year,omitempty"`
	EndMonth    string `json:"end_month,omitempty"`
	EndYear     string `json:"end_year,omitempty"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty"`
}

// Education is one entry in the applicant's education history, used to
// fill repeatable "education" sections.
type Education struct {
	School      string `json:"school"`
	Degree      string `json:"degree,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	StartYear   string `json:"start_year,omitempty"`
	EndYear     string `json:"end_year,omitempty"`
}

// Demographics holds the applicant's voluntary EEO-style disclosures, used
// as the Answer Resolver's demographic-default rung.
type Demographics struct {
	Gender           string `json:"gender,omitempty"`
	RaceEthnicity    string `json:"race_ethnicity,omitempty"`
	Veteran          string `json:"veteran,omitempty"`
	Disability       string `json:"disability,omitempty"`
	DeclineToAnswer  bool   `json:"decline_to_answer"`
}

// WorkAuthorization holds the applicant's work-authorization and visa
// sponsorship answers, distinct from Demographics because almost every ATS
// form asks these as required yes/no questions rather than optional EEO
// disclosures.
type WorkAuthorization struct {
	AuthorizedToWorkUS bool   `json:"authorized_to_work_us"`
	RequiresSponsorship bool  `json:"requires_sponsorship"`
	VisaStatus         string `json:"visa_status,omitempty"`
}

// ProfileFiles names the filesystem paths to attachable documents.
type ProfileFiles struct {
	DefaultResume     string `json:"default_resume,omitempty"`
	DefaultCoverLetter string `json:"default_cover_letter,omitempty"`
}

// Profile is the applicant's full set of answers, consulted by the Answer
// Resolver before any learned or default fallback.
type Profile struct {
	Personal          PersonalInfo       `json:"personal"`
	Links             Links              `json:"links"`
	WorkExperience    []WorkExperience   `json:"work_experience,omitempty"`
	Education         []Education        `json:"education,omitempty"`
	Demographics      Demographics       `json:"demographics"`
	WorkAuthorization WorkAuthorization  `json:"work_authorization"`
	Files             ProfileFiles       `json:"files"`
	// CommonAnswers maps a normalized question label (lowercased, trimmed,
	// punctuation stripped) to a free-text answer, for the many
	// boilerplate questions ("Why do you want to work here?") that recur
	// across ATS forms but don't map to a structured field above.
	CommonAnswers map[string]string `json:"common_answers,omitempty"`
}

// GetByPath resolves a dotted path ("personal.email", "links.linkedin")
// against the profile's structured fields. It returns ("", false) for any
// path not recognized, so callers can fall through to the next rung of the
// resolution cascade rather than treating an unknown path as empty.
func (p Profile) GetByPath(path string) (string, bool) {
	switch path {
	case "personal.first_name":
		return p.Personal.FirstName, p.Personal.FirstName != ""
	case "personal.last_name":
		return p.Personal.LastName, p.Personal.LastName != ""
	case "personal.email":
		return p.Personal.Email, p.Personal.Email != ""
	case "personal.phone":
		return p.Personal.Phone, p.Personal.Phone != ""
	case "personal.address":
		return p.Personal.Address, p.Personal.Address != ""
	case "personal.city":
		return p.Personal.City, p.Personal.City != ""
	case "personal.state":
		return p.Personal.State, p.Personal.State != ""
	case "personal.zip":
		return p.Personal.Zip, p.Personal.Zip != ""
	case "personal.country":
		return p.Personal.Country, p.Personal.Country != ""
	case "links.linkedin":
		return p.Links.LinkedIn, p.Links.LinkedIn != ""
	case "links.github":
		return p.Links.GitHub, p.Links.GitHub != ""
	case "links.portfolio":
		return p.Links.Portfolio, p.Links.Portfolio != ""
	case "links.website":
		return p.Links.Website, p.Links.Website != ""
	default:
		if v, ok := p.CommonAnswers[path]; ok {
			return v, v != ""
		}
		return "", false
	}
}
