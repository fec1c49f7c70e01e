package inaturalist

// Page is one page of a paginated iNaturalist v1 response.
type Page[T any] struct {
	TotalResults int `json:"total_results"`
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	Results      []T `json:"results"`
}

// Taxon is a taxonomic node.
type Taxon struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Rank                string  `json:"rank"`
	AncestorIDs         []int64 `json:"ancestor_ids"`
	PreferredCommonName string  `json:"preferred_common_name"`
	DefaultPhoto        *Photo  `json:"default_photo"`
}

// Photo is an image attached to a taxon or an observation.
type Photo struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	MediumURL string `json:"medium_url"`
}

// User is an iNaturalist account.
type User struct {
	ID         int64  `json:"id"`
	Login      string `json:"login"`
	LoginExact string `json:"login_exact"`
	Name       string `json:"name"`
	IconURL    string `json:"icon_url"`
	CreatedAt  string `json:"created_at"`
}

// Handle returns the exact login when present, else the login.
func (u *User) Handle() string {
	if u == nil {
		return ""
	}
	if u.LoginExact != "" {
		return u.LoginExact
	}
	return u.Login
}

// GeoJSON is a geometry; Points carry [longitude, latitude].
type GeoJSON struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ObservationPhoto links a photo to an observation.
type ObservationPhoto struct {
	Photo *Photo `json:"photo"`
}

// Sound is an audio recording attached to an observation.
type Sound struct {
	ID      int64  `json:"id"`
	FileURL string `json:"file_url"`
}

// Comment is a remark on an observation.
type Comment struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	User      *User  `json:"user"`
}

// Observation is one iNaturalist record.
type Observation struct {
	ID                int64              `json:"id"`
	URI               string             `json:"uri"`
	QualityGrade      string             `json:"quality_grade"`
	Description       string             `json:"description"`
	ObservedOn        string             `json:"observed_on"`
	ObservedOnString  string             `json:"observed_on_string"`
	TimeObservedAt    string             `json:"time_observed_at"`
	Taxon             *Taxon             `json:"taxon"`
	User              *User              `json:"user"`
	GeoJSON           *GeoJSON           `json:"geojson"`
	ObservationPhotos []ObservationPhoto `json:"observation_photos"`
	Sounds            []Sound            `json:"sounds"`
	Comments          []Comment          `json:"comments"`
}
