package store

import (
	"time"

	"gorm.io/datatypes"
)

// Observation statuses.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

// Record origins.
const (
	OriginManual   = "manual"
	OriginExternal = "external"
)

// Species is one taxonomy triple. The triple is unique.
type Species struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Family            string    `gorm:"size:128;not null;uniqueIndex:idx_species_triple,priority:1" json:"family"`
	Genus             string    `gorm:"size:128;not null;uniqueIndex:idx_species_triple,priority:2" json:"genus"`
	Name              string    `gorm:"column:species;size:191;not null;uniqueIndex:idx_species_triple,priority:3;index:idx_species_name" json:"species"`
	CommonName        string    `gorm:"size:255;not null" json:"common_name"`
	ImageURL          string    `gorm:"size:1024;not null" json:"image_url"`
	AudioURL          string    `gorm:"size:1024;not null" json:"audio_url"`
	ObservationsCount int64     `gorm:"not null" json:"observations_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Species) TableName() string { return "species" }

// GeoPoint is a GeoJSON Point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from latitude and longitude.
func NewGeoPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Location is a named geographic point shared by observations.
// Coordinates never change after creation.
type Location struct {
	ID        uint                         `gorm:"primaryKey" json:"id"`
	Latitude  float64                      `gorm:"not null" json:"latitude"`
	Longitude float64                      `gorm:"not null" json:"longitude"`
	Name      string                       `gorm:"size:255;not null" json:"name"`
	Country   string                       `gorm:"size:128;not null" json:"country"`
	Region    string                       `gorm:"size:128;not null" json:"region"`
	Continent string                       `gorm:"size:32;not null" json:"continent"`
	Origin    string                       `gorm:"size:16;not null" json:"origin"`
	Geometry  datatypes.JSONType[GeoPoint] `gorm:"not null" json:"geometry"`
	Geohash   string                       `gorm:"size:12;not null;index" json:"geohash"`
	PointKey  string                       `gorm:"size:9;not null;uniqueIndex" json:"-"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

func (Location) TableName() string { return "locations" }

// TaxonomySnapshot is the raw taxonomy kept on observations that are not
// linked to a species.
type TaxonomySnapshot struct {
	Family  string `json:"family"`
	Genus   string `json:"genus"`
	Species string `json:"species"`
}

// Observation is one sighting record. SpeciesID and the raw snapshot columns
// are mutually exclusive.
type Observation struct {
	ID                uint                        `gorm:"primaryKey" json:"id"`
	SourceID          int64                       `gorm:"not null;uniqueIndex" json:"source_id"`
	ExternalID        *int64                      `gorm:"uniqueIndex" json:"external_id,omitempty"`
	SpeciesID         *uint                       `gorm:"index" json:"species_id,omitempty"`
	RawFamily         *string                     `gorm:"size:128" json:"raw_family,omitempty"`
	RawGenus          *string                     `gorm:"size:128" json:"raw_genus,omitempty"`
	RawSpecies        *string                     `gorm:"size:191" json:"raw_species,omitempty"`
	LocationID        *uint                       `gorm:"index" json:"location_id,omitempty"`
	Timestamp         time.Time                   `gorm:"not null;index" json:"timestamp"`
	Quantity          int                         `gorm:"not null" json:"quantity"`
	AdditionalDetails string                      `gorm:"type:text;not null" json:"additional_details"`
	Photo             datatypes.JSONSlice[string] `gorm:"not null" json:"photo"`
	Audio             datatypes.JSONSlice[string] `gorm:"not null" json:"audio"`
	Status            string                      `gorm:"size:16;not null;index" json:"status"`
	UserID            *uint                       `gorm:"index" json:"user_id,omitempty"`
	CommentsCount     int64                       `gorm:"not null" json:"comments_count"`
	ExternalLink      string                      `gorm:"size:1024;not null" json:"external_link"`
	Origin            string                      `gorm:"size:16;not null" json:"origin"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

func (Observation) TableName() string { return "observations" }

// RawTaxonomy returns the raw snapshot, if the observation carries one.
func (o *Observation) RawTaxonomy() (TaxonomySnapshot, bool) {
	if o.RawFamily == nil {
		return TaxonomySnapshot{}, false
	}
	snap := TaxonomySnapshot{Family: *o.RawFamily}
	if o.RawGenus != nil {
		snap.Genus = *o.RawGenus
	}
	if o.RawSpecies != nil {
		snap.Species = *o.RawSpecies
	}
	return snap, true
}

// User is an account that owns observations and comments.
type User struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	Username       string                      `gorm:"size:150;not null;uniqueIndex" json:"username"`
	Name           string                      `gorm:"size:255;not null" json:"name"`
	Email          string                      `gorm:"size:255;not null" json:"email"`
	ProfilePicture string                      `gorm:"size:1024;not null" json:"profile_picture"`
	Source         string                      `gorm:"size:32;not null" json:"source"`
	Roles          datatypes.JSONSlice[string] `gorm:"not null" json:"roles"`
	Blocked        bool                        `gorm:"not null" json:"blocked"`
	CreatedAt      time.Time                   `json:"created_at"`
}

func (User) TableName() string { return "users" }

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Comment is a remark attached to an observation.
type Comment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ObservationID uint      `gorm:"not null;index" json:"observation_id"`
	UserID        *uint     `gorm:"index" json:"user_id,omitempty"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	Timestamp     time.Time `gorm:"not null" json:"timestamp"`
	ParentID      *uint     `gorm:"index" json:"parent_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{&Species{}, &Location{}, &User{}, &Observation{}, &Comment{}}
}

// ExpectedColumns is the column set every deployed table must carry.
func ExpectedColumns() map[string][]string {
	return map[string][]string{
		"species":      {"id", "family", "genus", "species", "common_name", "image_url", "audio_url", "observations_count"},
		"locations":    {"id", "latitude", "longitude", "name", "country", "region", "continent", "geometry", "geohash", "point_key"},
		"users":        {"id", "username", "roles", "blocked"},
		"observations": {"id", "source_id", "external_id", "species_id", "raw_family", "raw_genus", "raw_species", "location_id", "timestamp", "quantity", "photo", "audio", "status", "user_id", "comments_count"},
		"comments":     {"id", "observation_id", "user_id", "text", "timestamp", "parent_id"},
	}
}
