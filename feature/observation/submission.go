package observation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sighting-engine/core/utils"
	"sighting-engine/feature/location"
	"sighting-engine/feature/media"
	"sighting-engine/feature/taxonomy"
)

const (
	msgRequired    = "This field is required."
	msgNumber      = "A valid number is required."
	msgInteger     = "A valid integer is required."
	msgMinQuantity = "Ensure this value is greater than or equal to 1."
	msgDate        = "Datetime has wrong format."
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Submission is the raw create or edit payload. A nil field was not sent.
type Submission struct {
	Latitude          *string
	Longitude         *string
	Date              *string
	Quantity          *string
	AdditionalDetails *string
	Family            *string
	Genus             *string
	Species           *string
	CommonName        *string
	LocationName      *string

	KeepPhotos media.KeepList
	KeepAudio  media.KeepList
	Uploads    []media.Upload
}

// draft is a validated submission. Nil fields are left as they are.
type draft struct {
	point        *location.Point
	locationName string
	timestamp    *time.Time
	quantity     *int
	details      *string
	taxonomy     *taxonomy.Input
}

func supplied(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	s := strings.TrimSpace(*p)
	return s, s != ""
}

// parse validates the submission. Creating requires family, coordinates and
// date and fills defaults; editing only checks what was sent.
func (s Submission) parse(creating bool, maxFiles int) (*draft, error) {
	var v validator
	d := &draft{}

	lat, hasLat := supplied(s.Latitude)
	lon, hasLon := supplied(s.Longitude)
	switch {
	case hasLat && hasLon:
		p, ok := parsePoint(&v, lat, lon)
		if ok {
			d.point = &p
		}
	case hasLat || hasLon || creating:
		if !hasLat {
			v.add("latitude", msgRequired)
		}
		if !hasLon {
			v.add("longitude", msgRequired)
		}
	}
	d.locationName, _ = supplied(s.LocationName)

	if raw, ok := supplied(s.Date); ok {
		ts, err := parseDate(raw)
		if err != nil {
			v.add("date", msgDate)
		} else {
			d.timestamp = &ts
		}
	} else if creating {
		v.add("date", msgRequired)
	}

	if raw, ok := supplied(s.Quantity); ok {
		q, err := utils.ToInt(raw, 1)
		switch {
		case errors.Is(err, utils.ErrOutOfRange):
			v.add("quantity", msgMinQuantity)
		case err != nil:
			v.add("quantity", msgInteger)
		default:
			d.quantity = &q
		}
	} else if creating {
		one := 1
		d.quantity = &one
	}

	if s.AdditionalDetails != nil {
		details := strings.TrimSpace(*s.AdditionalDetails)
		d.details = &details
	} else if creating {
		empty := ""
		d.details = &empty
	}

	family, hasFamily := supplied(s.Family)
	_, hasGenus := supplied(s.Genus)
	_, hasSpecies := supplied(s.Species)
	switch {
	case hasFamily:
		in := taxonomy.Input{Family: family}
		if s.Genus != nil {
			in.Genus = taxonomy.ParseLevel(*s.Genus)
		}
		if s.Species != nil {
			in.Species = taxonomy.ParseLevel(*s.Species)
		}
		if s.CommonName != nil {
			in.CommonName = strings.TrimSpace(*s.CommonName)
		}
		d.taxonomy = &in
	case creating || hasGenus || hasSpecies:
		v.add("family", msgRequired)
	}

	if maxFiles > 0 && len(s.Uploads) > maxFiles {
		v.add("media_files", fmt.Sprintf("Ensure at most %d files are uploaded.", maxFiles))
	}
	for _, name := range media.Validate(s.Uploads) {
		v.add("media_files", fmt.Sprintf("Unsupported file type: %s.", name))
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return d, nil
}

func parsePoint(v *validator, lat, lon string) (location.Point, bool) {
	ok := true
	la, err := utils.ToFloatInRange(lat, -90, 90)
	if err != nil {
		v.add("latitude", coordinateMessage(err, 90))
		ok = false
	}
	lo, err := utils.ToFloatInRange(lon, -180, 180)
	if err != nil {
		v.add("longitude", coordinateMessage(err, 180))
		ok = false
	}
	return location.Point{Latitude: la, Longitude: lo}, ok
}

func coordinateMessage(err error, bound int) string {
	if errors.Is(err, utils.ErrOutOfRange) {
		return fmt.Sprintf("Ensure this value is between -%d and %d.", bound, bound)
	}
	return msgNumber
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
