package waysdk

import "time"

// ProfileRecord is the wire shape of a user profile
type ProfileRecord struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	Email       string            `json:"email,omitempty"`
	MobilityAid string            `json:"mobility_aid,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TripRecord is the wire shape of a recorded trip. Route points are
// GeoJSON-ordered [lon, lat] pairs.
type TripRecord struct {
	ID             string       `json:"id"`
	OwnerID        string       `json:"owner_id"`
	Label          string       `json:"label,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	EndedAt        time.Time    `json:"ended_at,omitempty"`
	DistanceMeters float64      `json:"distance_meters"`
	Route          [][2]float64 `json:"route,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// RatingRecord is the wire shape of an accessibility-feature rating.
// Location is a GeoJSON-ordered [lon, lat] pair.
type RatingRecord struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	FeatureRef  string            `json:"feature_ref"`
	FeatureKind string            `json:"feature_kind"`
	Score       int               `json:"score"`
	Comment     string            `json:"comment,omitempty"`
	Location    [2]float64        `json:"location"`
	Properties  map[string]string `json:"properties,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ListProfilesResponse is the bulk read response for profiles
type ListProfilesResponse struct {
	Profiles []*ProfileRecord `json:"profiles"`
}

// ListTripsResponse is the bulk read response for trips
type ListTripsResponse struct {
	Trips []*TripRecord `json:"trips"`
}

// ListRatingsResponse is the bulk read response for ratings
type ListRatingsResponse struct {
	Ratings []*RatingRecord `json:"ratings"`
}
