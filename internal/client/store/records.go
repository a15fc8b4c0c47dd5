// Package store holds the client's durable local state: a generic key-value
// byte store plus the typed record collections the app mutates offline. These
// are the local-domain shapes; wire translation lives in the sync adapter.
package store

import "time"

// GeoPoint is a latitude/longitude coordinate in the local-domain order.
// The remote API wants GeoJSON [lon, lat]; that reorder happens at dispatch.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Profile is the signed-in user's profile
type Profile struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"displayName"`
	Email       string            `json:"email,omitempty"`
	MobilityAid string            `json:"mobilityAid,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	SyncedAt    *time.Time        `json:"syncedAt,omitempty"`
}

func (p *Profile) RecordID() string { return p.ID }

// Trip is a locally recorded journey
type Trip struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"ownerId"`
	Label          string     `json:"label,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        time.Time  `json:"endedAt,omitempty"`
	DistanceMeters float64    `json:"distanceMeters"`
	Path           []GeoPoint `json:"path,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	SyncedAt       *time.Time `json:"syncedAt,omitempty"`
}

func (t *Trip) RecordID() string { return t.ID }

// FeatureRating is the user's accessibility rating of a mapped feature
// (ramp, elevator, accessible toilet, ...).
type FeatureRating struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	FeatureRef  string            `json:"featureRef"`
	FeatureKind string            `json:"featureKind"`
	Score       int               `json:"score"`
	Comment     string            `json:"comment,omitempty"`
	Location    GeoPoint          `json:"location"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	SyncedAt    *time.Time        `json:"syncedAt,omitempty"`
}

func (r *FeatureRating) RecordID() string { return r.ID }
