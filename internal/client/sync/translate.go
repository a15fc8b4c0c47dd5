package sync

import (
	"github.com/wheelway/wheelway/internal/client/store"
	"github.com/wheelway/wheelway/internal/waysdk"
)

// Translation between the local-domain record shapes and the remote wire
// schema. The remote renames fields, orders coordinates GeoJSON-style
// [lon, lat] and nests free-form attributes under "properties"; none of that
// leaks outside this package.

func profileToWire(p *store.Profile) *waysdk.ProfileRecord {
	return &waysdk.ProfileRecord{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		MobilityAid: p.MobilityAid,
		Properties:  p.Attributes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func profileFromWire(r *waysdk.ProfileRecord) *store.Profile {
	return &store.Profile{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		Email:       r.Email,
		MobilityAid: r.MobilityAid,
		Attributes:  r.Properties,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func tripToWire(t *store.Trip, ownerID string) *waysdk.TripRecord {
	rec := &waysdk.TripRecord{
		ID:             t.ID,
		OwnerID:        ownerID,
		Label:          t.Label,
		StartedAt:      t.StartedAt,
		EndedAt:        t.EndedAt,
		DistanceMeters: t.DistanceMeters,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if len(t.Path) > 0 {
		rec.Route = make([][2]float64, len(t.Path))
		for i, pt := range t.Path {
			rec.Route[i] = [2]float64{pt.Lon, pt.Lat}
		}
	}
	return rec
}

func tripFromWire(r *waysdk.TripRecord) *store.Trip {
	trip := &store.Trip{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		Label:          r.Label,
		StartedAt:      r.StartedAt,
		EndedAt:        r.EndedAt,
		DistanceMeters: r.DistanceMeters,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if len(r.Route) > 0 {
		trip.Path = make([]store.GeoPoint, len(r.Route))
		for i, pt := range r.Route {
			trip.Path[i] = store.GeoPoint{Lon: pt[0], Lat: pt[1]}
		}
	}
	return trip
}

func ratingToWire(f *store.FeatureRating, ownerID string) *waysdk.RatingRecord {
	return &waysdk.RatingRecord{
		ID:          f.ID,
		OwnerID:     ownerID,
		FeatureRef:  f.FeatureRef,
		FeatureKind: f.FeatureKind,
		Score:       f.Score,
		Comment:     f.Comment,
		Location:    [2]float64{f.Location.Lon, f.Location.Lat},
		Properties:  f.Attributes,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func ratingFromWire(r *waysdk.RatingRecord) *store.FeatureRating {
	return &store.FeatureRating{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		FeatureRef:  r.FeatureRef,
		FeatureKind: r.FeatureKind,
		Score:       r.Score,
		Comment:     r.Comment,
		Location:    store.GeoPoint{Lon: r.Location[0], Lat: r.Location[1]},
		Attributes:  r.Properties,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
