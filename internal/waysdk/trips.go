package waysdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v1Trips    = "/api/v1/trips"
	v1TripByID = "/api/v1/trips/{id}"
)

type TripsAPI struct {
	client *req.Client
}

func newTripsAPI(client *req.Client) *TripsAPI {
	return &TripsAPI{
		client: client,
	}
}

func (t *TripsAPI) Create(ctx context.Context, record *TripRecord) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(record).
		Post(v1Trips)

	return handleAPIError(resp, err, "trip create")
}

func (t *TripsAPI) Update(ctx context.Context, id string, record *TripRecord) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(record).
		Put(v1TripByID)

	return handleAPIError(resp, err, "trip update")
}

func (t *TripsAPI) Delete(ctx context.Context, id string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete(v1TripByID)

	return handleAPIError(resp, err, "trip delete")
}

func (t *TripsAPI) ListOwned(ctx context.Context, ownerID string) ([]*TripRecord, error) {
	var listResp ListTripsResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("owner", ownerID).
		SetSuccessResult(&listResp).
		Get(v1Trips)

	if err := handleAPIError(resp, err, "trip list"); err != nil {
		return nil, err
	}

	return listResp.Trips, nil
}
