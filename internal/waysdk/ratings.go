package waysdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v1Ratings    = "/api/v1/ratings"
	v1RatingByID = "/api/v1/ratings/{id}"
)

type RatingsAPI struct {
	client *req.Client
}

func newRatingsAPI(client *req.Client) *RatingsAPI {
	return &RatingsAPI{
		client: client,
	}
}

func (r *RatingsAPI) Create(ctx context.Context, record *RatingRecord) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(record).
		Post(v1Ratings)

	return handleAPIError(resp, err, "rating create")
}

func (r *RatingsAPI) Update(ctx context.Context, id string, record *RatingRecord) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(record).
		Put(v1RatingByID)

	return handleAPIError(resp, err, "rating update")
}

func (r *RatingsAPI) Delete(ctx context.Context, id string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete(v1RatingByID)

	return handleAPIError(resp, err, "rating delete")
}

func (r *RatingsAPI) ListOwned(ctx context.Context, ownerID string) ([]*RatingRecord, error) {
	var listResp ListRatingsResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("owner", ownerID).
		SetSuccessResult(&listResp).
		Get(v1Ratings)

	if err := handleAPIError(resp, err, "rating list"); err != nil {
		return nil, err
	}

	return listResp.Ratings, nil
}
