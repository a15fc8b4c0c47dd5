package waysdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v1Profiles    = "/api/v1/profiles"
	v1ProfileByID = "/api/v1/profiles/{id}"
)

type ProfilesAPI struct {
	client *req.Client
}

func newProfilesAPI(client *req.Client) *ProfilesAPI {
	return &ProfilesAPI{
		client: client,
	}
}

func (p *ProfilesAPI) Create(ctx context.Context, record *ProfileRecord) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(record).
		Post(v1Profiles)

	return handleAPIError(resp, err, "profile create")
}

func (p *ProfilesAPI) Update(ctx context.Context, id string, record *ProfileRecord) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(record).
		Put(v1ProfileByID)

	return handleAPIError(resp, err, "profile update")
}

func (p *ProfilesAPI) Delete(ctx context.Context, id string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete(v1ProfileByID)

	return handleAPIError(resp, err, "profile delete")
}

// ListOwned returns the profiles owned by ownerID. In practice that is a
// single record, but the endpoint keeps the same bulk-read shape as the other
// collections.
func (p *ProfilesAPI) ListOwned(ctx context.Context, ownerID string) ([]*ProfileRecord, error) {
	var listResp ListProfilesResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("owner", ownerID).
		SetSuccessResult(&listResp).
		Get(v1Profiles)

	if err := handleAPIError(resp, err, "profile list"); err != nil {
		return nil, err
	}

	return listResp.Profiles, nil
}
