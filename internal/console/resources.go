package console

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"

	"github.com/agencydesk/console/internal/apiclient"
	"github.com/agencydesk/console/internal/models"
)

const (
	agenciesEndpoint  string = "/api/agencies"
	companiesEndpoint string = "/api/companies"

	DefaultPage  int = 1
	DefaultLimit int = 10
)

// Page is one page of a resource listing.
type Page[R any] struct {
	Items    []R                           `json:"items"`
	Metadata models.SerializableOrderedMap `json:"metadata"`
	Links    models.SerializableOrderedMap `json:"links"`
}

// Resource manages one collection of records through the authenticated endpoints.
type Resource[R any, I any] struct {
	client   *apiclient.Client
	endpoint string
}

func (r *Resource[R, I]) recordEndpoint(id int64, suffix ...string) string {
	return path.Join(append([]string{r.endpoint, strconv.FormatInt(id, 10)}, suffix...)...)
}

// List returns a page of records. Non positive page or limit values fall back to the defaults.
func (r *Resource[R, I]) List(ctx context.Context, page, limit int) (Page[R], error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	res, err := r.client.Get(ctx, r.endpoint, query)
	if err != nil {
		return Page[R]{}, err
	}
	items, err := apiclient.Decode[[]R](res)
	if err != nil {
		return Page[R]{}, err
	}
	return Page[R]{Items: items, Metadata: res.Metadata, Links: res.Links}, nil
}

func (r *Resource[R, I]) Create(ctx context.Context, input I) (R, error) {
	res, err := r.client.Post(ctx, r.endpoint, input)
	if err != nil {
		var empty R
		return empty, err
	}
	return apiclient.Decode[R](res)
}

func (r *Resource[R, I]) Update(ctx context.Context, id int64, input I) (R, error) {
	res, err := r.client.Put(ctx, r.recordEndpoint(id), input)
	if err != nil {
		var empty R
		return empty, err
	}
	return apiclient.Decode[R](res)
}

func (r *Resource[R, I]) Delete(ctx context.Context, id int64) error {
	_, err := r.client.Delete(ctx, r.recordEndpoint(id))
	return err
}

// ChangeStatus approves or rejects a pending record.
func (r *Resource[R, I]) ChangeStatus(ctx context.Context, id int64, change models.StatusChange) (R, error) {
	var empty R
	err := change.Status.Validate()
	if err != nil {
		return empty, err
	}
	res, err := r.client.Put(ctx, r.recordEndpoint(id, "status"), change)
	if err != nil {
		return empty, err
	}
	return apiclient.Decode[R](res)
}

type Agencies struct {
	Resource[models.Agency, models.AgencyInput]
}

func NewAgencies(client *apiclient.Client) (*Agencies, error) {
	if client == nil {
		return &Agencies{}, fmt.Errorf("the api client cannot be nil")
	}
	return &Agencies{Resource[models.Agency, models.AgencyInput]{client: client, endpoint: agenciesEndpoint}}, nil
}

type Companies struct {
	Resource[models.Company, models.CompanyInput]
}

// ResetPassword sets a new password for the login of a company.
func (c *Companies) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("the new password cannot be empty")
	}
	_, err := c.client.Put(ctx, c.recordEndpoint(id, "password"), models.PasswordReset{NewPassword: newPassword})
	return err
}

func NewCompanies(client *apiclient.Client) (*Companies, error) {
	if client == nil {
		return &Companies{}, fmt.Errorf("the api client cannot be nil")
	}
	return &Companies{Resource[models.Company, models.CompanyInput]{client: client, endpoint: companiesEndpoint}}, nil
}
