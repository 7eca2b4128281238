package devbackend

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/agencydesk/console/internal/models"
	"github.com/labstack/echo/v4"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	defaultPage  int = 1
	defaultLimit int = 10
	maxLimit     int = 100
)

func recordID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, failWith(http.StatusBadRequest, fmt.Sprintf("invalid record id %q", c.Param("id")), nil)
	}
	return id, nil
}

func notFound(id int64) *envelopeError {
	return failWith(http.StatusNotFound, errRecordNotFound.Error(), map[string]any{"id": id})
}

func validateLicense(license models.License) error {
	missing := []string{}
	if license.CompanyName == "" {
		missing = append(missing, "companyName")
	}
	if license.EmailAddress == "" {
		missing = append(missing, "emailAddress")
	}
	if license.LicenseNumber == "" {
		missing = append(missing, "licenseNumber")
	}
	if len(missing) > 0 {
		return failWith(http.StatusBadRequest, "missing required fields", map[string]any{"missing": missing})
	}
	return nil
}

func bindStatusChange(c echo.Context) (models.StatusChange, error) {
	change := models.StatusChange{}
	if err := c.Bind(&change); err != nil {
		return change, badRequest(err)
	}
	if err := change.Status.Validate(); err != nil {
		return change, badRequest(err)
	}
	return change, nil
}

// listPage reads the page and limit query parameters and builds the listing metadata and links.
func listPage[R any](c echo.Context, store *recordStore[R]) ([]R, models.SerializableOrderedMap, models.SerializableOrderedMap, error) {
	page, limit := defaultPage, defaultLimit
	err := echo.QueryParamsBinder(c).Int("page", &page).Int("limit", &limit).BindError()
	if err != nil {
		return nil, models.SerializableOrderedMap{}, models.SerializableOrderedMap{}, badRequest(err)
	}
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	records, total := store.page(page, limit)
	totalPages := (total + limit - 1) / limit
	metadata := models.NewSerializableOrderedMap(
		orderedmap.Pair[string, any]{Key: "page", Value: page},
		orderedmap.Pair[string, any]{Key: "limit", Value: limit},
		orderedmap.Pair[string, any]{Key: "total", Value: total},
		orderedmap.Pair[string, any]{Key: "totalPages", Value: totalPages},
	)
	pageLink := func(p int) string {
		query := url.Values{}
		query.Set("page", strconv.Itoa(p))
		query.Set("limit", strconv.Itoa(limit))
		return c.Path() + "?" + query.Encode()
	}
	links := models.NewSerializableOrderedMap(orderedmap.Pair[string, any]{Key: "self", Value: pageLink(page)})
	if page > 1 {
		links.Set("prev", pageLink(page-1))
	}
	if page < totalPages {
		links.Set("next", pageLink(page+1))
	}
	return records, metadata, links, nil
}

func (s *Server) GetAgencies(c echo.Context) error {
	agencies, metadata, links, err := listPage(c, s.agencies)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, agencies, metadata, links)
}

func (s *Server) PostAgency(c echo.Context) error {
	input := models.AgencyInput{}
	if err := c.Bind(&input); err != nil {
		return badRequest(err)
	}
	if err := validateLicense(input.License); err != nil {
		return err
	}
	agency := s.agencies.create(func(id int64) models.Agency {
		return models.Agency{ID: id, AgencyInput: input, Status: models.RecordPending}
	})
	return respondData(c, http.StatusCreated, agency)
}

func (s *Server) PutAgency(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	input := models.AgencyInput{}
	if err := c.Bind(&input); err != nil {
		return badRequest(err)
	}
	if err := validateLicense(input.License); err != nil {
		return err
	}
	agency, found := s.agencies.update(id, func(a models.Agency) models.Agency {
		a.AgencyInput = input
		return a
	})
	if !found {
		return notFound(id)
	}
	return respondData(c, http.StatusOK, agency)
}

func (s *Server) DeleteAgency(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	agency, found := s.agencies.delete(id)
	if !found {
		return notFound(id)
	}
	return respondData(c, http.StatusOK, agency)
}

func (s *Server) PutAgencyStatus(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	change, err := bindStatusChange(c)
	if err != nil {
		return err
	}
	agency, found := s.agencies.update(id, func(a models.Agency) models.Agency {
		a.Status = change.Status.RecordStatus()
		return a
	})
	if !found {
		return notFound(id)
	}
	return respondData(c, http.StatusOK, agency)
}

func companies(records []companyRecord) []models.Company {
	output := make([]models.Company, 0, len(records))
	for _, record := range records {
		output = append(output, record.company)
	}
	return output
}

func (s *Server) GetCompanies(c echo.Context) error {
	records, metadata, links, err := listPage(c, s.companies)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, companies(records), metadata, links)
}

func (s *Server) PostCompany(c echo.Context) error {
	input := models.CompanyInput{}
	if err := c.Bind(&input); err != nil {
		return badRequest(err)
	}
	if err := validateLicense(input.License); err != nil {
		return err
	}
	record := s.companies.create(func(id int64) companyRecord {
		return companyRecord{company: models.Company{ID: id, CompanyInput: input, Status: models.RecordPending}}
	})
	return respondData(c, http.StatusCreated, record.company)
}

func (s *Server) PutCompany(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	input := models.CompanyInput{}
	if err := c.Bind(&input); err != nil {
		return badRequest(err)
	}
	if err := validateLicense(input.License); err != nil {
		return err
	}
	record, found := s.companies.update(id, func(r companyRecord) companyRecord {
		r.company.CompanyInput = input
		return r
	})
	if !found {
		return notFound(id)
	}
	return respondData(c, http.StatusOK, record.company)
}

func (s *Server) DeleteCompany(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	record, found := s.companies.delete(id)
	if !found {
		return notFound(id)
	}
	return respondData(c, http.StatusOK, record.company)
}

func (s *Server) PutCompanyStatus(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	change, err := bindStatusChange(c)
	if err != nil {
		return err
	}
	record, found := s.companies.update(id, func(r companyRecord) companyRecord {
		r.company.Status = change.Status.RecordStatus()
		return r
	})
	if !found {
		return notFound(id)
	}
	return respondData(c, http.StatusOK, record.company)
}

func (s *Server) PutCompanyPassword(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	body := models.PasswordReset{}
	if err := c.Bind(&body); err != nil {
		return badRequest(err)
	}
	if err := validatePassword(body.NewPassword); err != nil {
		return badRequest(err)
	}
	hash, err := hashPassword(body.NewPassword)
	if err != nil {
		return err
	}
	record, found := s.companies.update(id, func(r companyRecord) companyRecord {
		r.passwordHash = hash
		return r
	})
	if !found {
		return notFound(id)
	}
	return respondData(c, http.StatusOK, record.company)
}
