package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

const defaultPageSize = 50

// APIBased scrapes JSON endpoints: official registry APIs and platform
// search APIs. Responses are treated as loosely shaped documents; the
// strategy discovers the record array and maps whatever keys it recognises.
type APIBased struct {
	Client    *Client
	Pacer     *Pacer
	PageDelay time.Duration
	UnitDelay time.Duration
	Logger    *slog.Logger
}

// Fetch authenticates if the source requires it, then walks every unit with
// page/limit pagination. An authentication failure aborts the whole run
// since no unit can succeed without a token.
func (a *APIBased) Fetch(ctx context.Context, src Source) (Result, error) {
	logger := a.logger().With("source", src.ID, "mode", string(ModeAPI))

	headers := make(map[string]string, len(src.API.Headers)+1)
	for k, v := range src.API.Headers {
		headers[k] = v
	}
	if src.API.AuthEndpoint != "" {
		token, err := a.authenticate(ctx, src)
		if err != nil {
			return Result{}, fmt.Errorf("authenticate against %s: %w", src.ID, err)
		}
		headers["Authorization"] = "Bearer " + token
	} else if src.API.APIKey != "" {
		headers["Authorization"] = "Bearer " + src.API.APIKey
	}

	var res Result
	for i, unit := range src.Units() {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if i > 0 {
			if err := Sleep(ctx, a.UnitDelay); err != nil {
				return res, err
			}
		}

		listings, err := a.fetchUnit(ctx, src, unit, headers)
		res.record(unit, listings, err)
		if err != nil {
			logger.Warn("unit failed", "unit", unit.Label, "error", err)
			continue
		}
		logger.Info("unit complete", "unit", unit.Label, "listings", len(listings))
	}
	return res, nil
}

func (a *APIBased) authenticate(ctx context.Context, src Source) (string, error) {
	var reply map[string]any
	if err := a.Client.PostJSON(ctx, src.API.AuthEndpoint, src.API.Headers, src.API.AuthPayload, &reply); err != nil {
		return "", err
	}
	for _, key := range []string{"access_token", "token", "jwt"} {
		if token, ok := reply[key].(string); ok && token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("auth response carries no token")
}

func (a *APIBased) fetchUnit(ctx context.Context, src Source, unit Unit, headers map[string]string) ([]types.RawListing, error) {
	maxPages := src.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	pageSize := src.API.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var all []types.RawListing
	for page := 1; page <= maxPages; page++ {
		params := make(map[string]string, len(src.API.Params)+3)
		for k, v := range src.API.Params {
			params[k] = v
		}
		if src.API.DimensionParam != "" && unit.Value != "" {
			params[src.API.DimensionParam] = unit.Value
		}
		params["page"] = strconv.Itoa(page)
		params["limit"] = strconv.Itoa(pageSize)

		if err := a.waitHost(ctx, src.API.Endpoint); err != nil {
			return all, err
		}

		var payload any
		if err := a.Client.GetJSON(ctx, src.API.Endpoint, headers, params, &payload); err != nil {
			if page == 1 {
				return nil, err
			}
			a.logger().Warn("page request failed, stopping unit", "source", src.ID, "page", page, "error", err)
			break
		}

		items := discoverArray(payload)
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			raw := listingFromObject(obj, src)
			if strings.TrimSpace(raw.CompanyName) == "" {
				continue
			}
			if raw.Country == "" && len(src.Countries) > 0 {
				raw.Country = unit.Value
			}
			all = append(all, raw)
		}

		if !hasNextPage(payload, page, len(items), pageSize) {
			break
		}
		if page < maxPages {
			if err := Sleep(ctx, a.PageDelay); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

func (a *APIBased) waitHost(ctx context.Context, endpoint string) error {
	if a.Pacer == nil {
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil
	}
	return a.Pacer.Wait(ctx, u.Hostname())
}

func (a *APIBased) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// discoverArray finds the record array inside an arbitrary JSON reply: a
// top-level array, the conventional "results"/"data"/"items"/"companies"
// keys, or failing those the first array of objects anywhere at the top
// level.
func discoverArray(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{"results", "data", "items", "companies", "entities"} {
			if arr, ok := v[key].([]any); ok {
				return arr
			}
		}
		for _, value := range v {
			if arr, ok := value.([]any); ok && len(arr) > 0 {
				if _, isObj := arr[0].(map[string]any); isObj {
					return arr
				}
			}
		}
	}
	return nil
}

// hasNextPage inspects pagination metadata where present and otherwise falls
// back to the length heuristic: a full page probably has a successor.
func hasNextPage(payload any, page, got, pageSize int) bool {
	obj, ok := payload.(map[string]any)
	if !ok {
		return got >= pageSize
	}

	for _, key := range []string{"pagination", "meta"} {
		metaRaw, ok := obj[key].(map[string]any)
		if !ok {
			continue
		}
		if next, ok := boolField(metaRaw, "has_next", "hasNext", "has_more"); ok {
			return next
		}
		if total, ok := numberField(metaRaw, "total_pages", "totalPages", "pages"); ok {
			current := float64(page)
			if cur, ok := numberField(metaRaw, "current_page", "currentPage", "page"); ok {
				current = cur
			}
			return current < total
		}
	}
	if total, ok := numberField(obj, "total_pages", "totalPages"); ok {
		return float64(page) < total
	}
	return got >= pageSize
}

func boolField(obj map[string]any, keys ...string) (bool, bool) {
	for _, key := range keys {
		if v, ok := obj[key].(bool); ok {
			return v, true
		}
	}
	return false, false
}

func numberField(obj map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := obj[key].(float64); ok {
			return v, true
		}
	}
	return 0, false
}

// listingFromObject maps a JSON record to a raw listing by probing the key
// spellings the registries and platforms actually use.
func listingFromObject(obj map[string]any, src Source) types.RawListing {
	return types.RawListing{
		CompanyName:        stringField(obj, "company_name", "name", "denominazione", "nume", "legal_name"),
		LegalName:          stringField(obj, "legal_name", "ragione_sociale", "denumire_legala"),
		TaxID:              stringField(obj, "tax_id", "vat_number", "partita_iva", "piva", "cui", "cif"),
		RegistrationNumber: stringField(obj, "registration_number", "rea", "numero_rea", "nr_reg_com"),
		Website:            stringField(obj, "website", "website_url", "homepage_url", "site"),
		Email:              stringField(obj, "email", "contact_email", "pec"),
		Phone:              stringField(obj, "phone", "phone_number", "telefono", "telefon"),
		Address:            stringField(obj, "address", "indirizzo", "adresa", "sede_legale", "location"),
		City:               stringField(obj, "city", "comune", "localitate", "oras"),
		Description:        stringField(obj, "description", "short_description", "descrizione", "descriere"),
		Industry:           stringField(obj, "industry", "settore", "domeniu", "category"),
		LegalForm:          stringField(obj, "legal_form", "forma_giuridica", "forma_juridica"),
		RegistrationDate:   stringField(obj, "registration_date", "founded_on", "data_iscrizione", "data_inregistrare"),
		ShareCapital:       stringField(obj, "share_capital", "capitale_sociale", "capital_social"),
		Employees:          stringField(obj, "employees", "num_employees_enum", "dipendenti", "angajati"),
		Country:            src.Country,
		SourcePlatform:     src.ID,
		SourceURL:          src.API.Endpoint,
	}
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
