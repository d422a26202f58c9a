// Package storage persists normalized company records into a SQL database.
// Companies upsert on a name+country slug so repeated scrapes refresh rows
// instead of duplicating them.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/AdilYassar/companies-scrapper/internal/config"
	"github.com/AdilYassar/companies-scrapper/pkg/types"
)

// CompanyStore persists and queries company records.
type CompanyStore interface {
	SaveCompanies(ctx context.Context, companies []types.Company) (int, error)
	ListCompanies(ctx context.Context, filter Filter) ([]types.Company, error)
	Close() error
}

// Filter narrows ListCompanies results. Zero values mean "no constraint".
type Filter struct {
	Country  string
	City     string
	Industry string
	Source   string
	MinScore int
	Limit    int
	Offset   int
}

// SQLStore implements CompanyStore over database/sql.
type SQLStore struct {
	db          *sql.DB
	autoMigrate bool
}

// NewSQLStore opens the database, optionally creating it and migrating the
// schema, per configuration.
func NewSQLStore(cfg config.SQLConfig) (*SQLStore, error) {
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, errors.New("sql config missing driver or dsn")
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if cfg.CreateIfMissing && shouldAttemptCreateDatabase(cfg.Driver, err) {
			_ = db.Close()
			if err := createDatabase(ctx, cfg); err != nil {
				return nil, err
			}
			db, err = sql.Open(cfg.Driver, cfg.DSN)
			if err != nil {
				return nil, fmt.Errorf("open sql connection: %w", err)
			}
			if err := db.PingContext(ctx); err != nil {
				return nil, fmt.Errorf("ping sql connection: %w", err)
			}
		} else {
			return nil, fmt.Errorf("ping sql connection: %w", err)
		}
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}
	store := &SQLStore{
		db:          db,
		autoMigrate: cfg.AutoMigrate,
	}
	if cfg.AutoMigrate {
		if err := store.ensureSchema(context.Background()); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// SaveCompanies upserts a batch keyed by slug and returns how many rows were
// written. In-batch slug collisions collapse to the record with the higher
// quality score so a single statement never conflicts with itself.
func (s *SQLStore) SaveCompanies(ctx context.Context, companies []types.Company) (int, error) {
	if s == nil || s.db == nil || len(companies) == 0 {
		return 0, nil
	}

	batch := collapseBySlug(companies)

	written, err := s.upsertBatch(ctx, batch)
	if err != nil {
		if s.autoMigrate && isUndefinedTableErr(err) {
			if schemaErr := s.ensureSchema(ctx); schemaErr != nil {
				return 0, fmt.Errorf("ensure schema: %w", schemaErr)
			}
			return s.upsertBatch(ctx, batch)
		}
		return 0, err
	}
	return written, nil
}

type slugged struct {
	slug    string
	company types.Company
}

func collapseBySlug(companies []types.Company) []slugged {
	index := make(map[string]int, len(companies))
	batch := make([]slugged, 0, len(companies))
	for _, c := range companies {
		slug := Slug(c.CompanyName, c.Country)
		if slug == "" {
			continue
		}
		if i, ok := index[slug]; ok {
			if c.DataQualityScore > batch[i].company.DataQualityScore {
				batch[i].company = c
			}
			continue
		}
		index[slug] = len(batch)
		batch = append(batch, slugged{slug: slug, company: c})
	}
	return batch
}

func (s *SQLStore) upsertBatch(ctx context.Context, batch []slugged) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertCompanySQL)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, item := range batch {
		c := item.company
		if _, err := stmt.ExecContext(ctx,
			item.slug,
			c.CompanyName,
			nullable(c.LegalName),
			nullable(c.TaxID),
			nullable(c.RegistrationNumber),
			nullable(c.Website),
			nullable(c.Email),
			nullable(c.Phone),
			nullable(c.Address),
			nullable(c.City),
			nullable(c.Description),
			c.Country,
			nullable(c.SourcePlatform),
			nullable(c.SourceURL),
			nullable(c.Industry),
			nullable(c.LegalForm),
			nullable(c.RegistrationDate),
			c.ShareCapital,
			pq.Array(c.Technologies),
			pq.Array(c.Specialties),
			nullable(c.LinkedIn),
			c.DataQualityScore,
		); err != nil {
			return written, fmt.Errorf("upsert company %q: %w", item.slug, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

const upsertCompanySQL = `
        INSERT INTO companies (
            slug, company_name, legal_name, tax_id, registration_number,
            website, email, phone, address, city, description, country,
            source_platform, source_url, industry, legal_form,
            registration_date, share_capital, technologies, specialties,
            linkedin, data_quality_score, updated_at
        )
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,NOW())
        ON CONFLICT (slug) DO UPDATE SET
            company_name = EXCLUDED.company_name,
            legal_name = COALESCE(EXCLUDED.legal_name, companies.legal_name),
            tax_id = COALESCE(EXCLUDED.tax_id, companies.tax_id),
            registration_number = COALESCE(EXCLUDED.registration_number, companies.registration_number),
            website = COALESCE(EXCLUDED.website, companies.website),
            email = COALESCE(EXCLUDED.email, companies.email),
            phone = COALESCE(EXCLUDED.phone, companies.phone),
            address = COALESCE(EXCLUDED.address, companies.address),
            city = COALESCE(EXCLUDED.city, companies.city),
            description = COALESCE(EXCLUDED.description, companies.description),
            country = EXCLUDED.country,
            source_platform = EXCLUDED.source_platform,
            source_url = EXCLUDED.source_url,
            industry = COALESCE(EXCLUDED.industry, companies.industry),
            legal_form = COALESCE(EXCLUDED.legal_form, companies.legal_form),
            registration_date = COALESCE(EXCLUDED.registration_date, companies.registration_date),
            share_capital = EXCLUDED.share_capital,
            technologies = EXCLUDED.technologies,
            specialties = EXCLUDED.specialties,
            linkedin = COALESCE(EXCLUDED.linkedin, companies.linkedin),
            data_quality_score = EXCLUDED.data_quality_score,
            updated_at = NOW()
    `

// ListCompanies queries companies matching the filter, best quality first.
func (s *SQLStore) ListCompanies(ctx context.Context, filter Filter) ([]types.Company, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is closed")
	}

	query := strings.Builder{}
	query.WriteString(`
        SELECT company_name, legal_name, tax_id, registration_number,
               website, email, phone, address, city, description, country,
               source_platform, source_url, industry, legal_form,
               registration_date, share_capital, technologies, specialties,
               linkedin, data_quality_score
        FROM companies`)

	var clauses []string
	var args []any
	addClause := func(expr string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}

	if filter.Country != "" {
		addClause("country = $%d", strings.ToUpper(filter.Country))
	}
	if filter.City != "" {
		addClause("LOWER(city) = LOWER($%d)", filter.City)
	}
	if filter.Industry != "" {
		addClause("industry = $%d", filter.Industry)
	}
	if filter.Source != "" {
		addClause("source_platform = $%d", filter.Source)
	}
	if filter.MinScore > 0 {
		addClause("data_quality_score >= $%d", filter.MinScore)
	}
	if len(clauses) > 0 {
		query.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}

	query.WriteString(" ORDER BY data_quality_score DESC, company_name ASC")
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []types.Company
	for rows.Next() {
		var c types.Company
		var legalName, taxID, regNumber, website, email, phone sql.NullString
		var address, city, description, sourcePlatform, sourceURL sql.NullString
		var industry, legalForm, registrationDate, linkedin sql.NullString
		if err := rows.Scan(
			&c.CompanyName, &legalName, &taxID, &regNumber,
			&website, &email, &phone, &address, &city, &description,
			&c.Country, &sourcePlatform, &sourceURL, &industry, &legalForm,
			&registrationDate, &c.ShareCapital,
			pq.Array(&c.Technologies), pq.Array(&c.Specialties),
			&linkedin, &c.DataQualityScore,
		); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		c.LegalName = legalName.String
		c.TaxID = taxID.String
		c.RegistrationNumber = regNumber.String
		c.Website = website.String
		c.Email = email.String
		c.Phone = phone.String
		c.Address = address.String
		c.City = city.String
		c.Description = description.String
		c.SourcePlatform = sourcePlatform.String
		c.SourceURL = sourceURL.String
		c.Industry = industry.String
		c.LegalForm = legalForm.String
		c.RegistrationDate = registrationDate.String
		c.LinkedIn = linkedin.String
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Close closes the underlying DB connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullable(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}

func shouldAttemptCreateDatabase(driver string, err error) bool {
	if !strings.EqualFold(driver, "postgres") {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "3D000"
	}
	return strings.Contains(strings.ToLower(err.Error()), "does not exist")
}

func createDatabase(ctx context.Context, cfg config.SQLConfig) error {
	parsed, err := url.Parse(cfg.DSN)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}
	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return errors.New("dsn missing database name")
	}
	if strings.EqualFold(dbName, "postgres") {
		return fmt.Errorf("target database %q cannot be auto-created", dbName)
	}
	parsed.Path = "/postgres"
	adminDSN := parsed.String()
	adminDB, err := sql.Open(cfg.Driver, adminDSN)
	if err != nil {
		return fmt.Errorf("connect admin database: %w", err)
	}
	defer adminDB.Close()
	if err := adminDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping admin database: %w", err)
	}
	stmt := fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))
	if _, err := adminDB.ExecContext(ctx, stmt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "42P04" {
			return nil
		}
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	return nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil || !s.autoMigrate {
		return nil
	}
	schemaCtx := ctx
	if schemaCtx == nil || schemaCtx.Err() != nil {
		schemaCtx = context.Background()
	}
	schemaCtx, cancel := context.WithTimeout(schemaCtx, 10*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
		    slug TEXT PRIMARY KEY,
		    company_name TEXT NOT NULL,
		    legal_name TEXT,
		    tax_id TEXT,
		    registration_number TEXT,
		    website TEXT,
		    email TEXT,
		    phone TEXT,
		    address TEXT,
		    city TEXT,
		    description TEXT,
		    country TEXT NOT NULL,
		    source_platform TEXT,
		    source_url TEXT,
		    industry TEXT,
		    legal_form TEXT,
		    registration_date TEXT,
		    share_capital DOUBLE PRECISION DEFAULT 0,
		    technologies TEXT[],
		    specialties TEXT[],
		    linkedin TEXT,
		    data_quality_score INT DEFAULT 0,
		    updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_country ON companies (country)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_score ON companies (data_quality_score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_tax_id ON companies (tax_id) WHERE tax_id IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(schemaCtx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func isUndefinedTableErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "relation") && strings.Contains(lower, "does not exist")
}
