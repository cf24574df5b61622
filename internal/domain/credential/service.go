// Package credential stores per-project Jira credentials. Tokens are
// encrypted at rest and returned decrypted.
package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrDuplicateProject   = errors.New("credential already exists for project")
	ErrInvalidCredential  = errors.New("invalid credential")
)

// Credential is a stored project credential with the token in clear.
type Credential struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"projectName"`
	Token       string    `json:"token"`
	BaseURL     string    `json:"baseUrl"`
	ProxyURL    string    `json:"proxyUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput is the body of a create request.
type CreateInput struct {
	ProjectName string `json:"projectName" validate:"required,max=255"`
	Token       string `json:"token" validate:"required"`
	BaseURL     string `json:"baseUrl" validate:"omitempty,url"`
	ProxyURL    string `json:"proxyUrl" validate:"omitempty,url"`
}

// UpdateInput changes only the fields that are set. An empty URL clears it.
type UpdateInput struct {
	Token    *string `json:"token,omitempty"`
	BaseURL  *string `json:"baseUrl,omitempty"`
	ProxyURL *string `json:"proxyUrl,omitempty"`
}

func (in UpdateInput) validate() error {
	checks := []struct {
		name string
		v    *string
		tag  string
	}{
		{"token", in.Token, "min=1"},
		{"baseUrl", in.BaseURL, "omitempty,url"},
		{"proxyUrl", in.ProxyURL, "omitempty,url"},
	}
	for _, c := range checks {
		if c.v == nil {
			continue
		}
		if err := validate.Var(*c.v, c.tag); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidCredential, c.name, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service is the credential CRUD service.
type Service struct {
	db     *sql.DB
	cipher *Cipher
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(db *sql.DB, c *Cipher, logger zerolog.Logger) *Service {
	return &Service{db: db, cipher: c, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Credential, error) {
	in.ProjectName = strings.TrimSpace(in.ProjectName)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	enc, err := s.cipher.Encrypt(in.Token)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("credential: id: %w", err)
	}
	now := s.now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO project_credentials (id, project_name, token, base_url, proxy_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), in.ProjectName, enc, in.BaseURL, in.ProxyURL, formatTime(now), formatTime(now))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateProject, in.ProjectName)
	}
	if err != nil {
		return nil, fmt.Errorf("credential: insert: %w", err)
	}

	s.logger.Info().Str("project", in.ProjectName).Str("id", id.String()).Msg("credential created")
	return &Credential{
		ID:          id.String(),
		ProjectName: in.ProjectName,
		Token:       in.Token,
		BaseURL:     in.BaseURL,
		ProxyURL:    in.ProxyURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Service) Get(ctx context.Context, projectName string) (*Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_name, token, base_url, proxy_url, created_at, updated_at
		FROM project_credentials WHERE project_name = ?`, projectName)
	return s.scan(row)
}

// List returns every credential ordered by project name.
func (s *Service) List(ctx context.Context) ([]*Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_name, token, base_url, proxy_url, created_at, updated_at
		FROM project_credentials ORDER BY project_name`)
	if err != nil {
		return nil, fmt.Errorf("credential: list: %w", err)
	}
	defer rows.Close()

	out := []*Credential{}
	for rows.Next() {
		c, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Service) Update(ctx context.Context, projectName string, in UpdateInput) (*Credential, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{formatTime(s.now())}
	if in.Token != nil {
		enc, err := s.cipher.Encrypt(*in.Token)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "token = ?")
		args = append(args, enc)
	}
	if in.BaseURL != nil {
		sets = append(sets, "base_url = ?")
		args = append(args, *in.BaseURL)
	}
	if in.ProxyURL != nil {
		sets = append(sets, "proxy_url = ?")
		args = append(args, *in.ProxyURL)
	}
	args = append(args, projectName)

	res, err := s.db.ExecContext(ctx,
		"UPDATE project_credentials SET "+strings.Join(sets, ", ")+" WHERE project_name = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("credential: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrCredentialNotFound
	}

	s.logger.Info().Str("project", projectName).Msg("credential updated")
	return s.Get(ctx, projectName)
}

func (s *Service) Delete(ctx context.Context, projectName string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM project_credentials WHERE project_name = ?`, projectName)
	if err != nil {
		return fmt.Errorf("credential: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCredentialNotFound
	}
	s.logger.Info().Str("project", projectName).Msg("credential deleted")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Service) scan(row scanner) (*Credential, error) {
	var (
		c                Credential
		enc              string
		created, updated string
	)
	err := row.Scan(&c.ID, &c.ProjectName, &enc, &c.BaseURL, &c.ProxyURL, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credential: scan: %w", err)
	}

	if c.Token, err = s.cipher.Decrypt(enc); err != nil {
		return nil, fmt.Errorf("credential %s: %w", c.ProjectName, err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &c, nil
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
