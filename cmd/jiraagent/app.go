package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/agent"
	"github.com/matiasleandrokruk/jiraagent/internal/domain/credential"
	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
	"github.com/matiasleandrokruk/jiraagent/internal/infra/config"
	"github.com/matiasleandrokruk/jiraagent/internal/infra/jira"
	"github.com/matiasleandrokruk/jiraagent/internal/infra/llm"
	"github.com/matiasleandrokruk/jiraagent/internal/infra/logging"
	"github.com/matiasleandrokruk/jiraagent/internal/infra/sqlite"
	pkgauth "github.com/matiasleandrokruk/jiraagent/pkg/auth"
)

// app is the wired process: config, logger, tools and dispatcher.
type app struct {
	cfg        config.Config
	logger     zerolog.Logger
	registry   *tool.Registry
	dispatcher *agent.Dispatcher
}

// loadApp resolves config and wires everything that does not touch the
// database. Nothing here dials the network.
func loadApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: logOut})

	registry := tool.NewRegistry(logger)
	client := jira.NewClient(jiraConfig(cfg))
	if err := tool.RegisterJiraTools(registry, client); err != nil {
		return nil, err
	}
	if err := client.Configured(); err != nil {
		logger.Warn().Err(err).Msg("jira is not fully configured; tools will report it on use")
	}

	router, err := newLLMRouter(cfg)
	if err != nil {
		return nil, err
	}
	sessions := agent.NewLLMSessionHandle(router, registry, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		dispatcher: agent.NewDispatcher(registry, sessions, logger),
	}, nil
}

func jiraConfig(cfg config.Config) jira.Config {
	return jira.Config{
		BaseURL:       cfg.JiraBaseURL,
		User:          cfg.JiraUser,
		Password:      cfg.JiraPassword,
		Email:         cfg.JiraEmail,
		APIToken:      cfg.JiraAPIToken,
		AuthToken:     cfg.JiraAuthToken,
		EpicNameField: cfg.JiraEpicNameField,
		MaxResults:    cfg.JiraMaxResults,
		Timeout:       cfg.JiraTimeout,
	}
}

func newLLMRouter(cfg config.Config) (*llm.Router, error) {
	ollama, err := llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.LLMTimeout)
	if err != nil {
		return nil, err
	}
	router := llm.NewRouter(nil, cfg.LLMProvider)
	router.Register("ollama", ollama)
	return router, nil
}

// openDB opens the credential database, creating its directory, and
// applies pending migrations.
func (a *app) openDB(ctx context.Context) (*sql.DB, []string, error) {
	if a.cfg.DBPath != sqlite.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sqlite.NewDB(a.cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	applied, err := sqlite.MigrateUp(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, applied, nil
}

// credentials returns nil when no secret key is configured.
func (a *app) credentials(db *sql.DB) *credential.Service {
	c, err := credential.NewCipher(a.cfg.CredentialSecretKey)
	if err != nil {
		a.logger.Warn().Msg("CREDENTIAL_SECRET_KEY is not set; credential API disabled")
		return nil
	}
	return credential.NewService(db, c, a.logger)
}

// signer returns nil when no JWT secret is configured.
func (a *app) signer() *pkgauth.Signer {
	s, err := pkgauth.NewSigner(a.cfg.JWTSecret, a.cfg.JWTExpiryHours)
	if err != nil {
		return nil
	}
	return s
}
