// Package app is the dependency-injection wiring root: it constructs every
// collaborator from a loaded Config and holds them for the lifetime of the
// process, the way the teacher's own app package wires its services before
// handing them to the HTTP server.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/ats"
	"github.com/ternarybob/vellum/internal/autofill"
	"github.com/ternarybob/vellum/internal/autofill/page"
	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/companystatus"
	"github.com/ternarybob/vellum/internal/discovery"
	"github.com/ternarybob/vellum/internal/documents"
	"github.com/ternarybob/vellum/internal/ingestion"
	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/jdsummary"
	"github.com/ternarybob/vellum/internal/learned"
	"github.com/ternarybob/vellum/internal/llm"
	"github.com/ternarybob/vellum/internal/models"
	"github.com/ternarybob/vellum/internal/storage/kernel"
	"github.com/ternarybob/vellum/internal/store"
)

// App holds every collaborator the HTTP server and CLI commands need.
// Everything is constructed once in New and torn down once in Close.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	Kernel      interfaces.StorageKernel
	Store       interfaces.PipelineStore
	StatusCache interfaces.CompanyStatusCache
	LearnedDB   interfaces.LearnedDB
	Registry    *ats.Registry
	Orchestrator *ingestion.Orchestrator
	Oracle      interfaces.Oracle
	Discovery   *discovery.Sniffer
	JDSummary   *jdsummary.Fetcher
	Documents   *documents.Templater
	Profile     models.Profile
}

// New constructs every collaborator from config. Any construction failure
// aborts startup; there is no partial App.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Config:    config,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	k, err := kernel.New(logger, config.Storage.DataDir)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: building storage kernel: %w", err)
	}
	a.Kernel = k

	pipelineStore, err := store.New(k, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: building pipeline store: %w", err)
	}
	pipelineStore.RejectionClearsOnClose = config.Resolver.RejectionMemoryClearsOnClose
	a.Store = pipelineStore

	learnedDB, err := learned.New(k, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: building learned-answer db: %w", err)
	}
	a.LearnedDB = learnedDB

	statusCache, err := companystatus.New(config.Storage.BadgerPath, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: building company fetch-status cache: %w", err)
	}
	a.StatusCache = statusCache

	httpClient := &http.Client{Timeout: 30 * time.Second}
	a.Registry = ats.NewRegistry(httpClient, logger)

	oracle, err := buildOracle(config.LLM)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: building llm oracle: %w", err)
	}
	a.Oracle = oracle

	a.Discovery = discovery.New(httpClient, k, logger)
	a.JDSummary = jdsummary.New(httpClient, oracle)

	a.Orchestrator = ingestion.New(
		a.Registry,
		a.Store,
		a.StatusCache,
		a.JDSummary,
		a.Discovery,
		logger,
		config.Ingestion,
		config.Resolver,
		config.Profile.Path,
	)

	templateBodies, err := loadTemplateDir(config.Documents.TemplateDir)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: loading document templates: %w", err)
	}
	templater, err := documents.New(templateBodies, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("app: building document templater: %w", err)
	}
	a.Documents = templater

	if config.Profile.Path != "" {
		profile, err := loadProfile(config.Profile.Path)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("app: loading applicant profile: %w", err)
		}
		a.Profile = profile
	}

	return a, nil
}

// NewAutofillSession launches a dedicated browser context and wires an
// Engine scoped to company, seeded with that company's learned answers.
// The caller must invoke the returned close func when the session ends,
// whether or not the fill itself succeeded.
func (a *App) NewAutofillSession(company string) (*autofill.Engine, func() error, error) {
	pageController, err := page.New(a.Config.Autofill, a.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("app: building browser page controller: %w", err)
	}

	learnedAnswers, err := a.LearnedDB.All()
	if err != nil {
		pageController.Close()
		return nil, nil, fmt.Errorf("app: loading learned answers: %w", err)
	}

	resolver := autofill.NewResolver(a.Profile, learnedAnswers, a.Config.Resolver, a.Oracle, company)
	engine := autofill.New(pageController, resolver, a.LearnedDB, a.Logger, a.Config.Autofill, a.Profile, company)
	return engine, pageController.Close, nil
}

// buildOracle selects the LLM adapter per config.LLM.Provider.
func buildOracle(cfg common.LLMConfig) (interfaces.Oracle, error) {
	switch cfg.Provider {
	case common.LLMProviderLocal:
		return llm.NewLocalOracle(cfg), nil
	case common.LLMProviderClaude, "":
		apiKey := cfg.AnthropicKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return llm.NewClaudeOracle(cfg, apiKey)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// loadTemplateDir reads every *.tmpl file in dir, keyed by its base
// filename without extension. A missing directory yields no templates
// rather than an error, since document rendering is optional.
func loadTemplateDir(dir string) (map[string]string, error) {
	templates := make(map[string]string)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return templates, nil
		}
		return nil, fmt.Errorf("reading template directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".tmpl" {
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading template file %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		templates[name] = string(body)
	}
	return templates, nil
}

// loadProfile reads the applicant profile JSON file named by
// config.Profile.Path. Unlike the Storage Kernel, the profile is
// maintained by hand outside the data directory, so it is read directly.
func loadProfile(path string) (models.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Profile{}, fmt.Errorf("reading profile file %s: %w", path, err)
	}
	var profile models.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return models.Profile{}, fmt.Errorf("parsing profile file %s: %w", path, err)
	}
	return profile, nil
}

// Context returns the app-lifetime context, cancelled by Close.
func (a *App) Context() context.Context {
	return a.ctx
}

// Close releases every resource the App owns. Safe to call once during
// shutdown; individual Close errors are logged, not aggregated, so one
// failing collaborator does not prevent the others from closing.
func (a *App) Close() {
	a.cancelCtx()
	if a.StatusCache != nil {
		if err := a.StatusCache.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("failed to close company fetch-status cache")
		}
	}
}
