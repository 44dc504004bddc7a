package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/screenwise/internal/config"
	"github.com/abhisek/screenwise/internal/fallback"
	"github.com/abhisek/screenwise/internal/llm"
	"github.com/abhisek/screenwise/internal/logging"
	"github.com/abhisek/screenwise/internal/metrics"
	"github.com/abhisek/screenwise/internal/model"
	"github.com/abhisek/screenwise/internal/progression"
	"github.com/abhisek/screenwise/internal/questiongen"
	"github.com/abhisek/screenwise/internal/risk"
	"github.com/abhisek/screenwise/internal/session"
	"github.com/abhisek/screenwise/internal/store"
)

// runtime holds everything a command needs once config is resolved.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry
	store   *store.Store
	loader  *model.Loader
	service *session.Service
}

// lastRuntime is read by the metrics post-run hook.
var lastRuntime *runtime

// openRuntime loads config, opens the store and builds the screening
// service with the configured learned paths.
func openRuntime(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("store opened", zap.String("path", dbPath))

	reg := metrics.New()
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: reg,
		store:   st,
		loader:  model.NewLoader(logger, reg),
	}
	resolver := fallback.Resolver{Logger: logger, Metrics: reg}

	var provider llm.Provider
	if cfg.Risk.Backend == config.BackendLLM || cfg.Questions.LLM {
		provider, err = llm.NewProviderFromEnv(ctx, st.EventRepo(), logger)
		if err != nil {
			// Every LLM-backed step has a rule fallback.
			logger.Warn("LLM provider not configured, using rules", zap.Error(err))
			provider = nil
		}
	}

	var policy progression.Policy
	if cfg.Models.SelectionPath != "" {
		policy = &progression.ModelPolicy{
			Loader:  rt.loader,
			Path:    cfg.Models.SelectionPath,
			Logger:  logger,
			Metrics: reg,
		}
	}

	var classifier risk.Classifier
	switch cfg.Risk.Backend {
	case config.BackendModel:
		classifier = &risk.ModelClassifier{Loader: rt.loader, Path: cfg.Models.RiskPath}
	case config.BackendLLM:
		if provider != nil {
			classifier = risk.NewLLMClassifier(provider, risk.DefaultLLMClassifierConfig())
		}
	}

	opts := session.Options{
		Selector: progression.NewSelector(cfg.Thresholds(), policy, resolver),
		Synthesizer: questiongen.NewSynthesizer(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
			questiongen.WithLogger(logger)),
		Engine:   risk.NewEngine(cfg.Risk.Calibration, classifier, resolver),
		Resolver: resolver,
		Cap:      cfg.Session.Cap,
		Logger:   logger,
	}
	if cfg.Questions.LLM && provider != nil {
		opts.Generator = questiongen.NewLLMGenerator(provider, questiongen.DefaultLLMConfig())
	}
	rt.service = session.NewService(session.ReposFrom(st), opts)

	lastRuntime = rt
	return rt, nil
}

func (r *runtime) Close() {
	_ = r.logger.Sync()
	r.store.Close()
}
