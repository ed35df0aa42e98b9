// README: Wires stores, locker, classifier, language model and maps into the services.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rideassist/internal/ai"
	"rideassist/internal/assistant"
	"rideassist/internal/classifier"
	"rideassist/internal/config"
	"rideassist/internal/infra"
	"rideassist/internal/maps"
	"rideassist/internal/modules/adjudication"
	"rideassist/internal/modules/aiusage"
	"rideassist/internal/modules/booking"
	"rideassist/internal/modules/cancellation"
	"rideassist/internal/modules/profile"
)

const (
	lockPrefix = "rideassist:cancel:"
	lockTTL    = 30 * time.Second
)

type app struct {
	profiles      *profile.Service
	bookings      *booking.Service
	cancellations *cancellation.Service
	assistant     *assistant.Assistant
	// llm is nil without GEMINI_API_KEY.
	llm     *ai.GeminiProvider
	closers []func()
}

func newApp(ctx context.Context, cfg config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var (
		profileStore      profile.Store
		bookingStore      booking.Store
		cancellationStore cancellation.Store
		quota             assistant.Quota
	)
	switch cfg.Store.Driver {
	case config.StorePostgres:
		var pool *pgxpool.Pool
		if pool, err = infra.NewDB(ctx, cfg.DB.DSN); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		profileStore = profile.NewPostgresStore(pool)
		bookingStore = booking.NewPostgresStore(pool)
		cancellationStore = cancellation.NewPostgresStore(pool)
		quota = aiusage.NewService(aiusage.NewStore(pool), cfg.AI.QueryTokens)
	default:
		if profileStore, err = profile.OpenFileStore(cfg.Store.DataDir); err != nil {
			return nil, err
		}
		if bookingStore, err = booking.OpenFileStore(cfg.Store.DataDir); err != nil {
			return nil, err
		}
		if cancellationStore, err = cancellation.OpenFileStore(cfg.Store.DataDir); err != nil {
			return nil, err
		}
	}

	var locker infra.Locker
	if cfg.Redis.Addr != "" {
		client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		locker = infra.NewRedisLocker(client, lockPrefix, lockTTL)
	}

	clf, err := loadClassifier(cfg.Models.Dir)
	if err != nil {
		return nil, err
	}

	var routes booking.RouteEstimator
	if cfg.Maps.APIKey != "" {
		rs, err := maps.NewRouteService(cfg.Maps.APIKey, maps.WithLocale(cfg.Maps.Language, cfg.Maps.Region))
		if err != nil {
			return nil, err
		}
		routes = rs
	}

	answerer := ai.NewAnswerer(nil, nil)
	if cfg.AI.GeminiKey != "" {
		if a.llm, err = ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiModel); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.llm.Close)
		answerer = ai.NewAnswerer(buildRetriever(ctx, a.llm, cfg.AI.KnowledgeDir), a.llm)
	}

	a.profiles = profile.NewService(profileStore)
	a.bookings = booking.NewService(bookingStore, a.profiles, routes)
	engine := adjudication.NewEngine(clf, adjudication.DefaultThresholds)
	a.cancellations = cancellation.NewService(cancellationStore, a.bookings, a.profiles, engine, locker)
	a.assistant = assistant.New(a.bookings, a.cancellations, answerer, quota)

	slog.Debug("app wired",
		"store", cfg.Store.Driver,
		"redis_lock", locker != nil,
		"llm", a.llm != nil,
		"routes", routes != nil,
		"quota", quota != nil,
	)
	return a, nil
}

func loadClassifier(dir string) (*classifier.Adapter, error) {
	if dir == "" {
		return classifier.LoadDefault()
	}
	clf, err := classifier.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load models from %s: %w", dir, err)
	}
	return clf, nil
}

// buildRetriever returns nil when the knowledge base cannot be embedded;
// the answerer then replies that it does not know.
func buildRetriever(ctx context.Context, emb ai.Embedder, dir string) *ai.Retriever {
	chunks, err := ai.LoadKnowledge(dir)
	if err != nil {
		slog.Warn("knowledge base unavailable", "dir", dir, "error", err)
		return nil
	}
	r, err := ai.NewRetriever(ctx, emb, chunks)
	if err != nil {
		slog.Warn("knowledge base embedding failed", "error", err)
		return nil
	}
	slog.Info("knowledge base loaded", "chunks", r.Len())
	return r
}

// interpreter picks the language model when configured. Without one, the CLI
// falls back to the numbered menu and the HTTP API has none.
func (a *app) interpreter(prompt assistant.Prompter) assistant.Interpreter {
	if a.llm != nil {
		return assistant.NewLLMInterpreter(a.llm)
	}
	if prompt != nil {
		return assistant.NewMenuInterpreter(prompt)
	}
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
