// Package api wires services into the HTTP surface.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/andretaki/simurgh/internal/api/handlers"
	"github.com/andretaki/simurgh/internal/api/middleware"
	"github.com/andretaki/simurgh/internal/audit"
	"github.com/andretaki/simurgh/internal/auth"
	"github.com/andretaki/simurgh/internal/cache"
	"github.com/andretaki/simurgh/internal/config"
	"github.com/andretaki/simurgh/internal/extraction"
	"github.com/andretaki/simurgh/internal/order"
	"github.com/andretaki/simurgh/internal/profile"
	"github.com/andretaki/simurgh/internal/queue"
	"github.com/andretaki/simurgh/internal/response"
	"github.com/andretaki/simurgh/internal/rfq"
	"github.com/andretaki/simurgh/internal/samgov"
	"github.com/andretaki/simurgh/internal/storage"
	"github.com/andretaki/simurgh/internal/webhook"
	"github.com/andretaki/simurgh/internal/workflow"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	authN *auth.Middleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		authN: auth.NewMiddleware(cfg.Auth),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	store := storage.NewObjectStorage(rt.cfg.Storage)
	auditSvc := audit.NewService(rt.db)
	queueClient := queue.NewClient(rt.cfg.Redis)
	dispatcher := webhook.NewDispatcher(rt.db)
	webhookSvc := webhook.NewService(rt.db, dispatcher)

	gateway := extraction.NewGateway(rt.cfg.LLM)
	extractor := extraction.NewExtractor(gateway, auditSvc)

	workflowStore := workflow.NewStore(rt.db)
	rfqSvc := rfq.NewService(rt.db, store, queueClient, webhookSvc, extractor)
	orderSvc := order.NewService(rt.db, store, queueClient, webhookSvc, workflowStore, extractor)
	profileSvc := profile.NewService(rt.db)
	responseSvc := response.NewService(rt.db, store, webhookSvc, profileSvc)
	samStore := samgov.NewDBStore(rt.db)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authN.Authenticate)

		rfqH := handlers.NewRfqHandler(rfqSvc)
		r.Route("/rfqs", func(r chi.Router) {
			r.Post("/", rfqH.Upload)
			r.Get("/", rfqH.List)
			r.Get("/{id}", rfqH.Get)
			r.Delete("/{id}", rfqH.Delete)
			r.Get("/{id}/status", rfqH.Status)
			r.Post("/{id}/reprocess", rfqH.Reprocess)
		})

		respH := handlers.NewResponseHandler(responseSvc, auditSvc)
		r.Route("/responses", func(r chi.Router) {
			r.Post("/", respH.Create)
			r.Get("/", respH.List)
			r.Get("/{id}", respH.Get)
			r.Put("/{id}", respH.Update)
			r.Post("/{id}/submit", respH.Submit)
			r.Post("/{id}/no-bid", respH.NoBid)
			r.Post("/{id}/pdf", respH.GeneratePdf)
		})

		orderH := handlers.NewOrderHandler(orderSvc, auditSvc)
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderH.Create)
			r.Post("/upload", orderH.Upload)
			r.Get("/", orderH.List)
			r.Get("/{id}", orderH.Get)
			r.Patch("/{id}/stage", orderH.SetStage)
			r.Post("/{id}/ship", orderH.Ship)
			r.Post("/{id}/link", orderH.Link)
			r.Post("/{id}/quality-sheets", orderH.AddQualitySheet)
			r.Get("/{id}/quality-sheets", orderH.ListQualitySheets)
			r.Post("/{id}/labels", orderH.AddLabel)
			r.Get("/{id}/labels", orderH.ListLabels)
		})
		r.Post("/quality-sheets/{sheetID}/verify", orderH.VerifyQualitySheet)
		r.Post("/labels/{labelID}/verify", orderH.VerifyLabel)

		wfH := handlers.NewWorkflowHandler(workflowStore, cache.NewCache(rt.redis), rt.cfg.Workflow.LostAfter)
		r.Route("/workflow", func(r chi.Router) {
			r.Get("/dashboard", wfH.Dashboard)
			r.Get("/document/{id}", wfH.ByDocument)
			r.Get("/rfq/{rfqNumber}", wfH.ByRfqNumber)
			r.Get("/po/{poNumber}", wfH.ByPoNumber)
		})

		oppH := handlers.NewOpportunityHandler(samStore, queueClient, auditSvc)
		r.Route("/opportunities", func(r chi.Router) {
			r.Get("/", oppH.List)
			r.Post("/sync", oppH.Sync)
		})
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", oppH.ListCatalog)
			r.Post("/", oppH.AddCatalogItem)
			r.Delete("/{id}", oppH.DeleteCatalogItem)
		})

		profH := handlers.NewProfileHandler(profileSvc)
		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profH.Get)
			r.Put("/", profH.Upsert)
		})

		whH := handlers.NewWebhookHandler(webhookSvc, auditSvc)
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", whH.Create)
			r.Get("/", whH.List)
			r.Delete("/{id}", whH.Delete)
		})

		auditH := handlers.NewAuditHandler(auditSvc)
		r.Route("/audit", func(r chi.Router) {
			r.Get("/logs", auditH.Logs)
			r.Get("/usage", auditH.UsageSummary)
		})
	})

	return r
}
