package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	rh "github.com/furtivegod/becomeyou/route-handlers"
	"github.com/furtivegod/becomeyou/sequencer"
	"github.com/furtivegod/becomeyou/webhooks"
	"github.com/furtivegod/becomeyou/webutil"
)

const requestTimeout = 120 * time.Second

// SetupRoutes assembles the full router: the purchase webhook, the
// assessment API, the cron-driven queue drain, signed file retrieval,
// and the health/metrics endpoints.
func SetupRoutes(
	logger *zap.Logger,
	purchaseHandler *webhooks.PurchaseHandler,
	sessionHandler *rh.SessionHandler,
	chatHandler *rh.ChatHandler,
	reportHandler *rh.ReportHandler,
	fileHandler *rh.FileHandler,
	seq *sequencer.Sequencer,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Post("/webhooks/purchase", webutil.MakeHandler(logger, purchaseHandler.HandlePurchase))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", webutil.MakeHandler(logger, sessionHandler.HandleCreateSession))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/messages", webutil.MakeHandler(logger, chatHandler.HandleMessage))
			r.Get("/report", webutil.MakeHandler(logger, reportHandler.HandleGetReport))
		})
		r.Get("/queue/drain", webutil.MakeHandler(logger, seq.HandleDrain))
	})

	r.Get("/files/*", webutil.MakeHandler(logger, fileHandler.HandleGetFile))

	r.Get("/healthz", handleHealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
