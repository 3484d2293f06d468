package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/hoperise-backend/internal/auth"
	"github.com/unclebandit/hoperise-backend/internal/controller"
	"github.com/unclebandit/hoperise-backend/internal/handler"
	"github.com/unclebandit/hoperise-backend/internal/metrics"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	EnableFaucet   bool
}

// NewRouter registers the campaign routes. Reads are public; everything that
// acts for a caller sits behind the bearer token middleware.
func NewRouter(ctrl *controller.CampaignController, h *handler.CampaignHandler, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(requestDuration)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", ctrl.ListCampaigns)
		r.Get("/featured", h.FeaturedCampaignsHandler)
		r.Get("/{id}", h.GetCampaignHandlerWithStats)
		r.Get("/{id}/milestones", h.ListMilestonesHandler)
		r.Get("/{id}/contributions", h.ListContributionsHandler)
		r.Get("/{id}/activity", h.ActivityHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(opts.JWTSecret))

			r.Post("/", ctrl.CreateCampaign)
			r.Post("/{id}/fund", ctrl.FundCampaign)
			r.Post("/{id}/withdraw", ctrl.WithdrawFunds)
			r.Post("/{id}/close", ctrl.CloseCampaign)
			r.Post("/{id}/refund", ctrl.ClaimRefund)
			r.Post("/{id}/milestones", ctrl.AddMilestone)
			r.Post("/{id}/milestones/{index}/complete", ctrl.CompleteMilestone)
			r.Get("/{id}/contributions/me", h.MyContributionHandler)
		})
	})

	if opts.EnableFaucet {
		r.With(auth.Middleware(opts.JWTSecret)).Post("/faucet", ctrl.Faucet)
	}

	return r
}

// requestDuration records latency by route pattern so ids do not explode the
// label set.
func requestDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequestDuration(r.Method, pattern, strconv.Itoa(status), time.Since(start))
	})
}
