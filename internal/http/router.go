package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netclub/internal/http/handlers"
	"netclub/internal/http/middleware"
	"netclub/internal/service"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Tokens   *service.TokenService
	Auth     *handlers.AuthHandler
	Sessions *handlers.SessionsHandler
	Members  *handlers.MembersHandler
	Machines *handlers.MachinesHandler
	Records  *handlers.RecordsHandler
	Stats    *handlers.StatsHandler
	Users    *handlers.UsersHandler

	// MetricsEnabled exposes /metrics when set.
	MetricsEnabled bool
}

// NewRouter builds the full route table. Everything under /api except
// auth endpoints requires a valid bearer token. User management, member
// and machine removal, machine creation and batch record deletion are
// admin only.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.NewHealthHandler())
	if deps.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	mux.HandleFunc("POST /api/auth/register", deps.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", deps.Auth.Login)
	mux.HandleFunc("POST /api/auth/change-password", deps.Auth.ChangePassword)

	authed := http.NewServeMux()
	admin := func(h http.HandlerFunc) http.Handler { return middleware.AdminOnly(h) }

	authed.HandleFunc("POST /api/sessions/start", deps.Sessions.Start)
	authed.HandleFunc("POST /api/sessions/end", deps.Sessions.End)

	authed.HandleFunc("GET /api/members", deps.Members.List)
	authed.HandleFunc("POST /api/members", deps.Members.Create)
	authed.HandleFunc("GET /api/members/{id}", deps.Members.Get)
	authed.HandleFunc("PUT /api/members/{id}", deps.Members.Update)
	authed.Handle("DELETE /api/members/{id}", admin(deps.Members.Delete))
	authed.HandleFunc("POST /api/members/{id}/recharge", deps.Members.Recharge)

	authed.HandleFunc("GET /api/machines", deps.Machines.List)
	authed.Handle("POST /api/machines", admin(deps.Machines.Create))
	authed.HandleFunc("PUT /api/machines/rates", deps.Machines.UpdateRates)
	authed.HandleFunc("PUT /api/machines/types/{type}/rate", deps.Machines.UpdateTypeRate)
	authed.HandleFunc("GET /api/machines/{id}", deps.Machines.Get)
	authed.HandleFunc("PUT /api/machines/{id}", deps.Machines.Update)
	authed.Handle("DELETE /api/machines/{id}", admin(deps.Machines.Delete))

	authed.HandleFunc("GET /api/usage-records", deps.Records.List)
	authed.Handle("DELETE /api/usage-records/batch", admin(deps.Records.BatchDelete))
	authed.HandleFunc("GET /api/usage-records/{id}", deps.Records.Get)
	authed.HandleFunc("GET /api/usage-records/member/{id}", deps.Records.ListByMember)

	authed.HandleFunc("GET /api/income/total", deps.Stats.TotalIncome)
	authed.HandleFunc("GET /api/income/daily", deps.Stats.DailyIncome)
	authed.HandleFunc("GET /api/income/monthly", deps.Stats.MonthlyIncome)
	authed.HandleFunc("GET /api/income/machine-types", deps.Stats.MachineTypeIncome)
	authed.HandleFunc("GET /api/stats/machines", deps.Stats.MachineUsage)
	authed.HandleFunc("GET /api/stats/members", deps.Stats.MemberUsage)

	authed.Handle("GET /api/users", admin(deps.Users.List))
	authed.Handle("POST /api/users", admin(deps.Users.Create))
	authed.Handle("GET /api/users/{id}", admin(deps.Users.Get))
	authed.Handle("PUT /api/users/{id}", admin(deps.Users.Update))
	authed.Handle("DELETE /api/users/{id}", admin(deps.Users.Delete))

	requireAuth := middleware.Auth(deps.Tokens)
	mux.Handle("/api/", requireAuth(authed))

	return mux
}
