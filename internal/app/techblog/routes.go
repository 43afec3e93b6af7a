package techblog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	// Регистрирует OpenAPI-описание для /docs.
	_ "github.com/magabrotheeeer/techblog/docs"

	"github.com/magabrotheeeer/techblog/internal/http/handlers/admin/dashboard"
	admincreate "github.com/magabrotheeeer/techblog/internal/http/handlers/admin/posts/create"
	adminlist "github.com/magabrotheeeer/techblog/internal/http/handlers/admin/posts/list"
	adminread "github.com/magabrotheeeer/techblog/internal/http/handlers/admin/posts/read"
	adminremove "github.com/magabrotheeeer/techblog/internal/http/handlers/admin/posts/remove"
	adminupdate "github.com/magabrotheeeer/techblog/internal/http/handlers/admin/posts/update"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/admin/profile"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/admin/status"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/admin/subscribers"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/health"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/posts/featured"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/posts/list"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/posts/popular"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/posts/read"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/posts/search"
	"github.com/magabrotheeeer/techblog/internal/http/handlers/subscribe"
	"github.com/magabrotheeeer/techblog/internal/http/middlewarectx"
	"github.com/magabrotheeeer/techblog/internal/services/auth"
	"github.com/magabrotheeeer/techblog/internal/services/blog"
	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

// Deps — зависимости, из которых собираются маршруты.
type Deps struct {
	Log              *slog.Logger
	Supervisor       *supervisor.Supervisor
	Blog             *blog.Service
	Auth             *auth.Service
	Cookie           middlewarectx.SessionCookie
	SubscribeLimiter *rate.Limiter
	LoginLimiter     *rate.Limiter
	Metrics          http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.StorageHealth(d.Log, d.Supervisor))
		r.Use(middlewarectx.Session(d.Log, d.Auth, d.Cookie.Name))

		// Открытые конечные точки
		r.Get("/posts", list.New(d.Log, d.Blog).ServeHTTP)
		r.Get("/posts/{slug}", read.New(d.Log, d.Blog).ServeHTTP)
		r.Get("/categories/{category}/posts", list.New(d.Log, d.Blog).ServeHTTP)
		r.Get("/featured-post", featured.New(d.Log, d.Blog).ServeHTTP)
		r.Get("/popular-posts", popular.New(d.Log, d.Blog).ServeHTTP)
		r.Get("/search", search.New(d.Log, d.Blog).ServeHTTP)
		r.With(middlewarectx.RateLimitMiddleware(d.Log, d.SubscribeLimiter)).
			Post("/subscribe", subscribe.New(d.Log, d.Blog).ServeHTTP)

		r.With(middlewarectx.RateLimitMiddleware(d.Log, d.LoginLimiter)).
			Post("/login", login.New(d.Log, d.Auth, d.Cookie).ServeHTTP)
		r.Post("/logout", logout.New(d.Log, d.Auth, d.Cookie).ServeHTTP)
		r.With(middlewarectx.RequireAuth).Get("/user", me.ServeHTTP)

		// Панель администратора
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.RequireAdmin)
			r.Get("/posts", adminlist.New(d.Log, d.Blog).ServeHTTP)
			r.Post("/posts", admincreate.New(d.Log, d.Blog).ServeHTTP)
			r.Get("/posts/{id}", adminread.New(d.Log, d.Blog).ServeHTTP)
			r.Put("/posts/{id}", adminupdate.New(d.Log, d.Blog).ServeHTTP)
			r.Delete("/posts/{id}", adminremove.New(d.Log, d.Blog).ServeHTTP)
			r.Get("/subscribers", subscribers.New(d.Log, d.Blog).ServeHTTP)
			r.Get("/system/status", status.New(d.Supervisor).ServeHTTP)
			r.Get("/dashboard", dashboard.New(d.Log, d.Blog).ServeHTTP)
			r.Post("/users", register.New(d.Log, d.Auth).ServeHTTP)
			r.Put("/profile", profile.New(d.Log, d.Auth).ServeHTTP)
		})
	})

	r.Get("/healthz", health.New(d.Supervisor).ServeHTTP)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
