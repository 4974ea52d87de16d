// Package router binds the HTTP surface to the service layer: HTML pages
// for the browser flows, JSON endpoints, and the public redirect route.
package router

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/thoas/go-funk"

	"tinylinks/internal/gzippedhttp"
	"tinylinks/internal/ipchecker"
	"tinylinks/internal/logger"
	"tinylinks/internal/models"
	"tinylinks/internal/service"
	"tinylinks/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

type sessionManager interface {
	Issue(response http.ResponseWriter, userID string) error
	Clear(response http.ResponseWriter)
	ResolveUser(h http.Handler) http.Handler
}

// Router holds the handler dependencies.
type Router struct {
	svc       *service.Service
	sessions  sessionManager
	ipChecker *ipchecker.IPChecker
	templates *template.Template
}

type linkView struct {
	ShortCode string
	LongURL   string
	ShortURL  string
}

type urlsIndexView struct {
	Email string
	Links []linkView
}

type urlsNewView struct {
	Email string
}

type urlShowView struct {
	Email string
	Link  linkView
}

// New builds the chi router with the full middleware chain and route table.
func New(svc *service.Service, sessions sessionManager, ipChecker *ipchecker.IPChecker) (*chi.Mux, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	handlers := &Router{
		svc:       svc,
		sessions:  sessions,
		ipChecker: ipChecker,
		templates: templates,
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.GzipResponse)
	router.Use(gzippedhttp.UngzipRequest)
	router.Use(sessions.ResolveUser)

	router.Get(`/`, handlers.GetRoot)
	router.Get(`/hello`, handlers.GetHello)
	router.Get(`/ping`, handlers.GetPing)

	router.Get(`/login`, handlers.GetLogin)
	router.Post(`/login`, handlers.PostLogin)
	router.Get(`/register`, handlers.GetRegister)
	router.Post(`/register`, handlers.PostRegister)
	router.Post(`/logout`, handlers.PostLogout)

	router.Get(`/urls`, handlers.GetURLs)
	router.Get(`/urls.json`, handlers.GetURLsJSON)
	router.Get(`/urls/new`, handlers.GetNewURL)
	router.Post(`/urls`, handlers.PostURLs)
	router.Get(`/urls/{id}`, handlers.GetURL)
	router.Post(`/urls/{id}`, handlers.UpdateURL)
	router.Put(`/urls/{id}`, handlers.UpdateURL)
	router.Post(`/urls/{id}/delete`, handlers.DeleteURL)
	router.Delete(`/urls/{id}`, handlers.DeleteURL)

	router.Get(`/u/{id}`, handlers.RedirectToLongURL)

	router.Get(`/api/internal/stats`, handlers.GetInternalStats)

	return router, nil
}

// GetRoot sends authenticated callers to their URL list and everyone else
// to the login page.
func (rt *Router) GetRoot(response http.ResponseWriter, request *http.Request) {
	if session.UserIDFromContext(request.Context()) != "" {
		http.Redirect(response, request, "/urls", http.StatusFound)
		return
	}
	http.Redirect(response, request, "/login", http.StatusFound)
}

// GetHello serves the greeting page kept from the very first iteration of
// the application.
func (rt *Router) GetHello(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = response.Write([]byte("<html><body>Hello <b>World</b></body></html>\n"))
}

// GetPing reports storage health.
func (rt *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := rt.svc.Ping(request.Context()); err != nil {
		response.WriteHeader(http.StatusInternalServerError)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// GetLogin renders the login form, or redirects callers that are already
// logged in.
func (rt *Router) GetLogin(response http.ResponseWriter, request *http.Request) {
	if session.UserIDFromContext(request.Context()) != "" {
		http.Redirect(response, request, "/urls", http.StatusFound)
		return
	}
	rt.render(response, http.StatusOK, "login.html", nil)
}

// PostLogin verifies the submitted credentials and opens a session.
func (rt *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	usr, err := rt.svc.Login(request.Context(), request.FormValue("email"), request.FormValue("password"))
	if err != nil {
		rt.renderError(response, err)
		return
	}

	if err := rt.sessions.Issue(response, usr.ID); err != nil {
		rt.renderError(response, err)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

// GetRegister renders the registration form, or redirects callers that are
// already logged in.
func (rt *Router) GetRegister(response http.ResponseWriter, request *http.Request) {
	if session.UserIDFromContext(request.Context()) != "" {
		http.Redirect(response, request, "/urls", http.StatusFound)
		return
	}
	rt.render(response, http.StatusOK, "register.html", nil)
}

// PostRegister creates a new account and logs it in right away.
func (rt *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	usr, err := rt.svc.Register(request.Context(), request.FormValue("email"), request.FormValue("password"))
	if err != nil {
		rt.renderError(response, err)
		return
	}

	if err := rt.sessions.Issue(response, usr.ID); err != nil {
		rt.renderError(response, err)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

// PostLogout clears the session cookie.
func (rt *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	rt.sessions.Clear(response)
	http.Redirect(response, request, "/login", http.StatusFound)
}

// GetURLs renders the owner-filtered link list.
func (rt *Router) GetURLs(response http.ResponseWriter, request *http.Request) {
	userID := session.UserIDFromContext(request.Context())

	links, err := rt.svc.LinksForOwner(request.Context(), userID)
	if errors.Is(err, models.ErrUnauthenticated) {
		http.Error(response, "please log in or register to see your URLs", http.StatusUnauthorized)
		return
	}
	if err != nil {
		rt.renderError(response, err)
		return
	}

	usr, err := rt.svc.GetUser(request.Context(), userID)
	if err != nil {
		rt.renderError(response, err)
		return
	}

	rt.render(response, http.StatusOK, "urls_index.html", urlsIndexView{
		Email: usr.Email,
		Links: rt.linkViews(links),
	})
}

// GetURLsJSON dumps the whole link store as JSON.
func (rt *Router) GetURLsJSON(response http.ResponseWriter, request *http.Request) {
	links, err := rt.svc.AllLinks(request.Context())
	if err != nil {
		rt.renderError(response, err)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(response).Encode(links); err != nil {
		logger.Log.Debugln("Error encoding the URLs dump:", err)
	}
}

// GetNewURL renders the link creation form. Anonymous callers are sent to
// the login page instead.
func (rt *Router) GetNewURL(response http.ResponseWriter, request *http.Request) {
	userID := session.UserIDFromContext(request.Context())
	if userID == "" {
		http.Redirect(response, request, "/login", http.StatusFound)
		return
	}

	usr, err := rt.svc.GetUser(request.Context(), userID)
	if err != nil {
		rt.renderError(response, err)
		return
	}

	rt.render(response, http.StatusOK, "urls_new.html", urlsNewView{Email: usr.Email})
}

// PostURLs creates a new short link for the logged-in user.
func (rt *Router) PostURLs(response http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	link, err := rt.svc.CreateLink(
		request.Context(),
		request.FormValue("longURL"),
		session.UserIDFromContext(request.Context()),
	)
	if err != nil {
		rt.renderError(response, err)
		return
	}

	http.Redirect(response, request, "/urls/"+link.ShortCode, http.StatusFound)
}

// GetURL renders the detail page of an owned link.
func (rt *Router) GetURL(response http.ResponseWriter, request *http.Request) {
	userID := session.UserIDFromContext(request.Context())

	link, err := rt.svc.GetLink(request.Context(), chi.URLParam(request, "id"), userID)
	if err != nil {
		rt.renderError(response, err)
		return
	}

	usr, err := rt.svc.GetUser(request.Context(), userID)
	if err != nil {
		rt.renderError(response, err)
		return
	}

	rt.render(response, http.StatusOK, "urls_show.html", urlShowView{
		Email: usr.Email,
		Link: linkView{
			ShortCode: link.ShortCode,
			LongURL:   link.LongURL,
			ShortURL:  rt.svc.ShortURL(link.ShortCode),
		},
	})
}

// UpdateURL overwrites the destination of an owned link.
func (rt *Router) UpdateURL(response http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	newLongURL := request.FormValue("longURL")
	if newLongURL == "" {
		// Field name used by an earlier iteration of the edit form.
		newLongURL = request.FormValue("newURL")
	}

	_, err := rt.svc.UpdateLink(
		request.Context(),
		chi.URLParam(request, "id"),
		newLongURL,
		session.UserIDFromContext(request.Context()),
	)
	if err != nil {
		rt.renderError(response, err)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

// DeleteURL removes an owned link.
func (rt *Router) DeleteURL(response http.ResponseWriter, request *http.Request) {
	err := rt.svc.DeleteLink(
		request.Context(),
		chi.URLParam(request, "id"),
		session.UserIDFromContext(request.Context()),
	)
	if err != nil {
		rt.renderError(response, err)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

// RedirectToLongURL resolves a short code for any caller, no auth involved.
func (rt *Router) RedirectToLongURL(response http.ResponseWriter, request *http.Request) {
	longURL, err := rt.svc.Resolve(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		rt.renderError(response, err)
		return
	}

	http.Redirect(response, request, longURL, http.StatusTemporaryRedirect)
}

// GetInternalStats reports store-wide counters as JSON. It is only
// served to callers inside the trusted subnet.
func (rt *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	clientIP, err := rt.ipChecker.ClientIP(request)
	if err != nil || !rt.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := rt.svc.GetInternalStats(request.Context())
	if err != nil {
		rt.renderError(response, err)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(response).Encode(stats); err != nil {
		logger.Log.Debugln("Error encoding the stats response:", err)
	}
}

func (rt *Router) linkViews(links map[string]models.Link) []linkView {
	codes := funk.Keys(links).([]string)
	sort.Strings(codes)

	views := make([]linkView, 0, len(codes))
	for _, code := range codes {
		link := links[code]
		views = append(views, linkView{
			ShortCode: link.ShortCode,
			LongURL:   link.LongURL,
			ShortURL:  rt.svc.ShortURL(link.ShortCode),
		})
	}

	return views
}

func (rt *Router) render(response http.ResponseWriter, status int, name string, data interface{}) {
	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	response.WriteHeader(status)
	if err := rt.templates.ExecuteTemplate(response, name, data); err != nil {
		logger.Log.Debugln("Error rendering the template:", name, err)
	}
}

func (rt *Router) renderError(response http.ResponseWriter, err error) {
	http.Error(response, err.Error(), statusFromError(err))
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrLinkNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, models.ErrUnauthenticated),
		errors.Is(err, models.ErrNotOwner):
		return http.StatusUnauthorized

	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrEmailTaken):
		return http.StatusBadRequest

	case errors.Is(err, models.ErrAuthFailure):
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}
