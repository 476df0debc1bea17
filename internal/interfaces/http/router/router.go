package router

import (
	"net/http"
	"path"
	"sort"

	"github.com/erp/channelsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
	Routes() []Route
}

// Route describes one registered endpoint. Scopes lists the token scopes
// accepted by the endpoint; an empty list means any authenticated caller.
type Route struct {
	Method  string
	Path    string
	Scopes  []string
	Handler gin.HandlerFunc `json:"-"`
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BasePath returns the versioned API prefix
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Register adds a RouteRegistrar to be registered by Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under the versioned API group
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath())
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Routes lists every route of the registered groups with its full path,
// sorted by path then method.
func (r *Router) Routes() []Route {
	var routes []Route
	for _, registrar := range r.registrars {
		for _, route := range registrar.Routes() {
			route.Path = joinPaths(r.BasePath(), route.Path)
			routes = append(routes, route)
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// DomainGroup is a route group for one area of the API. Each route may
// require token scopes, enforced by middleware.RequireScope before the handler.
type DomainGroup struct {
	name       string
	prefix     string
	routes     []Route
	middleware []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route accepting any of the given scopes
func (dg *DomainGroup) Handle(method, relativePath string, handler gin.HandlerFunc, scopes ...string) *DomainGroup {
	dg.routes = append(dg.routes, Route{
		Method:  method,
		Path:    relativePath,
		Scopes:  scopes,
		Handler: handler,
	})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(relativePath string, handler gin.HandlerFunc, scopes ...string) *DomainGroup {
	return dg.Handle(http.MethodGet, relativePath, handler, scopes...)
}

// POST registers a POST route
func (dg *DomainGroup) POST(relativePath string, handler gin.HandlerFunc, scopes ...string) *DomainGroup {
	return dg.Handle(http.MethodPost, relativePath, handler, scopes...)
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, route := range dg.routes {
		var handlers []gin.HandlerFunc
		if len(route.Scopes) > 0 {
			handlers = append(handlers, middleware.RequireScope(route.Scopes...))
		}
		group.Handle(route.Method, route.Path, append(handlers, route.Handler)...)
	}
}

// Routes implements RouteRegistrar, with paths relative to the API prefix
func (dg *DomainGroup) Routes() []Route {
	routes := make([]Route, 0, len(dg.routes))
	for _, route := range dg.routes {
		route.Path = joinPaths(dg.prefix, route.Path)
		routes = append(routes, route)
	}
	return routes
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

func joinPaths(base, relative string) string {
	if relative == "" {
		return base
	}
	joined := path.Join(base, relative)
	if relative[len(relative)-1] == '/' && joined[len(joined)-1] != '/' {
		return joined + "/"
	}
	return joined
}
