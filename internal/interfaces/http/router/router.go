// Package router assembles the gin engine of the ledger API.
package router

import (
	"fmt"
	"net/http"
	"path"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/gymdesk/backend/internal/interfaces/http/middleware"
)

// Route is one ledger endpoint. The router puts the permission check, and
// the branch check when BranchParam is set, in front of Handler.
type Route struct {
	Method string
	Path   string
	// Permission overrides the resource permission. PublicRoute opts out.
	Permission string
	// BranchParam names a path parameter holding a branch ID the caller
	// must be allowed to act in
	BranchParam string
	Handler     gin.HandlerFunc
}

// PublicRoute marks a route that needs a tenant but no permission
const PublicRoute = "-"

// Resource is a ledger aggregate's routes under one prefix. Routes without
// their own permission inherit the resource's, then the parent's.
type Resource struct {
	name       string
	prefix     string
	permission string
	routes     []Route
	children   []*Resource
}

// NewResource declares a resource; permission may be empty when every route
// declares its own
func NewResource(name, prefix, permission string) *Resource {
	return &Resource{name: name, prefix: prefix, permission: permission}
}

// Handle adds a route with the resource's permission
func (res *Resource) Handle(method, relPath string, h gin.HandlerFunc) *Resource {
	return res.Add(Route{Method: method, Path: relPath, Handler: h})
}

// HandleWith adds a route needing its own permission
func (res *Resource) HandleWith(method, relPath, permission string, h gin.HandlerFunc) *Resource {
	return res.Add(Route{Method: method, Path: relPath, Permission: permission, Handler: h})
}

// Add adds a fully described route
func (res *Resource) Add(route Route) *Resource {
	res.routes = append(res.routes, route)
	return res
}

// Child nests a resource below this one. An empty permission inherits.
func (res *Resource) Child(name, prefix, permission string) *Resource {
	child := NewResource(name, prefix, permission)
	res.children = append(res.children, child)
	return child
}

// RouteInfo describes a mounted route after permission inheritance
type RouteInfo struct {
	Resource    string
	Method      string
	Path        string
	Permission  string
	BranchParam string
}

type mountedRoute struct {
	RouteInfo
	handler gin.HandlerFunc
}

func (res *Resource) flatten(base, inherited string, out []mountedRoute) []mountedRoute {
	perm := inherited
	if res.permission != "" {
		perm = res.permission
	}
	prefix := joinPath(base, res.prefix)
	for _, route := range res.routes {
		info := RouteInfo{
			Resource:    res.name,
			Method:      route.Method,
			Path:        joinPath(prefix, route.Path),
			Permission:  perm,
			BranchParam: route.BranchParam,
		}
		if route.Permission != "" {
			info.Permission = route.Permission
		}
		if info.Permission == PublicRoute {
			info.Permission = ""
		}
		out = append(out, mountedRoute{RouteInfo: info, handler: route.Handler})
	}
	for _, child := range res.children {
		out = child.flatten(prefix, perm, out)
	}
	return out
}

// joinPath keeps a trailing-slash-free path so "/sales" + "" stays "/sales"
func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	return path.Join(base, rel)
}

// Router mounts ledger resources under /api/<version> behind shared middleware
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	resources  []*Resource
	mounted    []RouteInfo
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
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware that runs for every route of the versioned API group,
// before the per-route permission checks
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Mount queues resources for Setup
func (r *Router) Mount(resources ...*Resource) *Router {
	r.resources = append(r.resources, resources...)
	return r
}

// Setup registers every queued route. A route with an unsupported method or
// one declared twice fails the whole setup before anything is registered.
func (r *Router) Setup() error {
	var routes []mountedRoute
	for _, res := range r.resources {
		routes = res.flatten("", "", routes)
	}
	seen := make(map[string]string, len(routes))
	for _, route := range routes {
		switch route.Method {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return fmt.Errorf("router: unsupported method %s for %s", route.Method, route.Path)
		}
		key := route.Method + " " + route.Path
		if owner, dup := seen[key]; dup {
			return fmt.Errorf("router: %s declared by %q and %q", key, owner, route.Resource)
		}
		seen[key] = route.Resource
	}

	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}
	r.mounted = make([]RouteInfo, 0, len(routes))
	for _, route := range routes {
		chain := make([]gin.HandlerFunc, 0, 3)
		if route.Permission != "" {
			chain = append(chain, middleware.RequirePermission(route.Permission))
		}
		if route.BranchParam != "" {
			chain = append(chain, middleware.RequireBranchParam(route.BranchParam))
		}
		chain = append(chain, route.handler)
		api.Handle(route.Method, route.Path, chain...)
		r.mounted = append(r.mounted, route.RouteInfo)
	}
	return nil
}

// Routes lists the mounted routes ordered by path then method
func (r *Router) Routes() []RouteInfo {
	out := append([]RouteInfo(nil), r.mounted...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
