package generator

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-press/pkg/interfaces"
	slug "github.com/goliatone/go-slug"
	urlkit "github.com/goliatone/go-urlkit"
)

// PermalinkConfig configures route derivation for documents that do not
// declare an explicit permalink.
type PermalinkConfig struct {
	// Routes maps a layout name to a route template using urlkit parameter
	// syntax, e.g. "post": "/:path/:slug". Available parameters: slug, path,
	// year, month, day.
	Routes map[string]string
	// DefaultRoute names the Routes entry used when a document's layout has
	// no dedicated template.
	DefaultRoute string
}

const permalinkGroup = "content"

var routeParamPattern = regexp.MustCompile(`:([A-Za-z0-9_]+)`)

// permalinkResolver derives the published route for a document. Precedence:
// explicit front matter permalink, then the layout's route template, then a
// slug derived from the title.
type permalinkResolver struct {
	manager      *urlkit.RouteManager
	routes       map[string]string
	defaultRoute string
}

func newPermalinkResolver(cfg PermalinkConfig) *permalinkResolver {
	routes := make(map[string]string, len(cfg.Routes))
	for name, tpl := range cfg.Routes {
		name = strings.TrimSpace(name)
		tpl = strings.TrimSpace(tpl)
		if name == "" || tpl == "" {
			continue
		}
		routes[name] = tpl
	}

	var manager *urlkit.RouteManager
	if len(routes) > 0 {
		manager = urlkit.NewRouteManager(&urlkit.Config{
			Groups: []urlkit.GroupConfig{
				{Name: permalinkGroup, Paths: routes},
			},
		})
	}

	return &permalinkResolver{
		manager:      manager,
		routes:       routes,
		defaultRoute: strings.TrimSpace(cfg.DefaultRoute),
	}
}

// Resolve returns the site-relative route for doc.
func (r *permalinkResolver) Resolve(doc *interfaces.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("generator: resolve permalink requires document")
	}

	if permalink := strings.TrimSpace(doc.Meta.Permalink()); permalink != "" {
		return normaliseRoute(permalink), nil
	}

	slugValue := documentSlug(doc)
	if route, ok, err := r.templateRoute(doc, slugValue); err != nil {
		return "", err
	} else if ok {
		return normaliseRoute(route), nil
	}

	section := strings.Trim(strings.TrimSpace(doc.Meta.Path()), "/")
	if section == "" {
		return normaliseRoute("/" + slugValue + "/"), nil
	}
	return normaliseRoute("/" + path.Join(section, slugValue) + "/"), nil
}

func (r *permalinkResolver) templateRoute(doc *interfaces.Document, slugValue string) (string, bool, error) {
	if r.manager == nil {
		return "", false, nil
	}

	routeName := strings.TrimSpace(doc.Meta.Layout())
	if _, ok := r.routes[routeName]; !ok {
		routeName = r.defaultRoute
	}
	template, ok := r.routes[routeName]
	if !ok {
		return "", false, nil
	}

	params, ok := r.routeParams(template, doc, slugValue)
	if !ok {
		// A template parameter has no value for this document (e.g. :year
		// without a date); fall through to slug derivation.
		return "", false, nil
	}

	group, err := lookupRouteGroup(r.manager, permalinkGroup)
	if err != nil {
		return "", false, err
	}
	builder, err := safeRouteBuilder(group, routeName)
	if err != nil {
		return "", false, err
	}
	for key, value := range params {
		builder.WithParam(key, value)
	}

	route, err := builder.Build()
	if err != nil {
		return "", false, fmt.Errorf("generator: build route %q for %s: %w", routeName, doc.Source(), err)
	}
	return route, true, nil
}

func (r *permalinkResolver) routeParams(template string, doc *interfaces.Document, slugValue string) (map[string]any, bool) {
	available := map[string]string{
		"slug": slugValue,
		"path": strings.Trim(strings.TrimSpace(doc.Meta.Path()), "/"),
	}
	if year, month, day, ok := documentDate(doc); ok {
		available["year"] = year
		available["month"] = month
		available["day"] = day
	}

	params := make(map[string]any)
	for _, match := range routeParamPattern.FindAllStringSubmatch(template, -1) {
		name := match[1]
		value, ok := available[name]
		if !ok || value == "" {
			return nil, false
		}
		params[name] = value
	}
	return params, true
}

func documentSlug(doc *interfaces.Document) string {
	if title := strings.TrimSpace(doc.Meta.Title()); title != "" {
		if normalized, err := slug.Normalize(title); err == nil && normalized != "" {
			return normalized
		}
	}

	stem := path.Base(strings.TrimSpace(doc.FilePath))
	stem = strings.TrimSuffix(stem, path.Ext(stem))
	if normalized, err := slug.Normalize(stem); err == nil && normalized != "" {
		return normalized
	}
	return "untitled"
}

func documentDate(doc *interfaces.Document) (year, month, day string, ok bool) {
	raw := strings.TrimSpace(doc.Meta.Get("date"))
	if raw == "" {
		return "", "", "", false
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "", "", "", false
	}
	return parsed.Format("2006"), parsed.Format("01"), parsed.Format("02"), true
}

func normaliseRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if path.Ext(route) != "" {
		return route
	}
	if !strings.HasSuffix(route, "/") {
		route += "/"
	}
	return route
}

func lookupRouteGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("generator: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generator: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}

func safeRouteBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("generator: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generator: route %q not registered", route)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}
