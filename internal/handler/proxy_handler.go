package handler

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"shop-auth/config"
	"shop-auth/internal/security"
	"shop-auth/internal/util"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Заголовки, которыми шлюз передает проверенную личность сервисам.
// Пришедшие от клиента значения всегда удаляются.
const (
	UserIDHeader    = "X-User-Id"
	UserRolesHeader = "X-User-Roles"
)

// SetupGatewayRoutes проксирует каждый префикс на свой upstream. Фильтр
// authenticate выполняется до проксирования.
func SetupGatewayRoutes(r chi.Router, routes []config.Route, authenticate func(http.Handler) http.Handler) error {
	proxies := make(map[string]http.Handler, len(routes))
	for _, route := range routes {
		proxy, err := newUpstreamProxy(route)
		if err != nil {
			return err
		}
		proxies[route.Prefix] = proxy
	}

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		for _, route := range routes {
			prefix := strings.TrimSuffix(route.Prefix, "/")
			// префикс "/" означает маршрут по умолчанию
			if prefix == "" {
				r.Handle("/", proxies[route.Prefix])
			} else {
				r.Handle(prefix, proxies[route.Prefix])
			}
			r.Handle(prefix+"/*", proxies[route.Prefix])
		}
	})

	return nil
}

func newUpstreamProxy(route config.Route) (http.Handler, error) {
	target, err := url.Parse(route.Upstream)
	if err != nil {
		return nil, fmt.Errorf("некорректный upstream %q для %s: %w", route.Upstream, route.Prefix, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream для %s должен быть абсолютным URL: %q", route.Prefix, route.Upstream)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Header.Del(UserIDHeader)
		req.Header.Del(UserRolesHeader)
		if identity, ok := security.IdentityFromContext(req.Context()); ok {
			req.Header.Set(UserIDHeader, identity.UserID)
			req.Header.Set(UserRolesHeader, strings.Join(identity.Roles, ","))
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		if req.Context().Err() != nil {
			return
		}
		util.Logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(req.Context()),
			"upstream":   target.Host,
		}).WithError(err).Warn("upstream не ответил")
		util.HandleError(w, "bad_gateway", "сервис недоступен", http.StatusBadGateway)
	}

	return proxy, nil
}
