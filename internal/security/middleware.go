package security

import (
	"errors"
	"net/http"
	"shop-auth/internal/model"
	"shop-auth/internal/util"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// AuthenticationMiddleware проверяет access токен один раз на запрос.
// Отсутствующий или невалидный токен не прерывает запрос: он идет дальше
// анонимно, без заголовка авторизации. Только недоступность проверки
// (model.ErrUpstreamUnavailable) превращается в 503.
func AuthenticationMiddleware(verifier Verifier, headerName string) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(verifier, headerName, next))
	}
}

func handleAuthentication(verifier Verifier, headerName string, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		credential := request.Header.Get(headerName)
		if strings.TrimSpace(credential) == "" {
			next.ServeHTTP(writer, stripCredential(request, headerName))
			return
		}

		log := util.Logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(request.Context()),
			"path":       request.URL.Path,
		})

		result, err := verifier.Verify(request.Context(), credential, AccessToken)
		if err != nil {
			if request.Context().Err() != nil {
				log.WithError(err).Debug("запрос отменен клиентом во время проверки токена")
				return
			}
			if errors.Is(err, model.ErrUpstreamUnavailable) {
				log.WithError(err).Warn("проверка токена недоступна")
				util.HandleError(writer, "upstream_unavailable", "сервис проверки токенов недоступен", http.StatusServiceUnavailable)
				return
			}
			log.WithError(err).Error("ошибка проверки токена")
			util.HandleError(writer, "internal_error", "внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		switch result.Outcome {
		case OutcomeValid:
			ctx := WithIdentity(request.Context(), result.Identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		case OutcomeInvalid:
			log.WithError(result.Reason).Debug("невалидный токен, запрос продолжается анонимно")
			next.ServeHTTP(writer, stripCredential(request, headerName))
		default:
			next.ServeHTTP(writer, stripCredential(request, headerName))
		}
	}
}

func stripCredential(request *http.Request, headerName string) *http.Request {
	if _, ok := request.Header[http.CanonicalHeaderKey(headerName)]; !ok {
		return request
	}
	stripped := request.Clone(request.Context())
	stripped.Header.Del(headerName)
	return stripped
}

// RequireIdentity отвечает 401 анонимным запросам.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, ok := IdentityFromContext(request.Context()); !ok {
			util.HandleError(writer, "unauthorized", "не авторизован", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole отвечает 401 анонимным запросам и 403 запросам без роли.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity, ok := IdentityFromContext(request.Context())
			if !ok {
				util.HandleError(writer, "unauthorized", "не авторизован", http.StatusUnauthorized)
				return
			}
			if !identity.HasRole(role) {
				util.HandleError(writer, "forbidden", "доступ запрещён", http.StatusForbidden)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
