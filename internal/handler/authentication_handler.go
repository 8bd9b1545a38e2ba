package handler

import (
	"errors"
	"net/http"
	"shop-auth/internal/model"
	"shop-auth/internal/model/requestresponse"
	"shop-auth/internal/ports"
	"shop-auth/internal/security"
	"shop-auth/internal/util"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
}

func NewAuthenticationHandler(authenticationService ports.AuthenticationService) *AuthenticationHandler {
	return &AuthenticationHandler{authenticationService}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Выдает пару access и refresh токенов по логину и паролю. Неизвестный логин и неверный пароль неотличимы для клиента.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.TokensResponse "Пара токенов"
// @Failure 400 {object} util.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} util.ErrorResponse "Неверный логин или пароль"
// @Failure 503 {object} util.ErrorResponse "Хранилище недоступно"
// @Failure 500 {object} util.ErrorResponse "Внутренняя ошибка сервера"
// @Router /v1/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	tokens, err := h.AuthenticationService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			err = errors.Join(model.ErrCredentialMismatch, err)
		}
		writeServiceError(w, r, err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, requestresponse.TokensResponse{Response: *tokens})
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Выдает новую пару по действующему refresh токену. Переданный refresh токен остается действительным.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} requestresponse.TokensResponse "Новая пара токенов"
// @Failure 400 {object} util.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} util.ErrorResponse "Refresh токен недействителен или отозван"
// @Failure 503 {object} util.ErrorResponse "Хранилище отзывов недоступно"
// @Router /v1/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RefreshTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	tokens, err := h.AuthenticationService.Refresh(r.Context(), req.RefreshJwt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, requestresponse.TokensResponse{Response: *tokens})
}

// CheckAccessToken godoc
// @Summary Проверка access токена
// @Description Отвечает 200 для любого токена, в том числе пустого: невалидный токен дает valid=false и remainingSeconds=0. 503 только если проверку нельзя выполнить.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.AccessTokenCheckRequest true "Тело запроса"
// @Success 200 {object} requestresponse.AccessTokenCheckResponse "Результат проверки"
// @Failure 400 {object} util.ErrorResponse "Некорректный JSON"
// @Failure 503 {object} util.ErrorResponse "Хранилище отзывов недоступно"
// @Router /v1/auth/access-token-check [post]
func (h *AuthenticationHandler) CheckAccessToken(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.AccessTokenCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	result, err := h.AuthenticationService.CheckAccessToken(r.Context(), req.AccessJwt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, requestresponse.AccessTokenCheckResponse{Response: *result})
}

// LogoutAll godoc
// @Summary Выход на всех устройствах
// @Description Отзывает все токены текущего пользователя, выпущенные не позже текущего момента. При 503 запрос нужно повторить.
// @Tags Authentication
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.RevocationResponse "Отсечка отзыва"
// @Failure 401 {object} util.ErrorResponse "Не авторизован"
// @Failure 503 {object} util.ErrorResponse "Хранилище отзывов недоступно"
// @Router /v1/auth/logout-all [post]
func (h *AuthenticationHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := security.IdentityFromContext(r.Context())
	if !ok {
		util.HandleError(w, "unauthorized", "не авторизован", http.StatusUnauthorized)
		return
	}

	cutoff, err := h.AuthenticationService.RevokeAll(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := requestresponse.RevocationResponse{}
	resp.Response.UserID = identity.UserID
	resp.Response.CutoffMs = cutoff.UnixMilli()
	util.RespondWithJSON(w, http.StatusOK, resp)
}

// ClearRevocation godoc
// @Summary Снятие отсечки отзыва
// @Description Удаляет отсечку пользователя в Redis. Только для роли ADMIN.
// @Tags Authentication
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "UUID пользователя"
// @Success 204 "Отсечка снята"
// @Failure 400 {object} util.ErrorResponse "Некорректный userId"
// @Failure 401 {object} util.ErrorResponse "Не авторизован"
// @Failure 403 {object} util.ErrorResponse "Доступ запрещён"
// @Failure 503 {object} util.ErrorResponse "Хранилище отзывов недоступно"
// @Router /v1/auth/revocations/{userId} [delete]
func (h *AuthenticationHandler) ClearRevocation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if _, err := uuid.Parse(userID); err != nil {
		util.HandleError(w, "validation_failed", "некорректный userId", http.StatusBadRequest)
		return
	}

	if err := h.AuthenticationService.ClearRevocation(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
