package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"shop-auth/internal/model"
	"shop-auth/internal/model/requestresponse"
	"shop-auth/internal/ports"
	"shop-auth/internal/security"
	"shop-auth/internal/util"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type UserHandler struct {
	ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService}
}

// RegisterUser godoc
// @Summary Регистрация нового пользователя
// @Description Создает пользователя с ролью USER. Пароль: минимум 8 символов, заглавная и строчная буква, цифра и спецсимвол.
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.UserResponse "Созданный пользователь"
// @Failure 400 {object} util.ErrorResponse "Некорректные данные"
// @Failure 409 {object} util.ErrorResponse "Логин занят"
// @Failure 500 {object} util.ErrorResponse "Внутренняя ошибка сервера"
// @Router /v1/auth/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	user, err := h.UserService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	util.RespondWithJSON(w, http.StatusCreated, requestresponse.UserResponse{
		Response: requestresponse.NewUserData(user),
	})
}

// GetCurrentUser godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает профиль владельца access токена
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.UserResponse
// @Failure 401 {object} util.ErrorResponse "Не авторизован"
// @Failure 404 {object} util.ErrorResponse "Пользователь не найден"
// @Router /v1/users/me [get]
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := security.IdentityFromContext(r.Context())
	if !ok {
		util.HandleError(w, "unauthorized", "не авторизован", http.StatusUnauthorized)
		return
	}

	user, err := h.UserService.GetUser(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, requestresponse.UserResponse{
		Response: requestresponse.NewUserData(user),
	})
}

// ChangePassword godoc
// @Summary Смена пароля
// @Description Меняет пароль владельца токена и отзывает все выданные ранее токены. При 503 пароль уже изменен: нужно повторить /v1/auth/logout-all.
// @Tags Users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body requestresponse.ChangePasswordRequest true "Тело запроса"
// @Success 200 {object} requestresponse.UpdatePasswordResponse
// @Failure 400 {object} util.ErrorResponse "Некорректные данные"
// @Failure 401 {object} util.ErrorResponse "Неверный текущий пароль"
// @Failure 503 {object} util.ErrorResponse "Пароль изменен, сессии не отозваны"
// @Router /v1/users/me/password [put]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := security.IdentityFromContext(r.Context())
	if !ok {
		util.HandleError(w, "unauthorized", "не авторизован", http.StatusUnauthorized)
		return
	}

	var req requestresponse.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if err := h.UserService.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := requestresponse.UpdatePasswordResponse{}
	resp.Response.Updated = true
	util.RespondWithJSON(w, http.StatusOK, resp)
}

// decodeJSON разбирает и валидирует тело запроса. При ошибке ответ уже записан.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		util.HandleError(w, "invalid_json", "некорректный JSON", http.StatusBadRequest)
		return err
	}

	if err := validate.Struct(target); err != nil {
		util.HandleError(w, "validation_failed", validationMessage(err), http.StatusBadRequest)
		return err
	}

	return nil
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return "некорректный запрос"
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fmt.Sprintf("поле %s не прошло проверку %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(messages, "; ")
}

// writeServiceError переводит ошибку сервиса в HTTP ответ.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := util.Logger.WithField("request_id", middleware.GetReqID(r.Context())).WithError(err)

	switch {
	case errors.Is(err, model.ErrUpstreamUnavailable):
		log.Warn("зависимость недоступна")
		util.HandleError(w, "upstream_unavailable", "сервис временно недоступен", http.StatusServiceUnavailable)
	case errors.Is(err, model.ErrInvalidRequest):
		util.HandleError(w, "validation_failed", "пароль не соответствует требованиям безопасности", http.StatusBadRequest)
	case errors.Is(err, model.ErrUserAlreadyExists):
		util.HandleError(w, "user_exists", "пользователь с таким логином уже существует", http.StatusConflict)
	case errors.Is(err, model.ErrCredentialMismatch):
		util.HandleError(w, "invalid_credentials", "неверный логин или пароль", http.StatusUnauthorized)
	case errors.Is(err, model.ErrRefreshTokenInvalid):
		log.Debug("refresh токен отклонен")
		util.HandleError(w, "invalid_refresh_token", "не удалось обновить токены", http.StatusUnauthorized)
	case errors.Is(err, model.ErrUserNotFound):
		util.HandleError(w, "user_not_found", "пользователь не найден", http.StatusNotFound)
	case errors.Is(err, model.ErrForbidden):
		util.HandleError(w, "forbidden", "доступ запрещён", http.StatusForbidden)
	default:
		log.Error("внутренняя ошибка")
		util.HandleError(w, "internal_error", "внутренняя ошибка сервера", http.StatusInternalServerError)
	}
}
