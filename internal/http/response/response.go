// Package response содержит вспомогательные типы и функции для формирования
// JSON-ответов HTTP-обработчиков: сообщений, ошибок и ошибок валидации.
//
// Успешные ответы с данными отдаются как есть (пост, страница постов, список),
// остальные оборачиваются в Response.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает JSON-ответ без полезных данных.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Message — сообщение для пользователя при успехе.
// Поле Error — текст ошибки при неуспехе.
// Поле Fields — ошибки валидации по полям.
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"post not found"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Message возвращает успешный Response с сообщением.
func Message(msg string) Response {
	return Response{
		Status:  StatusOK,
		Message: msg,
	}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение описывается человеко-читаемым текстом и попадает в Fields.
func ValidationError(errs validator.ValidationErrors) Response {
	msgs := make([]string, 0, len(errs))
	fields := make(map[string]string, len(errs))

	for _, err := range errs {
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = fmt.Sprintf("field %s is a required field", err.Field())
		case "email":
			msg = fmt.Sprintf("field %s must be a valid email", err.Field())
		case "url":
			msg = fmt.Sprintf("field %s must be a valid url", err.Field())
		case "oneof":
			msg = fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param())
		case "min":
			msg = fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param())
		case "max":
			msg = fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param())
		case "numeric":
			msg = fmt.Sprintf("field %s can contain only numbers", err.Field())
		default:
			msg = fmt.Sprintf("field %s is not a valid", err.Field())
		}
		msgs = append(msgs, msg)
		fields[err.Field()] = msg
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
		Fields: fields,
	}
}
