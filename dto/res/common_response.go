package res

import "festival-chat-api/apperror"

type CommonResponse[T any] struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
}

type ErrorResponse struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"statusCode"`
	Code       string                 `json:"code,omitempty"`
	Errors     []apperror.FieldError  `json:"errors,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}
