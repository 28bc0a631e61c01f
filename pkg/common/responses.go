package common

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "consultorio-backend/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondError sends an error response with an explicit code and message
func RespondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondAppError maps an application error onto the HTTP response
func RespondAppError(w http.ResponseWriter, err error) {
	info := &ErrorInfo{
		Code:    pkgerrors.CodeOf(err),
		Message: err.Error(),
	}
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		info.Message = appErr.Message
		info.Field = appErr.Field
	}

	response := APIResponse{Success: false, Error: info}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(pkgerrors.HTTPStatusOf(err))
	json.NewEncoder(w).Encode(response)
}
