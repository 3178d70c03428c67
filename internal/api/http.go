package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "RH-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500 && status != http.StatusBadGateway:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "RH-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "RH-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "RH-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "RH-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusUnauthorized:
		code = "RH-API-4010"
		msg = "Request identity is missing. Supply the X-User-ID header."
	case status == http.StatusNotFound:
		code = "RH-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "RH-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "RH-API-4005"
		msg = "This endpoint does not support the requested method."
	case status == http.StatusBadGateway:
		code = "RH-API-5020"
		msg = "Upstream provider unavailable. Retry shortly."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "email, username and password are required"):
			msg = "Email, username and password are required."
		case strings.Contains(raw, "email already registered"):
			msg = "An account with this email already exists."
		case strings.Contains(raw, "name is required"):
			msg = "Workspace name is required."
		case strings.Contains(raw, "query is required"):
			msg = "A search query is required."
		case strings.Contains(raw, "title and source are required"):
			msg = "Paper title and source are required."
		case strings.Contains(raw, "workspace_id and message are required"):
			msg = "Both workspace and message are required."
		case strings.Contains(raw, "no papers selected"):
			msg = "Select at least one paper."
		case strings.Contains(raw, "unsupported tool"):
			msg = "Unknown AI tool. Use summarize, insights or literature_review."
		case strings.Contains(raw, "unsupported source"):
			msg = "Unknown catalog source. Use arxiv, pubmed or all."
		case strings.Contains(raw, "at least one topic"):
			msg = "At least one review topic is required."
		case strings.Contains(raw, "no files provided"):
			msg = "No PDF files were provided."
		case strings.Contains(raw, "title and content are required"):
			msg = "Note title and content are required."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
