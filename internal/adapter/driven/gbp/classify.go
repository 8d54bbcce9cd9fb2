package gbp

import (
	"encoding/json"
	"net/http"

	"github.com/brandops/brandpanel/internal/domain/model"
)

// classify maps an HTTP status to the caller-facing taxonomy. It is pure:
// the decision depends on the response alone, never on call history.
func classify(status int) model.Kind {
	switch {
	case status >= 200 && status < 300:
		return model.KindSuccess
	case status == http.StatusUnauthorized:
		return model.KindAuthExpired
	case status == http.StatusForbidden:
		return model.KindPermissionDenied
	case status == http.StatusNotFound:
		return model.KindNotFound
	case status == http.StatusBadRequest:
		return model.KindInvalidRequest
	case status == http.StatusTooManyRequests:
		return model.KindRateLimited
	default:
		// Anything else, 5xx included, is treated as transient.
		return model.KindTransient
	}
}

// errorBody is the standard error envelope the vendor wraps failures in.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// vendorMessage extracts the human-readable detail from an error response
// body. Returns "" when the body carries no recognizable envelope.
func vendorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Error.Message != "" {
		return eb.Error.Message
	}
	return eb.Error.Status
}
