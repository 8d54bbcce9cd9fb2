package gbp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandops/brandpanel/internal/domain/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		want   model.Kind
	}{
		{200, model.KindSuccess},
		{201, model.KindSuccess},
		{204, model.KindSuccess},
		{400, model.KindInvalidRequest},
		{401, model.KindAuthExpired},
		{403, model.KindPermissionDenied},
		{404, model.KindNotFound},
		{429, model.KindRateLimited},
		{500, model.KindTransient},
		{502, model.KindTransient},
		{503, model.KindTransient},
		{302, model.KindTransient},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.status), "status %d", tt.status)
	}
}

func TestVendorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "message present",
			body: `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`,
			want: "The caller does not have permission",
		},
		{
			name: "status only",
			body: `{"error":{"status":"NOT_FOUND"}}`,
			want: "NOT_FOUND",
		},
		{
			name: "empty body",
			body: "",
			want: "",
		},
		{
			name: "not json",
			body: "<html>nope</html>",
			want: "",
		},
		{
			name: "unrelated json",
			body: `{"accounts":[]}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vendorMessage([]byte(tt.body)))
		})
	}
}
