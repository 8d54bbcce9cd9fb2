package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector()

	c.RecordVendorRequest("list-locations", "business-information", "not_found", 120*time.Millisecond)
	c.RecordVendorRequest("list-locations", "legacy-v4", "success", 80*time.Millisecond)
	c.RecordFallback("list-locations")
	c.RecordTokenRefresh("ok")

	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.vendorRequests.WithLabelValues("list-locations", "legacy-v4", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.fallbacks.WithLabelValues("list-locations")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.tokenRefreshes.WithLabelValues("ok")))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.RecordVendorRequest("list-accounts", "account-management", "success", 50*time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "brandpanel_vendor_requests_total")
	assert.Contains(t, string(body), "brandpanel_vendor_request_seconds")
}
