// Package gbp implements the ProfileClient port against the business-profile
// platform's REST surfaces. The vendor exposes the same concepts under
// several API generations that are inconsistently available per account and
// region, so every operation runs through an ordered-candidate fallback
// engine instead of a hardcoded endpoint.
package gbp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/brandops/brandpanel/internal/domain/model"
	"github.com/brandops/brandpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileClient = (*Client)(nil)

// defaultTimeout bounds each candidate attempt so a hung endpoint cannot
// block fallback to the next one indefinitely.
const defaultTimeout = 30 * time.Second

// Recorder receives observations about vendor API usage. A nil recorder
// disables observation.
type Recorder interface {
	RecordVendorRequest(operation, generation, outcome string, elapsed time.Duration)
	RecordFallback(operation string)
	RecordTokenRefresh(result string)
}

// Client implements the driven.ProfileClient port. It is an explicitly
// constructed value carrying its credential and configuration; there is no
// ambient shared client. The credential's access token is the only state
// mutated across calls.
type Client struct {
	httpClient *http.Client
	hosts      map[generation]string
	tokens     *tokenSource
	recorder   Recorder
}

// NewClient creates a production client for the given credential. The
// transport stack is an in-memory ETag cache (conditional requests) under a
// per-attempt timeout. timeout <= 0 selects the default.
func NewClient(cred model.Credential, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   timeout,
	}

	tokens, err := newTokenSource(cred, httpClient, "")
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: httpClient,
		hosts:      defaultHosts,
		tokens:     tokens,
	}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client, with
// every generation host and the token endpoint pointed at baseURL. Intended
// for testing against an httptest server that muxes on path.
func NewClientWithHTTPClient(cred model.Credential, httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	base := strings.TrimSuffix(u.String(), "/")

	tokens, err := newTokenSource(cred, httpClient, base+"/token")
	if err != nil {
		return nil, err
	}

	hosts := make(map[generation]string, len(defaultHosts))
	for gen := range defaultHosts {
		hosts[gen] = base
	}

	return &Client{
		httpClient: httpClient,
		hosts:      hosts,
		tokens:     tokens,
	}, nil
}

// SetRecorder attaches a usage recorder. Must be called before the client is
// shared across goroutines.
func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

// OnTokenRefresh registers a hook invoked with each newly obtained access
// token, e.g. to persist it across restarts.
func (c *Client) OnTokenRefresh(fn func(accessToken string, expiry time.Time)) {
	c.tokens.setOnToken(fn)
}

// call runs the fallback engine for req. When the vendor rejects a token that
// looked live (HTTP 401), the token is force-refreshed once and the whole
// candidate walk replays once; an expired-auth failure from the token
// exchange itself is surfaced as-is, since repeating a rejected refresh
// cannot succeed.
func (c *Client) call(ctx context.Context, req apiRequest) (*apiResult, error) {
	res, err := c.execute(ctx, req)
	if err == nil || !model.IsKind(err, model.KindAuthExpired) {
		return res, err
	}

	// Status 0 means the expiry came from the token exchange itself, not from
	// a vendor 401; repeating a rejected refresh cannot succeed.
	var ce *model.ClientError
	if !errors.As(err, &ce) || ce.Status != http.StatusUnauthorized {
		return nil, err
	}

	if _, refreshErr := c.tokens.ForceRefresh(ctx); refreshErr != nil {
		c.recordRefresh("rejected")
		return nil, refreshErr
	}
	c.recordRefresh("ok")

	return c.execute(ctx, req)
}

func (c *Client) recordRefresh(result string) {
	if c.recorder != nil {
		c.recorder.RecordTokenRefresh(result)
	}
}

// ListAccounts returns the accounts visible to the credential via the
// canonical management host.
func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	res, err := c.call(ctx, apiRequest{op: opListAccounts})
	if err != nil {
		return nil, err
	}
	return normalizeAccounts(res.gen, res.body)
}

// CheckConnection walks every known accounts surface in preference order and
// returns the first listing that succeeds. It is the manual diagnostic path;
// production flows use ListAccounts.
func (c *Client) CheckConnection(ctx context.Context) ([]model.Account, error) {
	res, err := c.call(ctx, apiRequest{op: opCheckConnection})
	if err != nil {
		return nil, err
	}
	return normalizeAccounts(res.gen, res.body)
}

// ListLocations returns the locations under an account, falling back to the
// legacy surface when the current one is absent for this account.
func (c *Client) ListLocations(ctx context.Context, account string) ([]model.Location, error) {
	accountName := qualify("accounts", account)
	res, err := c.call(ctx, apiRequest{
		op:     opListLocations,
		params: map[string]string{"account": accountName},
	})
	if err != nil {
		return nil, err
	}
	return normalizeLocations(res.gen, accountName, res.body)
}

// GetLocation fetches a single location by resource name.
func (c *Client) GetLocation(ctx context.Context, location string) (*model.Location, error) {
	name := qualify("locations", location)
	res, err := c.call(ctx, apiRequest{
		op:     opGetLocation,
		params: map[string]string{"name": name},
	})
	if err != nil {
		return nil, err
	}
	return normalizeLocation(opGetLocation, res.gen, "", res.body)
}

// UpdateLocation patches loc.Name with the selected canonical fields and
// returns the updated record.
func (c *Client) UpdateLocation(ctx context.Context, loc model.Location, fields []string) (*model.Location, error) {
	mask := make([]string, 0, len(fields))
	for _, f := range fields {
		vendor, ok := updateMaskFields[f]
		if !ok {
			return nil, &model.ClientError{
				Kind:      model.KindInvalidRequest,
				Operation: string(opUpdateLocation),
				Message:   fmt.Sprintf("unknown update field %q", f),
			}
		}
		mask = append(mask, vendor)
	}
	if len(mask) == 0 {
		return nil, &model.ClientError{
			Kind:      model.KindInvalidRequest,
			Operation: string(opUpdateLocation),
			Message:   "no update fields given",
		}
	}

	res, err := c.call(ctx, apiRequest{
		op:     opUpdateLocation,
		params: map[string]string{"name": qualify("locations", loc.Name)},
		query:  url.Values{"updateMask": {strings.Join(mask, ",")}},
		body:   denormalizeLocation(loc),
	})
	if err != nil {
		return nil, err
	}
	return normalizeLocation(opUpdateLocation, res.gen, loc.AccountName, res.body)
}

// CreateLocation creates a location under the account and returns the
// created record.
func (c *Client) CreateLocation(ctx context.Context, account string, loc model.Location) (*model.Location, error) {
	accountName := qualify("accounts", account)
	res, err := c.call(ctx, apiRequest{
		op:     opCreateLocation,
		params: map[string]string{"account": accountName},
		body:   denormalizeLocation(loc),
	})
	if err != nil {
		return nil, err
	}
	return normalizeLocation(opCreateLocation, res.gen, accountName, res.body)
}

// ListReviews returns a location's reviews, newest update first. The review
// surface exists on the legacy host only.
func (c *Client) ListReviews(ctx context.Context, account, location string) ([]model.Review, error) {
	locationName := qualify("locations", location)
	res, err := c.call(ctx, apiRequest{
		op: opListReviews,
		params: map[string]string{
			"account":  qualify("accounts", account),
			"location": locationName,
		},
	})
	if err != nil {
		return nil, err
	}
	return normalizeReviews(locationName, res.body)
}

// replyBody is the vendor write shape of a review reply.
type replyBody struct {
	Comment string `json:"comment"`
}

// ReplyToReview creates or replaces the owner's reply on a review.
func (c *Client) ReplyToReview(ctx context.Context, account, location, reviewID, comment string) error {
	_, err := c.call(ctx, apiRequest{
		op: opReplyReview,
		params: map[string]string{
			"account":  qualify("accounts", account),
			"location": qualify("locations", location),
			"review":   reviewID,
		},
		body: replyBody{Comment: comment},
	})
	return err
}

// vendorPost is the write shape of a local post.
type vendorPost struct {
	TopicType    string `json:"topicType"`
	Summary      string `json:"summary,omitempty"`
	CallToAction *struct {
		ActionType string `json:"actionType"`
		URL        string `json:"url"`
	} `json:"callToAction,omitempty"`
}

// CreatePost publishes post on post.LocationName and returns the created
// record.
func (c *Client) CreatePost(ctx context.Context, post model.Post) (*model.Post, error) {
	body := vendorPost{
		TopicType: post.TopicType,
		Summary:   post.Summary,
	}
	if post.CallToAction != nil {
		body.CallToAction = &struct {
			ActionType string `json:"actionType"`
			URL        string `json:"url"`
		}{
			ActionType: post.CallToAction.ActionType,
			URL:        post.CallToAction.URL,
		}
	}

	locationName := qualify("locations", post.LocationName)
	res, err := c.call(ctx, apiRequest{
		op:     opCreatePost,
		params: map[string]string{"name": locationName},
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	return normalizePost(locationName, res.body)
}

// FetchInsights returns one daily series per requested metric over the
// inclusive [start, end] range. The vendor takes the range as discrete
// year/month/day query parameters rather than ISO dates.
func (c *Client) FetchInsights(ctx context.Context, location string, metrics []string, start, end time.Time) ([]model.InsightSeries, error) {
	if len(metrics) == 0 {
		return nil, &model.ClientError{
			Kind:      model.KindInvalidRequest,
			Operation: string(opFetchInsights),
			Message:   "no metrics requested",
		}
	}

	query := url.Values{}
	for _, m := range metrics {
		query.Add("dailyMetrics", m)
	}
	addDateParams(query, "dailyRange.start_date", start)
	addDateParams(query, "dailyRange.end_date", end)

	locationName := qualify("locations", location)
	res, err := c.call(ctx, apiRequest{
		op:     opFetchInsights,
		params: map[string]string{"location": locationName},
		query:  query,
	})
	if err != nil {
		return nil, err
	}
	return normalizeInsights(locationName, res.body)
}

func addDateParams(query url.Values, prefix string, t time.Time) {
	query.Set(prefix+".year", strconv.Itoa(t.Year()))
	query.Set(prefix+".month", strconv.Itoa(int(t.Month())))
	query.Set(prefix+".day", strconv.Itoa(t.Day()))
}

// qualify turns a bare numeric ID into a resource name under collection, and
// passes already-qualified names through unchanged. The production path works
// in resource names; this keeps callers holding raw IDs from inventing a
// second identifier dialect.
func qualify(collection, id string) string {
	if id == "" || strings.Contains(id, "/") {
		return id
	}
	return collection + "/" + id
}

// serviceAccountKey is the standard service-account key file shape.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// ParseServiceAccountKey builds a service-identity credential from a
// service-account key file.
func ParseServiceAccountKey(data []byte) (model.Credential, error) {
	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return model.Credential{}, fmt.Errorf("parsing service account key: %w", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return model.Credential{}, fmt.Errorf("service account key missing client_email or private_key")
	}

	return model.Credential{
		Kind:          model.CredentialServiceIdentity,
		Issuer:        key.ClientEmail,
		PrivateKeyPEM: key.PrivateKey,
		TokenURI:      key.TokenURI,
	}, nil
}
