package gbp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandops/brandpanel/internal/domain/model"
)

func TestNormalizeRating(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"word one", `"ONE"`, 1},
		{"word three", `"THREE"`, 3},
		{"word five", `"FIVE"`, 5},
		{"unknown word", `"SIX"`, 0},
		{"unspecified word", `"STAR_RATING_UNSPECIFIED"`, 0},
		{"integer", `4`, 4},
		{"integer zero", `0`, 0},
		{"out of range", `9`, 0},
		{"negative", `-1`, 0},
		{"fractional", `4.5`, 0},
		{"absent", ``, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			if tt.raw != "" {
				raw = json.RawMessage(tt.raw)
			}
			assert.Equal(t, tt.want, normalizeRating(raw))
		})
	}
}

func TestNormalizeAccounts(t *testing.T) {
	t.Run("current generation", func(t *testing.T) {
		body := `{"accounts":[{"name":"accounts/112022557985287772374","accountName":"Test Store","type":"PERSONAL","role":"OWNER","verificationState":"VERIFIED"}]}`

		accounts, err := normalizeAccounts(genAccountManagement, []byte(body))
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "accounts/112022557985287772374", accounts[0].Name)
		assert.Equal(t, "Test Store", accounts[0].DisplayName)
		assert.Equal(t, "PERSONAL", accounts[0].Kind)
		assert.Equal(t, "OWNER", accounts[0].Role)
		assert.Equal(t, "VERIFIED", accounts[0].VerificationState)
	})

	t.Run("legacy generation state status", func(t *testing.T) {
		body := `{"accounts":[{"name":"accounts/1","accountName":"Old Shop","state":{"status":"VERIFIED"}}]}`

		accounts, err := normalizeAccounts(genLegacy, []byte(body))
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "VERIFIED", accounts[0].VerificationState)
	})

	t.Run("empty envelope", func(t *testing.T) {
		accounts, err := normalizeAccounts(genAccountManagement, []byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, accounts)
		assert.NotNil(t, accounts)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := normalizeAccounts(genAccountManagement, []byte(`{"accounts":`))
		assert.Equal(t, model.KindMalformedResponse, model.KindOf(err))
	})
}

func TestNormalizeLocations(t *testing.T) {
	t.Run("current generation", func(t *testing.T) {
		body := `{"locations":[{
			"name":"locations/11007263269570993027",
			"title":"Test Store",
			"storeCode":"TS-1",
			"phoneNumbers":{"primaryPhone":"+1 555-0100"},
			"websiteUri":"https://example.com",
			"categories":{"primaryCategory":{"displayName":"Bakery"},"additionalCategories":[{"displayName":"Cafe"}]},
			"latlng":{"latitude":40.7,"longitude":-74.0},
			"openInfo":{"status":"OPEN"}
		}]}`

		locations, err := normalizeLocations(genBusinessInformation, "accounts/16058076381455815546", []byte(body))
		require.NoError(t, err)
		require.Len(t, locations, 1)
		loc := locations[0]
		assert.Equal(t, "locations/11007263269570993027", loc.Name)
		assert.Equal(t, "accounts/16058076381455815546", loc.AccountName)
		assert.Equal(t, "Test Store", loc.DisplayName)
		assert.Equal(t, "TS-1", loc.StoreCode)
		assert.Equal(t, "+1 555-0100", loc.Phone)
		assert.Equal(t, "https://example.com", loc.WebsiteURL)
		assert.Equal(t, "Bakery", loc.PrimaryCategory)
		assert.Equal(t, []string{"Cafe"}, loc.Categories)
		require.NotNil(t, loc.Latitude)
		assert.InDelta(t, 40.7, *loc.Latitude, 1e-9)
		require.NotNil(t, loc.Longitude)
		assert.InDelta(t, -74.0, *loc.Longitude, 1e-9)
		assert.Equal(t, "OPEN", loc.OpenState)
	})

	t.Run("legacy generation", func(t *testing.T) {
		body := `{"locations":[{
			"name":"accounts/112022557985287772374/locations/11007263269570993027",
			"locationName":"Test Store",
			"primaryPhone":"+1 555-0100",
			"websiteUrl":"https://example.com",
			"primaryCategory":{"displayName":"Bakery"},
			"additionalCategories":[{"displayName":"Cafe"}]
		}]}`

		locations, err := normalizeLocations(genLegacy, "accounts/112022557985287772374", []byte(body))
		require.NoError(t, err)
		require.Len(t, locations, 1)
		loc := locations[0]
		assert.Equal(t, "Test Store", loc.DisplayName)
		assert.Equal(t, "+1 555-0100", loc.Phone)
		assert.Equal(t, "https://example.com", loc.WebsiteURL)
		assert.Equal(t, "Bakery", loc.PrimaryCategory)
		assert.Equal(t, []string{"Cafe"}, loc.Categories)
		assert.Nil(t, loc.Latitude)
	})

	t.Run("empty envelope", func(t *testing.T) {
		locations, err := normalizeLocations(genBusinessInformation, "accounts/1", []byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, locations)
		assert.NotNil(t, locations)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := normalizeLocations(genBusinessInformation, "accounts/1", []byte(`not json`))
		assert.Equal(t, model.KindMalformedResponse, model.KindOf(err))
	})
}

func TestNormalizeReviews(t *testing.T) {
	t.Run("legacy word ratings", func(t *testing.T) {
		body := `{"reviews":[
			{"reviewId":"r1","reviewer":{"displayName":"Ana","profilePhotoUrl":"https://example.com/a.jpg"},"starRating":"FIVE","comment":"great","createTime":"2026-08-01T10:00:00Z","updateTime":"2026-08-02T10:00:00Z"},
			{"name":"accounts/1/locations/2/reviews/r2","reviewer":{"displayName":"Bo"},"starRating":3,"comment":""}
		]}`

		reviews, err := normalizeReviews("accounts/1/locations/2", []byte(body))
		require.NoError(t, err)
		require.Len(t, reviews, 2)

		assert.Equal(t, "r1", reviews[0].ReviewID)
		assert.Equal(t, "accounts/1/locations/2", reviews[0].LocationName)
		assert.Equal(t, "Ana", reviews[0].Reviewer)
		assert.Equal(t, "https://example.com/a.jpg", reviews[0].ReviewerPhotoURL)
		assert.Equal(t, 5, reviews[0].StarRating)
		assert.Equal(t, "great", reviews[0].Comment)
		assert.Equal(t, time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC), reviews[0].UpdatedAt)

		// Falls back to the resource name when no reviewId is present.
		assert.Equal(t, "accounts/1/locations/2/reviews/r2", reviews[1].ReviewID)
		assert.Equal(t, 3, reviews[1].StarRating)
	})

	t.Run("empty envelope", func(t *testing.T) {
		reviews, err := normalizeReviews("accounts/1/locations/2", []byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, reviews)
		assert.NotNil(t, reviews)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := normalizeReviews("accounts/1/locations/2", []byte(`[`))
		assert.Equal(t, model.KindMalformedResponse, model.KindOf(err))
	})
}

func TestNormalizePost(t *testing.T) {
	body := `{
		"name":"accounts/1/locations/2/localPosts/p1",
		"topicType":"STANDARD",
		"summary":"Fresh bread daily",
		"state":"LIVE",
		"callToAction":{"actionType":"LEARN_MORE","url":"https://example.com/bread"},
		"createTime":"2026-08-20T09:00:00Z"
	}`

	post, err := normalizePost("accounts/1/locations/2", []byte(body))
	require.NoError(t, err)
	assert.Equal(t, "accounts/1/locations/2/localPosts/p1", post.Name)
	assert.Equal(t, "accounts/1/locations/2", post.LocationName)
	assert.Equal(t, "STANDARD", post.TopicType)
	assert.Equal(t, "Fresh bread daily", post.Summary)
	assert.Equal(t, "LIVE", post.State)
	require.NotNil(t, post.CallToAction)
	assert.Equal(t, "LEARN_MORE", post.CallToAction.ActionType)
	assert.Equal(t, "https://example.com/bread", post.CallToAction.URL)
}

func TestNormalizeInsights(t *testing.T) {
	t.Run("dated values with absent value", func(t *testing.T) {
		body := `{"multiDailyMetricTimeSeries":[{"dailyMetricTimeSeries":[
			{"dailyMetric":"CALL_CLICKS","timeSeries":{"datedValues":[
				{"date":{"year":2026,"month":8,"day":1},"value":"12"},
				{"date":{"year":2026,"month":8,"day":2}}
			]}}
		]}]}`

		series, err := normalizeInsights("locations/2", []byte(body))
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, "CALL_CLICKS", series[0].Metric)
		assert.Equal(t, "locations/2", series[0].LocationName)
		require.Len(t, series[0].Points, 2)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), series[0].Points[0].Date)
		assert.Equal(t, int64(12), series[0].Points[0].Value)
		assert.Equal(t, int64(0), series[0].Points[1].Value)
	})

	t.Run("empty envelope", func(t *testing.T) {
		series, err := normalizeInsights("locations/2", []byte(`{}`))
		require.NoError(t, err)
		assert.Empty(t, series)
		assert.NotNil(t, series)
	})
}

func TestDenormalizeLocation(t *testing.T) {
	loc := model.Location{
		DisplayName: "Test Store",
		StoreCode:   "TS-1",
		Phone:       "+1 555-0100",
		WebsiteURL:  "https://example.com",
	}

	v := denormalizeLocation(loc)
	assert.Equal(t, "Test Store", v.Title)
	assert.Equal(t, "TS-1", v.StoreCode)
	assert.Equal(t, "https://example.com", v.WebsiteURI)
	require.NotNil(t, v.PhoneNumbers)
	assert.Equal(t, "+1 555-0100", v.PhoneNumbers.PrimaryPhone)

	v = denormalizeLocation(model.Location{DisplayName: "No Phone"})
	assert.Nil(t, v.PhoneNumbers)
}
