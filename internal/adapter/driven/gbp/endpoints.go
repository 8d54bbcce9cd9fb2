package gbp

import (
	"net/http"
	"net/url"
)

// generation identifies one of the vendor's API families. The same business
// concepts exist under several generations that are inconsistently available
// per account and region.
type generation string

const (
	genAccountManagement   generation = "account-management"
	genBusinessInformation generation = "business-information"
	genPerformance         generation = "performance"
	genLegacy              generation = "legacy-v4"
)

// defaultHosts maps each generation to its production host. Tests override
// these per client.
var defaultHosts = map[generation]string{
	genAccountManagement:   "https://mybusinessaccountmanagement.googleapis.com",
	genBusinessInformation: "https://mybusinessbusinessinformation.googleapis.com",
	genPerformance:         "https://businessprofileperformance.googleapis.com",
	genLegacy:              "https://mybusiness.googleapis.com",
}

// operation names a logical client operation. It keys the endpoint catalog
// and appears in logs, metrics, and classified errors.
type operation string

const (
	opListAccounts    operation = "list-accounts"
	opCheckConnection operation = "check-connection"
	opListLocations   operation = "list-locations"
	opGetLocation     operation = "get-location"
	opUpdateLocation  operation = "update-location"
	opCreateLocation  operation = "create-location"
	opListReviews     operation = "list-reviews"
	opReplyReview     operation = "reply-review"
	opCreatePost      operation = "create-post"
	opFetchInsights   operation = "fetch-insights"
)

// candidate is one concrete request template for an operation. path may
// contain {account}, {location}, {name} and {review} placeholders filled from
// the request params. query holds the generation-specific static query shape;
// per-call query values are merged over it.
type candidate struct {
	gen    generation
	method string
	path   string
	query  url.Values
}

// locationReadMask selects the fields the current-generation location surface
// must be asked for explicitly.
const locationReadMask = "name,title,storeCode,phoneNumbers,websiteUri,categories,latlng,openInfo"

// catalog maps each operation to its ordered candidate templates, most
// preferred first. Adding a vendor API generation is a row change here, not a
// code change in the executor.
var catalog = map[operation][]candidate{
	// The primary accounts path uses the single canonical management host.
	opListAccounts: {
		{gen: genAccountManagement, method: http.MethodGet, path: "/v1/accounts"},
	},
	// The diagnostic connection check walks every known accounts surface.
	opCheckConnection: {
		{gen: genAccountManagement, method: http.MethodGet, path: "/v1/accounts"},
		{gen: genPerformance, method: http.MethodGet, path: "/v1/accounts"},
		{gen: genLegacy, method: http.MethodGet, path: "/v4/accounts"},
	},
	opListLocations: {
		{gen: genBusinessInformation, method: http.MethodGet, path: "/v1/{account}/locations",
			query: url.Values{"readMask": {locationReadMask}}},
		{gen: genLegacy, method: http.MethodGet, path: "/v4/{account}/locations"},
	},
	opGetLocation: {
		{gen: genBusinessInformation, method: http.MethodGet, path: "/v1/{name}",
			query: url.Values{"readMask": {locationReadMask}}},
	},
	opUpdateLocation: {
		{gen: genBusinessInformation, method: http.MethodPatch, path: "/v1/{name}"},
	},
	opCreateLocation: {
		{gen: genBusinessInformation, method: http.MethodPost, path: "/v1/{account}/locations"},
	},
	// Reviews exist on the legacy host only; no current-generation equivalent
	// is wired.
	opListReviews: {
		{gen: genLegacy, method: http.MethodGet, path: "/v4/{account}/{location}/reviews",
			query: url.Values{"orderBy": {"updateTime desc"}, "pageSize": {"50"}}},
	},
	opReplyReview: {
		{gen: genLegacy, method: http.MethodPut, path: "/v4/{account}/{location}/reviews/{review}:updateReply"},
	},
	opCreatePost: {
		{gen: genBusinessInformation, method: http.MethodPost, path: "/v1/{name}/localPosts"},
	},
	opFetchInsights: {
		{gen: genPerformance, method: http.MethodGet, path: "/v1/{location}:fetchMultiDailyMetricsTimeSeries"},
	},
}
