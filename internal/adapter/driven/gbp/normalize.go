package gbp

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/brandops/brandpanel/internal/domain/model"
)

// This file maps vendor payload shapes to the canonical domain records. The
// legacy and current API families name the same concepts differently
// ("locationName" vs "title", star ratings as words vs numbers), so every
// mapping is keyed by the generation that produced the payload. Missing
// optional fields default to absent; an empty results envelope is an empty
// collection, not an error. A payload that cannot be decoded at all is a
// malformed-response failure, surfaced rather than coerced to empty.

// malformed wraps a decode failure in the caller-facing taxonomy.
func malformed(op operation, err error) error {
	return &model.ClientError{
		Kind:      model.KindMalformedResponse,
		Operation: string(op),
		Message:   "undecodable vendor payload",
		Err:       err,
	}
}

// starWords is the legacy enumerated star-rating encoding.
var starWords = map[string]int{
	"ONE":   1,
	"TWO":   2,
	"THREE": 3,
	"FOUR":  4,
	"FIVE":  5,
}

// normalizeRating maps any observed star-rating encoding to an integer in
// 0..5. Enumerated words and in-range integers map losslessly; anything
// else, absent values included, normalizes to 0.
func normalizeRating(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var word string
	if err := json.Unmarshal(raw, &word); err == nil {
		return starWords[word]
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		n := int(num)
		if float64(n) == num && n >= 0 && n <= 5 {
			return n
		}
	}

	return 0
}

type accountJSON struct {
	Name              string `json:"name"`
	AccountName       string `json:"accountName"`
	Type              string `json:"type"`
	Role              string `json:"role"`
	VerificationState string `json:"verificationState"` // current generations
	State             struct {
		Status string `json:"status"`
	} `json:"state"` // legacy
}

type accountsEnvelope struct {
	Accounts []accountJSON `json:"accounts"`
}

func normalizeAccounts(gen generation, body []byte) ([]model.Account, error) {
	if len(body) == 0 {
		return []model.Account{}, nil
	}
	var env accountsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed(opListAccounts, err)
	}

	accounts := make([]model.Account, 0, len(env.Accounts))
	for _, a := range env.Accounts {
		verification := a.VerificationState
		if gen == genLegacy {
			verification = a.State.Status
		}
		accounts = append(accounts, model.Account{
			Name:              a.Name,
			DisplayName:       a.AccountName,
			Kind:              a.Type,
			Role:              a.Role,
			VerificationState: verification,
		})
	}
	return accounts, nil
}

type categoryJSON struct {
	DisplayName string `json:"displayName"`
}

type latlngJSON struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type locationJSON struct {
	Name      string `json:"name"`
	StoreCode string `json:"storeCode"`

	// Current generation.
	Title        string `json:"title"`
	PhoneNumbers struct {
		PrimaryPhone string `json:"primaryPhone"`
	} `json:"phoneNumbers"`
	WebsiteURI string `json:"websiteUri"`
	Categories struct {
		PrimaryCategory      *categoryJSON  `json:"primaryCategory"`
		AdditionalCategories []categoryJSON `json:"additionalCategories"`
	} `json:"categories"`

	// Legacy generation.
	LocationName         string         `json:"locationName"`
	PrimaryPhone         string         `json:"primaryPhone"`
	WebsiteURL           string         `json:"websiteUrl"`
	PrimaryCategory      *categoryJSON  `json:"primaryCategory"`
	AdditionalCategories []categoryJSON `json:"additionalCategories"`

	// Shared.
	Latlng   *latlngJSON `json:"latlng"`
	OpenInfo struct {
		Status string `json:"status"`
	} `json:"openInfo"`
}

type locationsEnvelope struct {
	Locations []locationJSON `json:"locations"`
}

func mapLocation(gen generation, accountName string, j locationJSON) model.Location {
	loc := model.Location{
		Name:        j.Name,
		AccountName: accountName,
		StoreCode:   j.StoreCode,
		OpenState:   j.OpenInfo.Status,
	}

	var primary *categoryJSON
	var additional []categoryJSON
	if gen == genLegacy {
		loc.DisplayName = j.LocationName
		loc.Phone = j.PrimaryPhone
		loc.WebsiteURL = j.WebsiteURL
		primary = j.PrimaryCategory
		additional = j.AdditionalCategories
	} else {
		loc.DisplayName = j.Title
		loc.Phone = j.PhoneNumbers.PrimaryPhone
		loc.WebsiteURL = j.WebsiteURI
		primary = j.Categories.PrimaryCategory
		additional = j.Categories.AdditionalCategories
	}

	if primary != nil {
		loc.PrimaryCategory = primary.DisplayName
	}
	for _, cat := range additional {
		loc.Categories = append(loc.Categories, cat.DisplayName)
	}

	if j.Latlng != nil {
		lat, lng := j.Latlng.Latitude, j.Latlng.Longitude
		loc.Latitude = &lat
		loc.Longitude = &lng
	}

	return loc
}

func normalizeLocations(gen generation, accountName string, body []byte) ([]model.Location, error) {
	if len(body) == 0 {
		return []model.Location{}, nil
	}
	var env locationsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed(opListLocations, err)
	}

	locations := make([]model.Location, 0, len(env.Locations))
	for _, j := range env.Locations {
		locations = append(locations, mapLocation(gen, accountName, j))
	}
	return locations, nil
}

func normalizeLocation(op operation, gen generation, accountName string, body []byte) (*model.Location, error) {
	var j locationJSON
	if err := json.Unmarshal(body, &j); err != nil {
		return nil, malformed(op, err)
	}
	loc := mapLocation(gen, accountName, j)
	return &loc, nil
}

type reviewJSON struct {
	ReviewID string `json:"reviewId"`
	Name     string `json:"name"`
	Reviewer struct {
		DisplayName     string `json:"displayName"`
		ProfilePhotoURL string `json:"profilePhotoUrl"`
	} `json:"reviewer"`
	StarRating json.RawMessage `json:"starRating"`
	Comment    string          `json:"comment"`
	CreateTime time.Time       `json:"createTime"`
	UpdateTime time.Time       `json:"updateTime"`
}

type reviewsEnvelope struct {
	Reviews []reviewJSON `json:"reviews"`
}

func normalizeReviews(locationName string, body []byte) ([]model.Review, error) {
	if len(body) == 0 {
		return []model.Review{}, nil
	}
	var env reviewsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed(opListReviews, err)
	}

	reviews := make([]model.Review, 0, len(env.Reviews))
	for _, j := range env.Reviews {
		id := j.ReviewID
		if id == "" {
			id = j.Name
		}
		reviews = append(reviews, model.Review{
			ReviewID:         id,
			LocationName:     locationName,
			Reviewer:         j.Reviewer.DisplayName,
			ReviewerPhotoURL: j.Reviewer.ProfilePhotoURL,
			StarRating:       normalizeRating(j.StarRating),
			Comment:          j.Comment,
			CreatedAt:        j.CreateTime,
			UpdatedAt:        j.UpdateTime,
		})
	}
	return reviews, nil
}

type postJSON struct {
	Name         string `json:"name"`
	TopicType    string `json:"topicType"`
	Summary      string `json:"summary"`
	State        string `json:"state"`
	CallToAction *struct {
		ActionType string `json:"actionType"`
		URL        string `json:"url"`
	} `json:"callToAction"`
	CreateTime time.Time `json:"createTime"`
}

func normalizePost(locationName string, body []byte) (*model.Post, error) {
	var j postJSON
	if err := json.Unmarshal(body, &j); err != nil {
		return nil, malformed(opCreatePost, err)
	}

	post := &model.Post{
		Name:         j.Name,
		LocationName: locationName,
		TopicType:    j.TopicType,
		Summary:      j.Summary,
		State:        j.State,
		CreatedAt:    j.CreateTime,
	}
	if j.CallToAction != nil {
		post.CallToAction = &model.CallToAction{
			ActionType: j.CallToAction.ActionType,
			URL:        j.CallToAction.URL,
		}
	}
	return post, nil
}

type insightsEnvelope struct {
	MultiDailyMetricTimeSeries []struct {
		DailyMetricTimeSeries []struct {
			DailyMetric string `json:"dailyMetric"`
			TimeSeries  struct {
				DatedValues []struct {
					Date struct {
						Year  int `json:"year"`
						Month int `json:"month"`
						Day   int `json:"day"`
					} `json:"date"`
					Value string `json:"value"`
				} `json:"datedValues"`
			} `json:"timeSeries"`
		} `json:"dailyMetricTimeSeries"`
	} `json:"multiDailyMetricTimeSeries"`
}

func normalizeInsights(locationName string, body []byte) ([]model.InsightSeries, error) {
	if len(body) == 0 {
		return []model.InsightSeries{}, nil
	}
	var env insightsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed(opFetchInsights, err)
	}

	var series []model.InsightSeries
	for _, group := range env.MultiDailyMetricTimeSeries {
		for _, ts := range group.DailyMetricTimeSeries {
			s := model.InsightSeries{
				LocationName: locationName,
				Metric:       ts.DailyMetric,
			}
			for _, dv := range ts.TimeSeries.DatedValues {
				// Days without activity arrive with an absent value; they count
				// as zero rather than a gap in the series.
				value, _ := strconv.ParseInt(dv.Value, 10, 64)
				s.Points = append(s.Points, model.DailyValue{
					Date:  time.Date(dv.Date.Year, time.Month(dv.Date.Month), dv.Date.Day, 0, 0, 0, 0, time.UTC),
					Value: value,
				})
			}
			series = append(series, s)
		}
	}
	if series == nil {
		series = []model.InsightSeries{}
	}
	return series, nil
}

// vendorLocation is the current-generation write shape for create and patch.
type vendorLocation struct {
	Title        string `json:"title,omitempty"`
	StoreCode    string `json:"storeCode,omitempty"`
	PhoneNumbers *struct {
		PrimaryPhone string `json:"primaryPhone"`
	} `json:"phoneNumbers,omitempty"`
	WebsiteURI string `json:"websiteUri,omitempty"`
}

// denormalizeLocation converts a canonical Location into the vendor write
// shape. Only writable fields are carried.
func denormalizeLocation(loc model.Location) vendorLocation {
	v := vendorLocation{
		Title:      loc.DisplayName,
		StoreCode:  loc.StoreCode,
		WebsiteURI: loc.WebsiteURL,
	}
	if loc.Phone != "" {
		v.PhoneNumbers = &struct {
			PrimaryPhone string `json:"primaryPhone"`
		}{PrimaryPhone: loc.Phone}
	}
	return v
}

// updateMaskFields maps canonical field names to the vendor's update-mask
// vocabulary, keeping vendor names out of call sites.
var updateMaskFields = map[string]string{
	"displayName": "title",
	"phone":       "phoneNumbers",
	"websiteUrl":  "websiteUri",
	"storeCode":   "storeCode",
}
