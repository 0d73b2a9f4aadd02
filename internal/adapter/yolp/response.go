package yolp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/rain-alert/internal/domain"
)

// YOLP API response types. Pointers mark the parts whose absence makes a
// response malformed.

type response struct {
	ResultInfo *resultInfo `json:"ResultInfo,omitempty"`
	Feature    []feature   `json:"Feature"`
}

type resultInfo struct {
	Count  int `json:"Count"`
	Total  int `json:"Total"`
	Status int `json:"Status"`
}

type feature struct {
	ID       string    `json:"Id"`
	Name     string    `json:"Name"`
	Geometry *geometry `json:"Geometry,omitempty"`
	Property *property `json:"Property"`
}

type geometry struct {
	Type        string `json:"Type"`
	Coordinates string `json:"Coordinates"`
}

type property struct {
	WeatherAreaCode int          `json:"WeatherAreaCode"`
	WeatherList     *weatherList `json:"WeatherList"`
}

type weatherList struct {
	Weather []weather `json:"Weather"`
}

// Rainfall arrives as a JSON number or a numeric string; json.Number accepts
// both and rejects anything else.
type weather struct {
	Type     string      `json:"Type"`
	Date     string      `json:"Date"`
	Rainfall json.Number `json:"Rainfall"`
}

// ParseResponse decodes a YOLP weather response body. Sample dates are read in
// loc. The returned Forecast always carries body as Raw, even on error.
func ParseResponse(body []byte, loc *time.Location) (domain.Forecast, error) {
	forecast := domain.Forecast{Raw: body}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return forecast, &domain.MalformedForecastError{Reason: "decode response", Err: err}
	}

	if resp.ResultInfo != nil && resp.ResultInfo.Status != 0 && resp.ResultInfo.Status != http.StatusOK {
		return forecast, &domain.ProviderError{StatusCode: resp.ResultInfo.Status, Body: string(body)}
	}

	if len(resp.Feature) == 0 {
		return forecast, &domain.MalformedForecastError{Reason: "no Feature in response"}
	}
	prop := resp.Feature[0].Property
	if prop == nil || prop.WeatherList == nil || prop.WeatherList.Weather == nil {
		return forecast, &domain.MalformedForecastError{Reason: "missing Feature[0].Property.WeatherList.Weather"}
	}

	entries := make([]domain.ForecastEntry, 0, len(prop.WeatherList.Weather))
	for i, w := range prop.WeatherList.Weather {
		t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(w.Date), loc)
		if err != nil {
			return forecast, &domain.MalformedForecastError{Reason: fmt.Sprintf("Weather[%d].Date %q", i, w.Date), Err: err}
		}
		if w.Rainfall == "" {
			return forecast, &domain.MalformedForecastError{Reason: fmt.Sprintf("Weather[%d].Rainfall missing", i)}
		}
		rainfall, err := decimal.NewFromString(w.Rainfall.String())
		if err != nil {
			return forecast, &domain.MalformedForecastError{Reason: fmt.Sprintf("Weather[%d].Rainfall %q", i, w.Rainfall), Err: err}
		}
		entries = append(entries, domain.ForecastEntry{
			Time:     t,
			Rainfall: rainfall,
			Kind:     w.Type,
		})
	}

	forecast.Entries = entries
	return forecast, nil
}
