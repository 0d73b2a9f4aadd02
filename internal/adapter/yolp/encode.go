package yolp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/rain-alert/internal/domain"
)

// BuildResponse renders entries as a YOLP weather response for coordinates,
// the inverse of ParseResponse. Dates are written in loc. The first entry is
// typed "observation" unless it already carries a Kind.
func BuildResponse(coordinates string, entries []domain.ForecastEntry, loc *time.Location) ([]byte, error) {
	weathers := make([]weather, len(entries))
	for i, e := range entries {
		kind := e.Kind
		if kind == "" {
			kind = "forecast"
			if i == 0 {
				kind = "observation"
			}
		}
		weathers[i] = weather{
			Type:     kind,
			Date:     e.Time.In(loc).Format(DateLayout),
			Rainfall: json.Number(e.Rainfall.String()),
		}
	}

	var id, name string
	if len(entries) > 0 {
		first := entries[0].Time.In(loc)
		id = first.Format(DateLayout) + "_" + strings.ReplaceAll(coordinates, ",", "_")
		name = fmt.Sprintf("地点(%s)の%sから%d分間の天気情報", coordinates, first.Format("2006年01月02日 15時04分"), 10*(len(entries)-1))
	}

	resp := response{
		ResultInfo: &resultInfo{Count: 1, Total: 1, Status: http.StatusOK},
		Feature: []feature{{
			ID:       id,
			Name:     name,
			Geometry: &geometry{Type: "point", Coordinates: coordinates},
			Property: &property{WeatherList: &weatherList{Weather: weathers}},
		}},
	}
	return json.MarshalIndent(resp, "", "    ")
}
