// Package domain models short-term precipitation forecasts and the rain
// alert decision made from them.
//
// # Data Source
//
// Forecasts come from the Yahoo! Open Local Platform (YOLP) weather API,
// https://developer.yahoo.co.jp/webapi/map/openlocalplatform/v1/weather.html.
// One request returns a single feature for the requested coordinates with a
// list of precipitation samples:
//
//	Feature[0].Property.WeatherList.Weather[]
//	  {"Type": "observation", "Date": "202604261510", "Rainfall": 0.00}
//	  {"Type": "forecast",    "Date": "202604261520", "Rainfall": 1.25}
//
// With past=0 and interval=10 the list starts at the current observation and
// continues in 10-minute steps for roughly one hour.
//
// # YOLP Data Conventions
//
// Coordinates:
//
//	"<longitude>,<latitude>" in decimal degrees, e.g. "139.732293,35.663613".
//	Longitude comes first.
//
// Time format:
//
//	YYYYMMDDHHMM in the provider's local time (JST, Asia/Tokyo), e.g.
//	"202604261510" = 2026-04-26 15:10 JST. Seconds are never present.
//
// Rainfall:
//
//	Precipitation intensity in mm/h. Documented as a decimal string but
//	delivered as a JSON number; both are accepted. Values are kept as
//	decimals so that a forecast exactly at the configured threshold compares
//	equal instead of drifting through float rounding.
//
// # Alert Decision
//
// [Evaluate] looks at the first sample at or after now+afterMinutes and
// reports rain when its intensity is >= the threshold. Samples later than
// that one are ignored, and nothing is interpolated: the provider's 10-minute
// granularity is the resolution of the alert.
package domain
