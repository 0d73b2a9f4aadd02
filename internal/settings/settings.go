// Package settings loads and validates the per-user alert settings file.
//
// The file is INI (or YAML with the same section/key layout) with three
// sections:
//
//	[yolp]
//	appid        = <YOLP application id>
//	coordinates  = 139.732293,35.663613
//	; optional
//	download_dir = /var/lib/iwrs/responses
//
//	[weather]
//	; 0..60
//	after_minutes      = 10
//	; mm/h, >= 0
//	rainfall_threshold = 0.5
//
//	[audio]
//	; or audio_file = /path/to/alert.wav
//	message = 雨が降りそうです
//	; optional, default 1
//	repeat  = 3
//
// Comments must sit on their own line; "#" and ";" after a value are part of
// the value.
//
// Every rule lives in the schema struct tags below and is checked in a single
// pass; all violations are reported together, in schema order.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/rain-alert/internal/domain"
)

const defaultRepeat = 1

// Settings is a fully validated alert configuration.
type Settings struct {
	AppID             string
	Coordinates       string // "longitude,latitude"
	DownloadDir       string // empty disables response archiving
	AfterMinutes      int
	RainfallThreshold float64
	Message           string
	AudioFile         string
	Repeat            int
}

// Sound returns what the alert should play.
func (s Settings) Sound() domain.Sound {
	return domain.Sound{Text: s.Message, File: s.AudioFile}
}

// LogValue keeps the application id out of logs.
func (s Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("appid", "[REDACTED]"),
		slog.String("coordinates", s.Coordinates),
		slog.String("download_dir", s.DownloadDir),
		slog.Int("after_minutes", s.AfterMinutes),
		slog.Float64("rainfall_threshold", s.RainfallThreshold),
		slog.Bool("speech", s.Message != ""),
		slog.Int("repeat", s.Repeat),
	)
}

// schema declares every settings field: its file key and its rules.
// Numeric fields are pointers so that "absent" and "zero" stay distinct.
type schema struct {
	AppID             string   `key:"yolp.appid" validate:"required"`
	Coordinates       string   `key:"yolp.coordinates" validate:"required,coordinates"`
	DownloadDir       string   `key:"yolp.download_dir" validate:"omitempty,writable_dir"`
	AfterMinutes      *int     `key:"weather.after_minutes" validate:"required,min=0,max=60"`
	RainfallThreshold *float64 `key:"weather.rainfall_threshold" validate:"required,min=0"`
	Message           string   `key:"audio.message" validate:"required_without=AudioFile,excluded_with=AudioFile"`
	AudioFile         string   `key:"audio.audio_file" validate:"omitempty,file"`
	Repeat            *int     `key:"audio.repeat" validate:"omitempty,min=0"`
}

// Load reads the settings file at path and validates it.
//
// It returns a *domain.NotFoundError when path does not exist and a
// *domain.ValidationError when the file cannot be parsed or any field is
// missing, unparsable, or out of range.
func Load(path string) (Settings, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, &domain.NotFoundError{Path: path}
		}
		return Settings{}, fmt.Errorf("stat settings file: %w", err)
	}

	values, err := readValues(path)
	if err != nil {
		return Settings{}, &domain.ValidationError{Violations: []domain.Violation{{
			Field:   filepath.Base(path),
			Message: "cannot be parsed: " + err.Error(),
		}}}
	}
	return fromValues(values)
}

// readValues flattens the file into "section.key" -> raw string.
func readValues(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return readYAML(path)
	default:
		return readINI(path)
	}
}

func readINI(path string) (map[string]string, error) {
	f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true, IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string)
	for _, sec := range f.Sections() {
		for _, k := range sec.Keys() {
			values[sec.Name()+"."+k.Name()] = k.String()
		}
	}
	return values, nil
}

func readYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	values := make(map[string]string)
	for section, keys := range doc {
		for k, v := range keys {
			if v == nil {
				continue
			}
			values[strings.ToLower(section)+"."+strings.ToLower(k)] = fmt.Sprint(v)
		}
	}
	return values, nil
}

// fromValues populates the schema from raw values, validates it, and
// converts it to Settings.
func fromValues(values map[string]string) (Settings, error) {
	var raw schema
	rv := reflect.ValueOf(&raw).Elem()
	rt := rv.Type()

	// One violation per field at most, indexed by schema position.
	violations := make([]*domain.Violation, rt.NumField())

	for i := range rt.NumField() {
		key := rt.Field(i).Tag.Get("key")
		s := strings.TrimSpace(values[key])
		if s == "" {
			continue
		}
		if msg := assign(rv.Field(i), s); msg != "" {
			violations[i] = &domain.Violation{Field: key, Message: msg}
		}
	}

	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Settings{}, fmt.Errorf("validate settings: %w", err)
		}
		for _, fe := range verrs {
			f, ok := rt.FieldByName(fe.StructField())
			if !ok || violations[f.Index[0]] != nil {
				continue
			}
			violations[f.Index[0]] = &domain.Violation{Field: fe.Field(), Message: describe(fe)}
		}
	}

	var out []domain.Violation
	for _, v := range violations {
		if v != nil {
			out = append(out, *v)
		}
	}
	if len(out) > 0 {
		return Settings{}, &domain.ValidationError{Violations: out}
	}

	repeat := defaultRepeat
	if raw.Repeat != nil {
		repeat = *raw.Repeat
	}
	return Settings{
		AppID:             raw.AppID,
		Coordinates:       raw.Coordinates,
		DownloadDir:       raw.DownloadDir,
		AfterMinutes:      *raw.AfterMinutes,
		RainfallThreshold: *raw.RainfallThreshold,
		Message:           raw.Message,
		AudioFile:         raw.AudioFile,
		Repeat:            repeat,
	}, nil
}

// assign parses s into the schema field v. It returns a violation message
// when s does not parse.
func assign(v reflect.Value, s string) string {
	switch v.Interface().(type) {
	case string:
		v.SetString(s)
	case *int:
		n, err := strconv.Atoi(s)
		if err != nil {
			return "must be an integer"
		}
		v.Set(reflect.ValueOf(&n))
	case *float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "must be a number"
		}
		v.Set(reflect.ValueOf(&f))
	}
	return ""
}
