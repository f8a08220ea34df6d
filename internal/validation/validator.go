// Package validation checks metadata provider payloads against the list and
// item shapes the catalog expects before anything downstream trusts them.
//
// Payloads are decoded generically first so that type mismatches become
// issues instead of decode failures, then the extracted shape is checked with
// go-playground/validator. Unknown fields are kept on the item's Extra map.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"marquee/internal/models"
)

// MaxIssues bounds the diagnostics carried by a PayloadError.
const MaxIssues = 3

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// PayloadError is returned when a payload does not have the expected shape.
type PayloadError struct {
	Issues []Issue
}

func (e *PayloadError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid payload"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

// IsPayloadError reports whether err is a shape failure.
func IsPayloadError(err error) bool {
	var pe *PayloadError
	return errors.As(err, &pe)
}

type issues []Issue

func (is *issues) add(path, format string, args ...any) {
	*is = append(*is, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (is issues) has(path string) bool {
	for _, i := range is {
		if i.Path == path {
			return true
		}
	}
	return false
}

func (is issues) err() error {
	if len(is) == 0 {
		return nil
	}
	if len(is) > MaxIssues {
		is = is[:MaxIssues]
	}
	return &PayloadError{Issues: is}
}

// RawList is a list envelope whose items have not been checked yet.
type RawList struct {
	Page         int
	TotalPages   int
	TotalResults int
	Results      []json.RawMessage
}

type envelopeShape struct {
	Page         *int64 `validate:"required,gte=0"`
	TotalPages   *int64 `validate:"required,gte=0"`
	TotalResults *int64 `validate:"required,gte=0"`
	Results      []any  `validate:"required"`
}

type itemShape struct {
	ID           *int64  `validate:"required"`
	Title        *string `validate:"required_without=AltTitle"`
	AltTitle     *string `validate:"required_without=Title"`
	PosterPath   *string `validate:"omitempty"`
	BackdropPath *string `validate:"omitempty"`
}

var shapeFieldPaths = map[string]string{
	"Page":         models.FieldPage,
	"TotalPages":   models.FieldTotalPages,
	"TotalResults": models.FieldTotalResults,
	"Results":      models.FieldResults,
	"ID":           models.FieldID,
	"Title":        "title/name",
	"AltTitle":     "title/name",
}

var knownItemFields = map[string]bool{
	models.FieldID: true, models.FieldTitle: true, models.FieldName: true,
	models.FieldReleaseDate: true, models.FieldFirstAirDate: true,
	models.FieldOverview: true, models.FieldPosterPath: true, models.FieldBackdropPath: true,
	models.FieldVoteAverage: true, models.FieldPopularity: true, models.FieldGenreIDs: true,
}

// DecodeList checks the envelope fields only. Items are returned raw so that
// callers can decide whether one bad item spoils the page.
func DecodeList(raw []byte) (*RawList, error) {
	var probs issues

	obj, err := decodeObject(raw)
	if err != nil {
		probs.add("$", "body is not a JSON object")
		return nil, probs.err()
	}

	shape := envelopeShape{
		Page:         intField(obj, models.FieldPage, "", &probs),
		TotalPages:   intField(obj, models.FieldTotalPages, "", &probs),
		TotalResults: intField(obj, models.FieldTotalResults, "", &probs),
	}
	if v, ok := obj[models.FieldResults]; ok && v != nil {
		if arr, isArr := v.([]any); isArr {
			shape.Results = arr
		} else {
			probs.add(models.FieldResults, "expected array, got %s", typeName(v))
		}
	}
	collectStructErrors(get().Struct(shape), "", &probs)
	if err := probs.err(); err != nil {
		return nil, err
	}

	if len(shape.Results) > int(*shape.TotalResults) {
		probs.add(models.FieldTotalResults, "is %d but page carries %d results", *shape.TotalResults, len(shape.Results))
		return nil, probs.err()
	}

	// Re-split results so each item keeps its exact bytes.
	var split struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &split); err != nil {
		probs.add(models.FieldResults, "unreadable: %v", err)
		return nil, probs.err()
	}

	return &RawList{
		Page:         int(*shape.Page),
		TotalPages:   int(*shape.TotalPages),
		TotalResults: int(*shape.TotalResults),
		Results:      split.Results,
	}, nil
}

// DecodeItem checks one result and normalizes it for media type m.
func DecodeItem(raw json.RawMessage, m models.MediaType) (models.CatalogItem, error) {
	var probs issues
	item, ok := decodeItem(raw, m, "", &probs)
	if !ok {
		return models.CatalogItem{}, probs.err()
	}
	return item, nil
}

// ValidateList accepts a payload only if the envelope and every item are well
// formed. Items are tagged with m.
func ValidateList(raw []byte, m models.MediaType) (*models.ListEnvelope, error) {
	list, err := DecodeList(raw)
	if err != nil {
		return nil, err
	}

	var probs issues
	items := make([]models.CatalogItem, 0, len(list.Results))
	for i, r := range list.Results {
		item, ok := decodeItem(r, m, fmt.Sprintf("results[%d].", i), &probs)
		if ok {
			items = append(items, item)
		}
		if len(probs) >= MaxIssues {
			break
		}
	}
	if err := probs.err(); err != nil {
		return nil, err
	}

	return &models.ListEnvelope{
		Page:         list.Page,
		Results:      items,
		TotalPages:   list.TotalPages,
		TotalResults: list.TotalResults,
	}, nil
}

func decodeItem(raw json.RawMessage, m models.MediaType, prefix string, probs *issues) (models.CatalogItem, bool) {
	before := len(*probs)

	obj, err := decodeObject(raw)
	if err != nil {
		probs.add(strings.TrimSuffix(prefix, "."), "item is not a JSON object")
		return models.CatalogItem{}, false
	}

	titleKey, altTitleKey := models.TitleFields(m)
	shape := itemShape{
		ID:           intField(obj, models.FieldID, prefix, probs),
		Title:        stringField(obj, titleKey, prefix, probs),
		AltTitle:     stringField(obj, altTitleKey, prefix, probs),
		PosterPath:   stringField(obj, models.FieldPosterPath, prefix, probs),
		BackdropPath: stringField(obj, models.FieldBackdropPath, prefix, probs),
	}
	collectStructErrors(get().Struct(shape), prefix, probs)
	if len(*probs) > before {
		return models.CatalogItem{}, false
	}

	dateKey, altDateKey := models.DateFields(m)
	item := models.CatalogItem{
		ID:           *shape.ID,
		MediaType:    m,
		Title:        firstNonEmpty(shape.Title, shape.AltTitle),
		Overview:     optionalString(obj, models.FieldOverview),
		PosterPath:   shape.PosterPath,
		BackdropPath: shape.BackdropPath,
		ReleaseDate:  optionalString(obj, dateKey),
		VoteAverage:  floatField(obj, models.FieldVoteAverage),
		Popularity:   floatField(obj, models.FieldPopularity),
		GenreIDs:     genreField(obj),
		Visible:      true,
	}
	if item.ReleaseDate == nil {
		item.ReleaseDate = optionalString(obj, altDateKey)
	}

	for k, v := range obj {
		if knownItemFields[k] {
			continue
		}
		if item.Extra == nil {
			item.Extra = make(map[string]any)
		}
		item.Extra[k] = v
	}

	return item, true
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("null")
	}
	return obj, nil
}

func intField(obj map[string]any, key, prefix string, probs *issues) *int64 {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	n, isNum := v.(json.Number)
	if !isNum {
		probs.add(prefix+key, "expected integer, got %s", typeName(v))
		return nil
	}
	i, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			probs.add(prefix+key, "expected integer, got %s", n.String())
			return nil
		}
		i = int64(f)
	}
	return &i
}

func stringField(obj map[string]any, key, prefix string, probs *issues) *string {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	s, isStr := v.(string)
	if !isStr {
		probs.add(prefix+key, "expected string or null, got %s", typeName(v))
		return nil
	}
	return &s
}

func optionalString(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func floatField(obj map[string]any, key string) float64 {
	n, ok := obj[key].(json.Number)
	if !ok {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

// genreField keeps only non-negative integer ids; anything else is dropped.
func genreField(obj map[string]any) []int {
	out := []int{}
	arr, ok := obj[models.FieldGenreIDs].([]any)
	if !ok {
		return out
	}
	for _, v := range arr {
		n, isNum := v.(json.Number)
		if !isNum {
			continue
		}
		id, err := n.Int64()
		if err != nil || id < 0 {
			continue
		}
		out = append(out, int(id))
	}
	return out
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return *v
		}
	}
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

func collectStructErrors(err error, prefix string, probs *issues) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		probs.add(strings.TrimSuffix(prefix, "."), "%v", err)
		return
	}
	for _, fe := range verrs {
		path := shapeFieldPaths[fe.StructField()]
		if path == "" {
			path = fe.StructField()
		}
		// A type mismatch already reported for this field explains the
		// missing value.
		if probs.has(prefix + path) {
			continue
		}
		probs.add(prefix+path, "%s", tagMessage(fe))
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "title or name is required"
	case "gte":
		return "must be >= " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
