package mlclient

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	maxHairstyles = 3
)

type FaceMetrics struct {
	FaceLength    *float64 `json:"face_length"`
	FaceWidth     *float64 `json:"face_width"`
	ForeheadWidth *float64 `json:"forehead_width"`
	JawWidth      *float64 `json:"jaw_width"`
	ChinLength    *float64 `json:"chin_length"`
}

type FaceAnalysis struct {
	FaceShape   *string      `json:"face_shape"`
	SkinTone    *string      `json:"skin_tone"`
	FaceMetrics *FaceMetrics `json:"face_metrics"`
	Status      string       `json:"status"`
	Error       string       `json:"error,omitempty"`
}

type Hairstyle struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	ImageURL          string   `json:"image_url"`
	Description       *string  `json:"description"`
	ConfidenceScore   *float64 `json:"confidence_score"`
	SuitabilityReason *string  `json:"suitability_reason"`
}

type StyleRecommendations struct {
	BestHairstyles []Hairstyle `json:"best_hairstyles"`
	Status         string      `json:"status"`
	Error          string      `json:"error,omitempty"`
}

type PersonalizedInsights struct {
	BestStyles  []string `json:"best_styles"`
	AvoidStyles []string `json:"avoid_styles"`
	Tips        []string `json:"tips"`
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`
}

// Image is a decoded "after" image returned by the ML service.
type Image struct {
	Data []byte
	Ext  string
}

// Result is the ML response mapped into the local schema.
type Result struct {
	VendorStatus         string
	FaceAnalysis         FaceAnalysis
	StyleRecommendations StyleRecommendations
	PersonalizedInsights PersonalizedInsights
	AfterImage           *Image
	Raw                  json.RawMessage
}

// Pending returns the three sub-results as they look before the ML call.
func Pending() (FaceAnalysis, StyleRecommendations, PersonalizedInsights) {
	return FaceAnalysis{Status: StatusPending},
		StyleRecommendations{BestHairstyles: []Hairstyle{}, Status: StatusPending},
		PersonalizedInsights{BestStyles: []string{}, AvoidStyles: []string{}, Tips: []string{}, Status: StatusPending}
}

// Failed returns the three sub-results marked failed with reason.
func Failed(reason string) (FaceAnalysis, StyleRecommendations, PersonalizedInsights) {
	return FaceAnalysis{Status: StatusFailed, Error: reason},
		StyleRecommendations{BestHairstyles: []Hairstyle{}, Status: StatusFailed, Error: reason},
		PersonalizedInsights{BestStyles: []string{}, AvoidStyles: []string{}, Tips: []string{}, Status: StatusFailed, Error: reason}
}

// MapResponse translates the vendor JSON into a Result. Missing fields map to
// nil or empty values; nothing here fails.
func MapResponse(body []byte) *Result {
	doc := gjson.ParseBytes(body)

	vendorStatus := doc.Get("status").String()
	status := StatusFailed
	if vendorStatus == "success" {
		status = StatusCompleted
	}

	res := &Result{
		VendorStatus: vendorStatus,
		Raw:          json.RawMessage(append([]byte(nil), body...)),
		FaceAnalysis: FaceAnalysis{
			FaceShape: optString(doc.Get("face_shape")),
			SkinTone:  optString(doc.Get("skin.tone")),
			Status:    status,
		},
		StyleRecommendations: StyleRecommendations{
			BestHairstyles: mapHairstyles(doc.Get("recommendations.hairstyle_recommendations")),
			Status:         status,
		},
		PersonalizedInsights: PersonalizedInsights{
			BestStyles:  stringList(doc.Get("recommendations.best_styles")),
			AvoidStyles: stringList(doc.Get("recommendations.avoid_styles")),
			Tips:        stringList(doc.Get("recommendations.notes")),
			Status:      status,
		},
	}

	if m := doc.Get("features.metrics"); m.IsObject() {
		res.FaceAnalysis.FaceMetrics = &FaceMetrics{
			FaceLength:    optFloat(m.Get("face_length")),
			FaceWidth:     optFloat(m.Get("face_width")),
			ForeheadWidth: optFloat(m.Get("forehead_width")),
			JawWidth:      optFloat(m.Get("jaw_width")),
			ChinLength:    optFloat(m.Get("chin_length")),
		}
	}

	if after := doc.Get("after_image_url"); after.Type == gjson.String && after.String() != "" {
		data, ext, err := DecodeImage(after.String())
		if err != nil {
			slog.Warn("failed to decode after image", "error", err)
		} else {
			res.AfterImage = &Image{Data: data, Ext: ext}
		}
	}

	return res
}

func mapHairstyles(list gjson.Result) []Hairstyle {
	out := make([]Hairstyle, 0, maxHairstyles)
	if !list.IsArray() {
		return out
	}
	list.ForEach(func(_, item gjson.Result) bool {
		h := Hairstyle{ID: len(out) + 1}
		switch {
		case item.Type == gjson.String:
			h.Name = item.String()
		case item.IsObject():
			h.Name = firstString(item, "name", "style", "hairstyle")
			h.ImageURL = item.Get("image_url").String()
			h.Description = optString(item.Get("description"))
			h.ConfidenceScore = optFloat(item.Get("confidence_score"))
			h.SuitabilityReason = optString(item.Get("suitability_reason"))
		default:
			return true
		}
		out = append(out, h)
		return len(out) < maxHairstyles
	})
	return out
}

func firstString(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := obj.Get(k); v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

func stringList(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	for _, item := range r.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func optString(r gjson.Result) *string {
	if r.Type != gjson.String {
		return nil
	}
	s := r.String()
	return &s
}

func optFloat(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	f := r.Float()
	return &f
}
