package models

import (
	"time"
)

// UserFeatures is a snapshot of extracted facial metrics written by the ML
// service. This backend only reads it.
type UserFeatures struct {
	ID             string    `gorm:"column:user_id;primaryKey;size:36" json:"user_id"`
	OwnerID        *uint     `gorm:"column:gen_confi_user_id;index" json:"gen_confi_user_id"`
	Gender         string    `gorm:"size:10;not null" json:"gender"`
	FaceShape      *string   `gorm:"size:50" json:"face_shape"`
	FaceLength     *float64  `json:"face_length"`
	FaceWidth      *float64  `json:"face_width"`
	ForeheadWidth  *float64  `json:"forehead_width"`
	JawWidth       *float64  `json:"jaw_width"`
	ChinLength     *float64  `json:"chin_length"`
	SkinTone       *string   `gorm:"size:50" json:"skin_tone"`
	Undertone      *string   `gorm:"size:50" json:"undertone"`
	ITAScore       *float64  `gorm:"column:ita_score" json:"ita_score"`
	HairlineType   *string   `gorm:"size:50" json:"hairline_type"`
	RecessionLevel *string   `gorm:"size:50" json:"recession_level"`
	HairTexture    *string   `gorm:"size:50" json:"hair_texture"`
	BeardType      *string   `gorm:"size:50" json:"beard_type"`
	BeardDensity   *string   `gorm:"size:50" json:"beard_density"`
	EyebrowShape   *string   `gorm:"size:50" json:"eyebrow_shape"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Owner          *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}

func (UserFeatures) TableName() string {
	return "user_features"
}
