package model

import (
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&LightControl{},
}

// LightControl is the persisted binding between a spatial anchor and a bridge target.
type LightControl struct {
	AnchorID   string         `json:"anchorId" gorm:"primaryKey;size:36"`
	Kind       string         `json:"kind" gorm:"size:16;not null;default:none"`
	TargetName string         `json:"targetName" gorm:"size:128;index:idx_light_control_target"`
	IsOn       bool           `json:"isOn" gorm:"default:false"`
	LastColor  datatypes.JSON `json:"lastColor"` // last color sent to the target, null until a token hits the marker
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (*LightControl) TableName() string {
	return "light_controls"
}
