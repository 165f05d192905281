// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spatialhue/lightcontrol/internal/model"
	"github.com/spatialhue/lightcontrol/pkg/core"
	"gorm.io/datatypes"
)

// RecordToLightControl converts a core record to its GORM row.
func RecordToLightControl(r core.LightControlRecord) model.LightControl {
	m := model.LightControl{
		AnchorID:   r.AnchorID.String(),
		Kind:       r.Kind.String(),
		TargetName: r.TargetName,
		IsOn:       r.IsOn,
	}
	if r.LastColor != nil {
		data, _ := json.Marshal(r.LastColor)
		m.LastColor = datatypes.JSON(data)
	}
	return m
}

// LightControlToRecord converts a GORM row back to a core record.
func LightControlToRecord(m model.LightControl) (core.LightControlRecord, error) {
	id, err := uuid.Parse(m.AnchorID)
	if err != nil {
		return core.LightControlRecord{}, fmt.Errorf("invalid anchor id %q: %w", m.AnchorID, err)
	}
	kind, err := core.ParseControlKind(m.Kind)
	if err != nil {
		return core.LightControlRecord{}, err
	}

	r := core.LightControlRecord{
		Kind:       kind,
		TargetName: m.TargetName,
		IsOn:       m.IsOn,
		AnchorID:   id,
	}
	if len(m.LastColor) > 0 && string(m.LastColor) != "null" {
		var c core.Color
		if err := json.Unmarshal(m.LastColor, &c); err != nil {
			return core.LightControlRecord{}, fmt.Errorf("invalid last color for %s: %w", m.AnchorID, err)
		}
		r.LastColor = &c
	}
	return r, nil
}
