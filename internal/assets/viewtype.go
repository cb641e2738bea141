package assets

import (
	"fmt"
	"strings"
)

// ViewType tags an asset with the angle it depicts. A folder holds at most one
// live asset per view type.
type ViewType string

const (
	ViewMain  ViewType = "main"
	ViewFront ViewType = "front"
	ViewBack  ViewType = "back"
	ViewLeft  ViewType = "left"
	ViewRight ViewType = "right"
	ViewTop   ViewType = "top"
)

// ViewTypes lists every view type in display order.
func ViewTypes() []ViewType {
	return []ViewType{ViewMain, ViewFront, ViewBack, ViewLeft, ViewRight, ViewTop}
}

func ParseViewType(raw string) (ViewType, error) {
	switch v := ViewType(strings.TrimSpace(strings.ToLower(raw))); v {
	case ViewMain, ViewFront, ViewBack, ViewLeft, ViewRight, ViewTop:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported view type %q", raw)
	}
}
