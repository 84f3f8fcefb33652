package viewer

import (
	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scenefile"
)

// ToggleProjection switches c between perspective and orthographic and
// builds the new camera. c is left unchanged if the build fails.
func ToggleProjection(c *scenefile.Camera, aspect float64) (render.Camera, error) {
	next := *c
	if c.Kind == "perspective" {
		next.Kind = "orthographic"
	} else {
		next.Kind = "perspective"
	}
	cam, err := next.Build(aspect)
	if err != nil {
		return nil, err
	}
	*c = next
	return cam, nil
}
