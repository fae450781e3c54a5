package computer

import (
	"fmt"

	"github.com/entrhq/pilot/pkg/agent/tools"
	"github.com/entrhq/pilot/pkg/computer"
)

func coordinateProperties() map[string]interface{} {
	return map[string]interface{}{
		"x": tools.NumberProperty("Horizontal viewport coordinate in pixels"),
		"y": tools.NumberProperty("Vertical viewport coordinate in pixels"),
	}
}

// requirePoint validates a pair of optional coordinates.
func requirePoint(x, y *int) (computer.Point, error) {
	if x == nil || y == nil {
		return computer.Point{}, fmt.Errorf("x and y are required")
	}
	return computer.Point{X: *x, Y: *y}, nil
}

func parse(argsXML []byte, v interface{}) error {
	if err := tools.UnmarshalLenient(argsXML, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

func screenNote(c computer.Computer) string {
	v := c.Dimensions()
	return fmt.Sprintf("The screen is %dx%d pixels.", v.Width, v.Height)
}
