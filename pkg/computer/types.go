package computer

import (
	"context"
	"time"
)

const (
	// DefaultDebugPort is the DevTools port used when attaching.
	DefaultDebugPort = 9222

	// DefaultInitialURL is loaded after acquisition unless the page is internal.
	DefaultInitialURL = "https://www.google.com"

	// DefaultViewportWidth and DefaultViewportHeight are the fixed screen size.
	DefaultViewportWidth  = 1024
	DefaultViewportHeight = 768

	// DefaultWheelDelta is the vertical scroll distance of one wheel-button click.
	DefaultWheelDelta = 100

	// DefaultSettleDelay is how long Visit and OpenTab wait after navigating.
	DefaultSettleDelay = 3 * time.Second

	// DefaultAttachTimeout bounds the DevTools connection attempt.
	DefaultAttachTimeout = 5 * time.Second

	blankURL = "about:blank"
)

// Viewport is the screen size in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultViewport returns the fixed 1024x768 screen.
func DefaultViewport() Viewport {
	return Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
}

// Point is a viewport coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Button names a click target. Besides the physical mouse buttons it accepts the
// history pseudo-buttons and the wheel.
type Button string

const (
	ButtonLeft    Button = "left"
	ButtonRight   Button = "right"
	ButtonMiddle  Button = "middle"
	ButtonBack    Button = "back"
	ButtonForward Button = "forward"
	ButtonWheel   Button = "wheel"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateUninitialized State = iota
	StateStarting
	StateReady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Computer is the action surface offered to agents and scripts.
type Computer interface {
	Screenshot() (string, error)
	Click(x, y int, button Button) error
	DoubleClick(x, y int) error
	Move(x, y int) error
	Scroll(x, y, dx, dy int) error
	Type(text string) error
	Wait(ctx context.Context, d time.Duration) error
	Keypress(keys []string) error
	Drag(path []Point) error
	Goto(url string)
	Back() error
	Forward() error
	Visit(ctx context.Context, url string) (string, error)
	OpenTab(ctx context.Context, url string) (string, error)
	CurrentURL() string
	Dimensions() Viewport
}
