package event

// Canvas dimensions of the logical drawing space. Commands may still carry
// coordinates outside of it; clients render them as given.
const (
	CanvasWidth  = 800
	CanvasHeight = 500
)

// Command names a draw command variant.
type Command string

const (
	CommandClear    Command = "clear"
	CommandLine     Command = "line"
	CommandRect     Command = "rect"
	CommandText     Command = "text"
	CommandPolyline Command = "polyline"
	CommandCircle   Command = "circle"
)

// DrawCommand is one canvas instruction. The JSON form of a command value is
// its argument object; the style travels separately.
type DrawCommand interface {
	Cmd() Command
	// Stroke returns the attached style, nil for client defaults.
	Stroke() *Style
}

// Style is the optional stroke styling of a draw command.
type Style struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clear erases the canvas.
type Clear struct{}

func (Clear) Cmd() Command   { return CommandClear }
func (Clear) Stroke() *Style { return nil }

// Line is a straight segment from (X1,Y1) to (X2,Y2).
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Style *Style  `json:"-"`
}

func (Line) Cmd() Command     { return CommandLine }
func (l Line) Stroke() *Style { return l.Style }

// Rect is an axis-aligned rectangle outline.
type Rect struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Style *Style  `json:"-"`
}

func (Rect) Cmd() Command     { return CommandRect }
func (r Rect) Stroke() *Style { return r.Style }

// Text is a label anchored at (X,Y).
type Text struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Style *Style  `json:"-"`
}

func (Text) Cmd() Command     { return CommandText }
func (t Text) Stroke() *Style { return t.Style }

// Polyline connects Points in order, closing back to the first when Closed.
type Polyline struct {
	Points []Point `json:"points"`
	Closed bool    `json:"closed"`
	Style  *Style  `json:"-"`
}

func (Polyline) Cmd() Command     { return CommandPolyline }
func (p Polyline) Stroke() *Style { return p.Style }

// Circle is a circle outline centred on (X,Y).
type Circle struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	Style *Style  `json:"-"`
}

func (Circle) Cmd() Command     { return CommandCircle }
func (c Circle) Stroke() *Style { return c.Style }
