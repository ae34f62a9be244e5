package lesson

import (
	"time"

	"tutor-sketchpad/internal/event"
)

// TopicPythagorean is the topic of the right-triangle lesson.
const TopicPythagorean = "pythagorean"

// hypotenuseOffset scales the perpendicular of the hypotenuse vector to get
// the side of the tilted square.
const hypotenuseOffset = 0.42

var (
	ink    = &event.Style{Color: "#222222", Width: 3}
	thin   = &event.Style{Color: "#222222", Width: 2}
	label  = &event.Style{Color: "#0c6cf2", Width: 2}
	blue   = &event.Style{Color: "#5a9cff", Width: 2}
	green  = &event.Style{Color: "#4cd16d", Width: 2}
	orange = &event.Style{Color: "#ff8a00", Width: 2}
)

// Right triangle: A is the right angle, AB the horizontal leg, AC the
// vertical leg and CB the hypotenuse.
var (
	vertexA = event.Point{X: 120, Y: 380}
	vertexB = event.Point{X: 520, Y: 380}
	vertexC = event.Point{X: 120, Y: 140}
)

var pythagorean = buildPythagorean()

// Pythagorean returns the storyboard that sketches a right triangle and the
// squares on its sides.
func Pythagorean() Storyboard {
	return pythagorean
}

// tiltedSquare erects a square-like quad on the segment from->to, offset by
// the perpendicular (-dy, dx) scaled by k.
func tiltedSquare(from, to event.Point, k float64) []event.Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	offX, offY := -dy*k, dx*k
	return []event.Point{
		from,
		to,
		{X: to.X + offX, Y: to.Y + offY},
		{X: from.X + offX, Y: from.Y + offY},
	}
}

func buildPythagorean() Storyboard {
	square := tiltedSquare(vertexC, vertexB, hypotenuseOffset)
	center := event.Point{
		X: (square[0].X + square[2].X) / 2,
		Y: (square[0].Y + square[2].Y) / 2,
	}

	return Storyboard{
		Topic: TopicPythagorean,
		Steps: []Step{
			narrate("Let's explore the Pythagorean theorem with a sketch. " +
				"We will draw a right triangle, label its sides, and then relate the areas " +
				"of squares on each side to show a² + b² = c²."),

			draw(event.Clear{}, 150*time.Millisecond),
			draw(event.Line{X1: vertexA.X, Y1: vertexA.Y, X2: vertexB.X, Y2: vertexB.Y, Style: ink}, 120*time.Millisecond),
			draw(event.Line{X1: vertexA.X, Y1: vertexA.Y, X2: vertexC.X, Y2: vertexC.Y, Style: ink}, 120*time.Millisecond),
			draw(event.Line{X1: vertexC.X, Y1: vertexC.Y, X2: vertexB.X, Y2: vertexB.Y, Style: ink}, 120*time.Millisecond),
			draw(event.Rect{X: vertexA.X, Y: vertexA.Y - 20, W: 20, H: 20, Style: thin}, 100*time.Millisecond),
			draw(event.Text{X: 320, Y: 400, Text: "a", Style: label}, 50*time.Millisecond),
			draw(event.Text{X: 90, Y: 260, Text: "b", Style: label}, 50*time.Millisecond),
			draw(event.Text{X: 330, Y: 240, Text: "c", Style: label}, 100*time.Millisecond),

			narrate("Here, the legs are a and b and the hypotenuse is c. " +
				"Now we'll draw a square on each leg and a tilted square on the hypotenuse."),

			// Square on a hangs below the base and is squashed to fit the canvas.
			draw(event.Rect{X: vertexA.X, Y: vertexA.Y, W: 400, H: 140, Style: blue}, 100*time.Millisecond),
			draw(event.Text{X: 300, Y: 470, Text: "a²", Style: blue}, 100*time.Millisecond),
			// Square on b extends past the left edge on purpose.
			draw(event.Rect{X: -20, Y: vertexC.Y, W: 140, H: 240, Style: green}, 100*time.Millisecond),
			draw(event.Text{X: 30, Y: 260, Text: "b²", Style: green}, 100*time.Millisecond),

			narrate("Finally, we construct a square on the hypotenuse. " +
				"Because the hypotenuse is tilted, the square is also tilted."),

			draw(event.Polyline{Points: square, Closed: true, Style: orange}, 100*time.Millisecond),
			draw(event.Text{X: center.X, Y: center.Y, Text: "c²", Style: orange}, 0),

			narrate("The areas of the two leg-squares add up exactly to the area of the hypotenuse-square. " +
				"That is, a² plus b² equals c². This is the Pythagorean theorem."),

			conclude("Summary: In any right triangle, a² + b² = c²."),
		},
	}
}
