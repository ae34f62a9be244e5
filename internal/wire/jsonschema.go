package wire

import (
	"github.com/invopop/jsonschema"

	"tutor-sketchpad/internal/event"
)

// Protocol describes every frame of the sketchpad websocket protocol.
type Protocol struct {
	Inbound  *jsonschema.Schema            `json:"inbound"`
	Outbound map[string]*jsonschema.Schema `json:"outbound"`
	Commands map[string]*jsonschema.Schema `json:"commands"`
}

// Schema reflects the JSON Schema of inbound frames, outbound frames and the
// argument objects of each draw command.
func Schema() Protocol {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return Protocol{
		Inbound: reflector.Reflect(&Inbound{}),
		Outbound: map[string]*jsonschema.Schema{
			TypeChatMessage: reflector.Reflect(&ChatMessage{}),
			TypeChatToken:   reflector.Reflect(&ChatToken{}),
			TypeDraw:        reflector.Reflect(&DrawMessage{}),
			TypeError:       reflector.Reflect(&ErrorMessage{}),
		},
		Commands: map[string]*jsonschema.Schema{
			string(event.CommandLine):     reflector.Reflect(&event.Line{}),
			string(event.CommandRect):     reflector.Reflect(&event.Rect{}),
			string(event.CommandText):     reflector.Reflect(&event.Text{}),
			string(event.CommandPolyline): reflector.Reflect(&event.Polyline{}),
			string(event.CommandCircle):   reflector.Reflect(&event.Circle{}),
			"style":                       reflector.Reflect(&event.Style{}),
		},
	}
}
