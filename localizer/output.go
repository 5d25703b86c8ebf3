package localizer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/figharvest/figharvest/model"
)

//go:embed schema.json
var schemaJSON []byte

var outputSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("pdffigures2.json", bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("localizer: add schema: %v", err))
	}
	schema, err := compiler.Compile("pdffigures2.json")
	if err != nil {
		panic(fmt.Sprintf("localizer: compile schema: %v", err))
	}
	return schema
}

// box is a pdffigures2 boundary in points, top-down
type box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b box) rect() model.Rect {
	return model.NewRect(b.X1, b.Y1, b.X2, b.Y2)
}

type rawFigure struct {
	Name            string  `json:"name"`
	FigType         string  `json:"figType"`
	Page            int     `json:"page"`
	Caption         string  `json:"caption"`
	CaptionBoundary box     `json:"captionBoundary"`
	RegionBoundary  box     `json:"regionBoundary"`
	RenderURL       string  `json:"renderURL"`
	RenderDPI       float64 `json:"renderDpi"`
}

type rawCaption struct {
	Name     string `json:"name"`
	FigType  string `json:"figType"`
	Page     int    `json:"page"`
	Boundary box    `json:"boundary"`
	Text     string `json:"text"`
}

type rawOutput struct {
	Figures    []rawFigure  `json:"figures"`
	Regionless []rawCaption `json:"regionless-captions"`
}

// parseOutput validates data against the pdffigures2 schema and decodes it
func parseOutput(data []byte) (*rawOutput, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal output: %w", err)
	}
	if err := outputSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("output does not match schema: %w", err)
	}
	var out rawOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return &out, nil
}
