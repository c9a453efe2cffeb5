package classify

import (
	"strings"

	"github.com/sells-group/eventdraft/internal/model"
)

// vagueTitles are single words too generic to say anything about an event.
var vagueTitles = map[string]bool{
	"event":     true,
	"party":     true,
	"gathering": true,
	"meeting":   true,
}

// Inference is the result of classifying a title (and optional description).
type Inference struct {
	Categories    []Category `json:"categories"`
	DurationHours float64    `json:"duration_hours,omitempty"`
	Confidence    float64    `json:"confidence"`
}

// Infer classifies an event from its title and description.
func Infer(title, description string) Inference {
	text := strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(description))

	inf := Inference{
		Categories:    TopCategories(text),
		DurationHours: InferDuration(text),
	}

	var conf float64
	nonOther := 0
	for _, c := range inf.Categories {
		if c != CategoryOther {
			nonOther++
		}
	}
	if nonOther > 0 {
		conf += 40
	}
	if nonOther >= 2 {
		conf += 20
	}
	if inf.DurationHours > 0 {
		conf += 30
	}
	if len(text) > 20 {
		conf += 10
	}
	if vagueTitles[strings.ToLower(text)] {
		conf -= 20
	}
	inf.Confidence = model.ClampConfidence(conf)
	return inf
}
