package models

// PromptField describes a numeric input the prompted player must fill in.
type PromptField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Value int    `json:"value"`
}

// PromptButton describes one of the actions offered by a prompt.
type PromptButton struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Style string `json:"style"`
}

// Prompt is a declarative description of the next input expected from a
// single player. It carries no game logic; the room decides what the
// submitted action means.
type Prompt struct {
	Visible bool           `json:"visible"`
	Fields  []PromptField  `json:"fields"`
	Buttons []PromptButton `json:"buttons"`
}
