package domain

// Challenge pairs a natural-language prompt with the reference query used as
// ground truth for validation. The challenge set is fixed configuration data,
// never mutated at runtime.
type Challenge struct {
	ID           int    `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	Hint         string `json:"hint" yaml:"hint"`
	ReferenceSQL string `json:"-" yaml:"reference_sql"`
}

// Lesson is a static block of course content shown in the theory tab.
type Lesson struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}
