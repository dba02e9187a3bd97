package steps

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Kind is the dispatch class of a step name.
type Kind int

const (
	// NestOrReplaceOne replaces an open sub-step, or nests under an open
	// top-level step.
	NestOrReplaceOne Kind = iota
	// CloseIfAllPassed closes every open step when the current step's
	// children all passed.
	CloseIfAllPassed
	// ReplaceTopLevel finishes the open top-level chain and starts a new
	// top-level step.
	ReplaceTopLevel
	// NestUnconditional nests under the current cursor.
	NestUnconditional
)

func (k Kind) String() string {
	switch k {
	case NestOrReplaceOne:
		return "nest_or_replace_one"
	case CloseIfAllPassed:
		return "close_if_all_passed"
	case ReplaceTopLevel:
		return "replace_top_level"
	case NestUnconditional:
		return "nest_unconditional"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Vocabulary holds the words that drive classification.
//
// Last, Step, Preparation and Check are matched against the lower-cased
// first word of a name. StepDisplay and PreparationDisplay are matched as
// case-sensitive substrings of step names already in the tree.
type Vocabulary struct {
	Last        string
	Step        string
	Preparation string
	Check       string

	StepDisplay        string
	PreparationDisplay string

	// DiffLabel names diff attachments.
	DiffLabel string
}

// English is the default vocabulary.
var English = Vocabulary{
	Last:               "last",
	Step:               "step",
	Preparation:        "preparation",
	Check:              "check",
	StepDisplay:        "Step",
	PreparationDisplay: "Preparation",
	DiffLabel:          "actual",
}

// Russian is the vocabulary of suites written as "Шаг 1. ...".
var Russian = Vocabulary{
	Last:               "last",
	Step:               "шаг",
	Preparation:        "подготовка",
	Check:              "проверка",
	StepDisplay:        "Шаг",
	PreparationDisplay: "Подготовка",
	DiffLabel:          "полученное",
}

// VocabularyByName returns a preset by its short name ("en" or "ru").
func VocabularyByName(name string) (Vocabulary, error) {
	switch strings.ToLower(name) {
	case "", "en", "english":
		return English, nil
	case "ru", "russian":
		return Russian, nil
	default:
		return Vocabulary{}, fmt.Errorf("unknown vocabulary %q (expected en or ru)", name)
	}
}

// Classify maps a step name to its Kind. It is pure: the result depends on
// the name and the vocabulary only.
func (v Vocabulary) Classify(name string) Kind {
	switch foldKey(firstToken(name)) {
	case foldKey(v.Last):
		return CloseIfAllPassed
	case foldKey(v.Step):
		return ReplaceTopLevel
	case foldKey(v.Preparation), foldKey(v.Check):
		return NestUnconditional
	default:
		return NestOrReplaceOne
	}
}

// IsStepName reports whether name carries the top-level step marker.
func (v Vocabulary) IsStepName(name string) bool {
	return containsMarker(name, v.StepDisplay)
}

// IsPreparationName reports whether name carries the preparation marker.
func (v Vocabulary) IsPreparationName(name string) bool {
	return containsMarker(name, v.PreparationDisplay)
}

func containsMarker(name, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(norm.NFC.String(name), norm.NFC.String(marker))
}

// firstToken returns name up to its first whitespace, or all of it.
// A name with leading whitespace has an empty first token.
func firstToken(name string) string {
	if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
		return name[:i]
	}
	return name
}

func foldKey(s string) string {
	if s == "" {
		return ""
	}
	// Casers keep state, so one is built per call.
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}
