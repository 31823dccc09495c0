package timeparsing

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var nlpParser = newNLPParser()

func newNLPParser() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return p
}

// ParseNaturalLanguage resolves expressions like "tomorrow", "next monday",
// or "in 3 days" relative to now. Fails if the input contains no
// recognizable time expression.
func ParseNaturalLanguage(input string, now time.Time) (time.Time, error) {
	result, err := nlpParser.Parse(input, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", input, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("no time expression in %q", input)
	}
	return result.Time, nil
}
