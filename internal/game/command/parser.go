package command

import (
	"strconv"
	"strings"
)

// Line is a parsed input line.
type Line struct {
	// Name is the first word of the input, lowercased.
	Name string
	// Args are the remaining words.
	Args []string
}

// Parse splits line into a command name and whitespace-separated arguments.
//
// Postcondition: Name is empty iff line is blank.
func Parse(line string) Line {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Line{}
	}
	out := Line{Name: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		out.Args = fields[1:]
	}
	return out
}

// Int returns argument i as an integer.
//
// Postcondition: ok is false when the argument is missing or not an integer.
func (l Line) Int(i int) (n int, ok bool) {
	if i < 0 || i >= len(l.Args) {
		return 0, false
	}
	n, err := strconv.Atoi(l.Args[i])
	if err != nil {
		return 0, false
	}
	return n, true
}
