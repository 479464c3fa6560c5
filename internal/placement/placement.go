// Package placement parses thread and rank placement lists out of captured
// process output. Runtimes print their binding as brace-delimited integer
// lists ("OMP_PLACES: {0,1,2,3},{4,5,6,7}"); the harness verifies those lists
// cover exactly the expected contiguous processor range.
package placement

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var listRe = regexp.MustCompile(`\{([0-9,\s]+)\}`)

// ExtractLists collects every brace-delimited integer list found on lines of
// output containing marker. Each list must be internally sequential
// (ascending by one); a list that is not is an error naming its text.
func ExtractLists(output, marker string) ([][]int, error) {
	var lists [][]int
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, marker) {
			continue
		}
		for _, match := range listRe.FindAllStringSubmatch(line, -1) {
			values, err := parseList(match[1])
			if err != nil {
				return nil, fmt.Errorf("line '%s': %w", strings.TrimSpace(line), err)
			}
			for i := 1; i < len(values); i++ {
				if values[i] != values[i-1]+1 {
					return nil, fmt.Errorf("placement list %s is not sequential at value %d", match[0], values[i])
				}
			}
			lists = append(lists, values)
		}
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("no placement lists found for marker '%s'", marker)
	}
	return lists, nil
}

func parseList(inner string) ([]int, error) {
	var values []int
	for _, field := range strings.Split(inner, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid placement value '%s'", field)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty placement list")
	}
	return values, nil
}

// Flatten merges placement lists into a single value slice.
func Flatten(lists [][]int) []int {
	var values []int
	for _, l := range lists {
		values = append(values, l...)
	}
	return values
}

// VerifyContiguous checks that values, once sorted, form exactly the range
// start, start+1, ..., start+len(values)-1. Duplicates and gaps produce
// distinct errors naming the first offending value.
func VerifyContiguous(values []int, start int) error {
	if len(values) == 0 {
		return fmt.Errorf("no placement values to verify")
	}

	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	if sorted[0] != start {
		return fmt.Errorf("placement range starts at %d, expected %d", sorted[0], start)
	}
	for i := 1; i < len(sorted); i++ {
		switch {
		case sorted[i] == sorted[i-1]:
			return fmt.Errorf("duplicate placement value %d", sorted[i])
		case sorted[i] != sorted[i-1]+1:
			return fmt.Errorf("gap in placement range: %d follows %d", sorted[i], sorted[i-1])
		}
	}
	return nil
}

// Verify extracts the placement lists for marker from output and checks the
// combined values form a contiguous range beginning at start.
func Verify(output, marker string, start int) error {
	lists, err := ExtractLists(output, marker)
	if err != nil {
		return err
	}
	return VerifyContiguous(Flatten(lists), start)
}
