package dash

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrIndex          = errors.New("invalid index")
	ErrMissingColumns = errors.New("expected columns not found in dataset")
)

// DayLayout is the layout of the dates in the crime file (DD/MM/YYYY).
const DayLayout = "02/01/2006"

// Selector picks cells of a row by column name.
type Selector struct {
	names []string
	index []int
}

// SelectColumns resolves names against the header of a file. All the
// missing columns are reported at once.
func SelectColumns(header []string, names ...string) (Selector, error) {
	var (
		sel     Selector
		missing []string
	)
	for _, n := range names {
		ix := indexOf(header, n)
		if ix < 0 {
			missing = append(missing, n)
			continue
		}
		sel.names = append(sel.names, n)
		sel.index = append(sel.index, ix)
	}
	if len(missing) > 0 {
		return sel, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return sel, nil
}

// SelectOptional resolves the columns found in header and ignores the others.
// Missing columns yield empty cells.
func SelectOptional(header []string, names ...string) Selector {
	var sel Selector
	for _, n := range names {
		sel.names = append(sel.names, n)
		sel.index = append(sel.index, indexOf(header, n))
	}
	return sel
}

func (s Selector) Select(row []string) ([]string, error) {
	list := make([]string, 0, len(s.index))
	for _, i := range s.index {
		if i >= len(row) {
			return nil, ErrIndex
		}
		if i < 0 {
			list = append(list, "")
			continue
		}
		list = append(list, strings.TrimSpace(row[i]))
	}
	return list, nil
}

// Complete returns the selected cells when none of them is empty.
func (s Selector) Complete(row []string) ([]string, bool) {
	list, err := s.Select(row)
	if err != nil {
		return nil, false
	}
	for _, c := range list {
		if c == "" {
			return nil, false
		}
	}
	return list, true
}

func indexOf(header []string, name string) int {
	for i := range header {
		if header[i] == name {
			return i
		}
	}
	return -1
}

func parseCount(str string) (float64, error) {
	str = strings.ReplaceAll(strings.TrimSpace(str), ",", "")
	return strconv.ParseFloat(str, 64)
}

func parseDay(str string) (time.Time, error) {
	return time.Parse(DayLayout, strings.TrimSpace(str))
}
