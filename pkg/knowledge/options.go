package knowledge

import "fmt"

// LoadOption configures LoadTriples.
type LoadOption func(*LoadOptions)

// LoadOptions controls how a labeled triples file is parsed.
type LoadOptions struct {
	// Delimiter between columns. Defaults to a tab.
	Delimiter string

	// Columns selects the head, relation and tail columns, in that order.
	// Defaults to {0, 1, 2}.
	Columns [3]int

	err error
}

func defaultLoadOptions() LoadOptions {
	return LoadOptions{
		Delimiter: "\t",
		Columns:   [3]int{0, 1, 2},
	}
}

// WithDelimiter sets the column delimiter. An empty delimiter is ignored.
func WithDelimiter(d string) LoadOption {
	return func(o *LoadOptions) {
		if d != "" {
			o.Delimiter = d
		}
	}
}

// WithColumnRemapping selects which file columns hold head, relation and
// tail. For a head-tail-relation file pass (0, 2, 1).
func WithColumnRemapping(columns ...int) LoadOption {
	return func(o *LoadOptions) {
		if len(columns) != 3 {
			o.err = fmt.Errorf("%w: got %d columns", ErrColumnRemapping, len(columns))
			return
		}
		for _, c := range columns {
			if c < 0 {
				o.err = fmt.Errorf("%w: negative column %d", ErrColumnRemapping, c)
				return
			}
		}
		o.Columns = [3]int{columns[0], columns[1], columns[2]}
	}
}

// pick extracts head, relation and tail labels from a split line.
func (o LoadOptions) pick(parts []string) (head, relation, tail string, ok bool) {
	for _, c := range o.Columns {
		if c >= len(parts) {
			return "", "", "", false
		}
	}
	return parts[o.Columns[0]], parts[o.Columns[1]], parts[o.Columns[2]], true
}
