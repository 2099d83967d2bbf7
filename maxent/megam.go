package maxent

import (
	"bufio"
	"errors"
	"fmt"
	"gonum.org/v1/gonum/mat"
	"io"
	"strconv"
	"strings"
)

const (
	megamClassesHeader = "***NAMEDLABELSIDS***"
	megamBiasHeader    = "**BIAS**"
)

var ErrMalformedTrainerOutput = errors.New("malformed trainer output")

func malformed(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedTrainerOutput, line, fmt.Sprintf(format, args...))
}

// ParseMegam builds a Model from the parameter file Megam prints for named multiclass
// problems: a class declaration line, an optional bias line, then one weight row per feature.
func ParseMegam(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		classes     []string
		bias        []float64
		feature2int = map[string]int{}
		rows        []float64
		lineNo      int
	)

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch {
		case classes == nil:
			if fields[0] != megamClassesHeader {
				return nil, malformed(lineNo, "expected %s, got %q", megamClassesHeader, fields[0])
			}
			classes = fields[1:]
			if len(classes) == 0 {
				return nil, malformed(lineNo, "no class declared")
			}
		case fields[0] == megamBiasHeader && bias == nil && len(feature2int) == 0:
			values, err := parseWeights(fields[1:], len(classes))
			if err != nil {
				return nil, malformed(lineNo, "bias: %v", err)
			}
			bias = values
		default:
			name := fields[0]
			if _, ok := feature2int[name]; ok {
				return nil, malformed(lineNo, "feature %q declared twice", name)
			}
			values, err := parseWeights(fields[1:], len(classes))
			if err != nil {
				return nil, malformed(lineNo, "feature %q: %v", name, err)
			}
			feature2int[name] = len(feature2int)
			rows = append(rows, values...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if classes == nil {
		return nil, malformed(lineNo, "missing %s line", megamClassesHeader)
	}

	var weights *mat.Dense
	if len(feature2int) > 0 {
		weights = mat.NewDense(len(feature2int), len(classes), rows)
	}
	return NewModel(classes, feature2int, weights, bias)
}

func parseWeights(fields []string, n int) ([]float64, error) {
	if len(fields) != n {
		return nil, fmt.Errorf("%d weights for %d classes", len(fields), n)
	}
	values := make([]float64, n)
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
