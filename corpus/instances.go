package corpus

import (
	"bufio"
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"os"
	"strconv"
	"strings"
	"text2phenotype.com/melt/features"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/types"
)

const weightMarker = "$$$WEIGHT"

// Instance is one training event: the gold label of a token and its features.
type Instance struct {
	Label    string
	Weighted bool
	Weight   float64
	Features features.Vector
}

func (inst Instance) String() string {
	label := inst.Label
	if inst.Weighted {
		label = fmt.Sprintf("%s %s %f", inst.Label, weightMarker, inst.Weight)
	}
	return label + "\t" + strings.Join(inst.Features, " ")
}

// ParseInstance reads back the text form of an instance.
func ParseInstance(line string) (Instance, error) {
	head, feats, found := strings.Cut(line, "\t")
	if !found {
		return Instance{}, fmt.Errorf("instance without label separator: %q", line)
	}

	inst := Instance{Features: strings.Fields(feats)}
	parts := strings.Fields(head)
	switch {
	case len(parts) == 1:
		inst.Label = parts[0]
	case len(parts) == 3 && parts[1] == weightMarker:
		w, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return Instance{}, fmt.Errorf("invalid instance weight %q: %w", parts[2], err)
		}
		inst.Label, inst.Weighted, inst.Weight = parts[0], true, w
	default:
		return Instance{}, fmt.Errorf("invalid instance label %q", head)
	}
	return inst, nil
}

// InstanceWriter turns corpus sentences into training instances. Sequential features are
// computed from the gold labels of the preceding tokens.
type InstanceWriter struct {
	extractor *features.Extractor
	weighted  bool
	log       zerolog.Logger
}

func NewInstanceWriter(extractor *features.Extractor, weighted bool) *InstanceWriter {
	return &InstanceWriter{
		extractor: extractor,
		weighted:  weighted,
		log:       logger.NewLogger("Instance Writer"),
	}
}

func (iw *InstanceWriter) Instances(sent Sentence) []Instance {
	words := types.Words(sent.Tokens)
	labels := types.Labels(sent.Tokens)
	res := make([]Instance, len(sent.Tokens))
	for i := range sent.Tokens {
		res[i] = Instance{
			Label:    labels[i],
			Weighted: iw.weighted,
			Weight:   sent.Weight,
			Features: iw.extractor.Extract(i, words, labels[:i]),
		}
	}
	return res
}

// Write streams the instances of every sentence of reader into w and returns their count.
// Marker lines are copied as they are.
func (iw *InstanceWriter) Write(ctx context.Context, reader Reader, w io.Writer) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := bufio.NewWriter(w)
	count := 0

	sentences, errc := reader.Sentences(ctx)
	for sent := range sentences {
		if sent.IsSpecial() {
			if _, err := fmt.Fprintln(out, sent.Special); err != nil {
				return count, err
			}
			continue
		}
		for _, inst := range iw.Instances(sent) {
			if _, err := fmt.Fprintln(out, inst.String()); err != nil {
				return count, err
			}
			count++
		}
	}
	if err := <-errc; err != nil {
		return count, err
	}
	if err := out.Flush(); err != nil {
		return count, err
	}

	iw.log.Info().Int("instances", count).Msg("Generated training instances")
	return count, nil
}

// FilterRareFeatures copies the instances of inPath to outPath, dropping every feature that
// occurs fewer than threshold times over the whole file. Lines that are not instances are
// copied unchanged.
func FilterRareFeatures(inPath string, outPath string, threshold int) error {
	counts := map[string]int{}
	if threshold > 1 {
		err := scanLines(inPath, func(line string) error {
			if inst, err := ParseInstance(line); err == nil {
				for _, f := range inst.Features {
					counts[f]++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	file, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer file.Close()
	out := bufio.NewWriter(file)

	err = scanLines(inPath, func(line string) error {
		inst, err := ParseInstance(line)
		if err != nil || threshold <= 1 {
			_, err = fmt.Fprintln(out, line)
			return err
		}
		kept := inst.Features[:0]
		for _, f := range inst.Features {
			if counts[f] >= threshold {
				kept = append(kept, f)
			}
		}
		inst.Features = kept
		_, err = fmt.Fprintln(out, inst.String())
		return err
	})
	if err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}
	return file.Close()
}

func scanLines(path string, fn func(line string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
