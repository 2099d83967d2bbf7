package trainer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/maxent"
	"text2phenotype.com/melt/types"
)

var megamExecutables = []string{"megam.opt", "megam.exe", "megam"}

type MegamConfig struct {
	Dir          string `envconfig:"MEGAM_DIR"`
	Attempts     int    `envconfig:"MEGAM_ATTEMPTS" default:"3"`
	RawModelPath string `envconfig:"MEGAM_RAW_MODEL_PATH"`
}

func LoadMegamConfig() (MegamConfig, error) {
	var cfg MegamConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Megam runs the megam optimizer and parses the weights it prints.
type Megam struct {
	execPath     string
	params       types.TrainingConfig
	attempts     int
	rawModelPath string
	log          zerolog.Logger
}

func NewMegam(cfg MegamConfig, params types.TrainingConfig) (*Megam, error) {
	execPath, err := FindMegam(cfg.Dir)
	if err != nil {
		return nil, err
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Megam{
		execPath:     execPath,
		params:       params,
		attempts:     attempts,
		rawModelPath: cfg.RawModelPath,
		log:          logger.NewLogger("Megam Trainer").With().Str("exec", execPath).Logger(),
	}, nil
}

// FindMegam looks for a megam executable in dir, or in PATH when dir is empty.
func FindMegam(dir string) (string, error) {
	if dir == "" {
		for _, name := range megamExecutables {
			if path, err := exec.LookPath(name); err == nil {
				return path, nil
			}
		}
		return "", fmt.Errorf("%w: megam not found in PATH, set MEGAM_DIR", types.ErrFatalConfig)
	}

	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: MEGAM_DIR: %v", types.ErrFatalConfig, err)
	}
	for _, name := range megamExecutables {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Mode()&0111 == 0 {
			return "", fmt.Errorf("%w: %s is not executable", types.ErrFatalConfig, path)
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: no megam executable in %s", types.ErrFatalConfig, dir)
}

func (m *Megam) Args(instancesPath string) []string {
	args := []string{
		"-nc",
		"-repeat", strconv.Itoa(m.params.Repeat),
		"-lambda", strconv.FormatFloat(m.params.PriorPrecision, 'g', -1, 64),
		"-maxi", strconv.Itoa(m.params.MaxIterations),
	}
	if !m.params.Bias {
		args = append(args, "-nobias")
	}
	if m.params.Norm != 0 {
		args = append(args, "-norm"+strconv.Itoa(m.params.Norm))
	}
	return append(args, m.params.Classifier, instancesPath)
}

func (m *Megam) Fit(ctx context.Context, instancesPath string) (*maxent.Model, error) {
	args := m.Args(instancesPath)

	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		out, err := m.run(ctx, args)
		if err == nil {
			return m.parse(out)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		m.log.Warn().Err(err).Int("attempt", attempt).Strs("args", args).Msg("Megam failed")
	}
	return nil, fmt.Errorf("megam failed after %d attempts: %w", m.attempts, lastErr)
}

func (m *Megam) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, m.execPath, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	m.log.Info().Strs("args", args).Msg("Training megam classifier")
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	// stderr must be drained before Wait closes the pipe
	m.collectLogs(stderr)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("megam exited with code %d", exitErr.ExitCode())
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// collectLogs forwards the progress megam prints on stderr.
func (m *Megam) collectLogs(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			m.log.Debug().Msg(line)
		}
	}
}

func (m *Megam) parse(out []byte) (*maxent.Model, error) {
	if m.rawModelPath != "" {
		if err := os.WriteFile(m.rawModelPath, out, 0644); err != nil {
			m.log.Warn().Err(err).Str("path", m.rawModelPath).Msg("Failed to dump raw megam model")
		}
	}

	model, err := maxent.ParseMegam(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	m.log.Info().
		Int("classes", len(model.Classes)).
		Int("features", model.NumFeatures()).
		Msg("Megam model loaded")
	return model, nil
}
