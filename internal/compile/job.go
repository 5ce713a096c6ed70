package compile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sibikrish3000/tscbridge/internal/config"
	"github.com/sibikrish3000/tscbridge/pkg/procrun"
)

// Temp file naming for unsaved buffers.
const (
	tempPrefix = "tsc_"
	sourceExt  = ".ts"
)

// Job is the state of one compile request. It is created by Stage, passed
// by value through the pipeline and dropped once the result is presented.
type Job struct {
	ID         uuid.UUID
	Source     string // text that was staged; empty for file-backed buffers
	SourcePath string
	DestPath   string
	Dir        string

	// Unsaved is true when SourcePath and DestPath are temp files created
	// by Stage.
	Unsaved bool
}

// DestinationFor returns source with its extension replaced by ext.
func DestinationFor(source, ext string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ext
}

// Stage resolves the source and destination files for buf.
//
// A file-backed buffer compiles the file itself into a sibling with the
// configured output extension; nothing is written. An unsaved buffer's
// content is written to a new temp file, and a second, empty temp file is
// reserved as the destination.
func Stage(buf Buffer, cfg config.Config) (Job, error) {
	job := Job{ID: uuid.New()}

	if buf.FileName != "" {
		src, err := filepath.Abs(buf.FileName)
		if err != nil {
			return Job{}, fmt.Errorf("resolving %s: %w", buf.FileName, err)
		}
		job.SourcePath = src
		job.DestPath = DestinationFor(src, cfg.OutputExt())
		job.Dir = filepath.Dir(src)
		return job, nil
	}

	job.Unsaved = true
	job.Source = buf.Content()

	src, err := writeTemp(cfg.TempDir, sourceExt, job.Source)
	if err != nil {
		return Job{}, fmt.Errorf("staging source: %w", err)
	}
	dest, err := writeTemp(cfg.TempDir, cfg.OutputExt(), "")
	if err != nil {
		os.Remove(src)
		return Job{}, fmt.Errorf("reserving destination: %w", err)
	}

	job.SourcePath = src
	job.DestPath = dest
	job.Dir = filepath.Dir(src)
	return job, nil
}

// writeTemp creates a uniquely named temp file holding text.
func writeTemp(dir, ext, text string) (string, error) {
	f, err := os.CreateTemp(dir, tempPrefix+"*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Command builds the compiler invocation for the job:
// <node> <tsc> --out <dest> <source>.
func (j Job) Command(cfg config.Config) procrun.CommandSpec {
	return procrun.CommandSpec{
		Argv: []string{
			cfg.Node(),
			cfg.TypeScript(),
			"--out", j.DestPath,
			j.SourcePath,
		},
		Dir:              j.Dir,
		FallbackEncoding: cfg.FallbackEncoding(),
	}
}

// DestExists reports whether the compiler left a destination file.
func (j Job) DestExists() bool {
	_, err := os.Stat(j.DestPath)
	return err == nil
}

// RemoveStaged deletes the staged source of an unsaved buffer. The
// destination is left alone since the host may open it.
func (j Job) RemoveStaged() error {
	if !j.Unsaved {
		return nil
	}
	if err := os.Remove(j.SourcePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
