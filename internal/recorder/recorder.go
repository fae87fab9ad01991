// Package recorder writes a session's action log to disk: one screenshot per
// step, a steps.json index and optionally an animated replay.
package recorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/v0xg/pagepilot/internal/annotator"
	"github.com/v0xg/pagepilot/internal/gifgen"
	"github.com/v0xg/pagepilot/internal/logger"
	"github.com/v0xg/pagepilot/internal/overlay"
	"github.com/v0xg/pagepilot/internal/session"
)

// Step is one steps.json record.
type Step struct {
	Index         int                       `json:"index"`
	Action        string                    `json:"action"`
	Time          time.Time                 `json:"time"`
	URL           string                    `json:"url,omitempty"`
	Title         string                    `json:"title,omitempty"`
	Screenshot    string                    `json:"screenshot"`
	SelectOptions []annotator.SelectOptions `json:"selectOptions,omitempty"`
	Elements      []annotator.Element       `json:"elements,omitempty"`
	Pointer       *image.Point              `json:"pointer,omitempty"`
}

// Options controls what Save writes besides the screenshots.
type Options struct {
	ReplayGIF bool
	GIF       gifgen.Options
	// PointerScale enlarges click markers on high-density screenshots.
	PointerScale float64
}

// Recorder saves action logs under root/<run id>.
type Recorder struct {
	root  string
	runID string
	log   *logger.Logger
}

// New creates a recorder with a fresh run id.
func New(root string, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Discard()
	}
	return &Recorder{root: root, runID: uuid.NewString(), log: log}
}

// Dir is the run directory Save writes to.
func (r *Recorder) Dir() string {
	return filepath.Join(r.root, r.runID)
}

// Save writes entries and returns the run directory. Saving again overwrites
// the previous files of the same run.
func (r *Recorder) Save(entries []session.Entry, opts Options) (string, error) {
	dir := r.Dir()
	if len(entries) == 0 {
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	steps := make([]Step, 0, len(entries))
	for i, e := range entries {
		step := Step{
			Index:   i,
			Action:  e.Action,
			Time:    e.Time,
			Pointer: e.Pointer,
		}
		if snap := e.Snapshot; snap != nil {
			step.URL = snap.URL
			step.Title = snap.Title
			step.SelectOptions = snap.SelectOptions
			step.Elements = snap.Elements
			step.Screenshot = fmt.Sprintf("step-%03d.%s", i, extension(snap.Format))
			if err := os.WriteFile(filepath.Join(dir, step.Screenshot), snap.Screenshot, 0o644); err != nil {
				return "", fmt.Errorf("failed to write screenshot: %w", err)
			}
		}
		steps = append(steps, step)
	}

	data, err := json.MarshalIndent(steps, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal steps: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "steps.json"), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write steps: %w", err)
	}

	if opts.ReplayGIF {
		frames := Frames(entries, opts.PointerScale, r.log)
		size, err := gifgen.Generate(frames, filepath.Join(dir, "replay.gif"), opts.GIF)
		if err != nil {
			return "", fmt.Errorf("failed to write replay: %w", err)
		}
		r.log.Debug("replay.gif: %d frame(s), %d bytes", len(frames), size)
	}
	return dir, nil
}

// Frames builds replay frames from entries. A click is shown on the snapshot
// it was chosen from, followed by the snapshot it produced.
func Frames(entries []session.Entry, scale float64, log *logger.Logger) []gifgen.Frame {
	if log == nil {
		log = logger.Discard()
	}

	var (
		frames []gifgen.Frame
		prev   image.Image
	)
	for i, e := range entries {
		if e.Snapshot == nil || len(e.Snapshot.Screenshot) == 0 {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(e.Snapshot.Screenshot))
		if err != nil {
			log.Warn("step %d: unreadable screenshot: %v", i, err)
			continue
		}

		if e.Pointer != nil && prev != nil {
			frames = append(frames, gifgen.Frame{
				Image: overlay.MarkClick(prev, *e.Pointer, scale),
				Delay: 700 * time.Millisecond,
			})
		}
		frames = append(frames, gifgen.Frame{Image: img})
		prev = img
	}
	return frames
}

func extension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return "png"
}
