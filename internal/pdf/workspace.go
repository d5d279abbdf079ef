package pdf

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/docextract/text-extraction-service/internal/models"
)

const documentName = "document.pdf"

// Workspace is the per-call temporary directory holding the staged PDF
// and any page renders. Release removes it; calling Release more than once is safe.
type Workspace struct {
	dir     string
	once    sync.Once
	release error
}

// Stage creates a uniquely named workspace under parent and writes data into it.
// On failure nothing is left behind.
func Stage(parent string, data []byte) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	dir := filepath.Join(parent, "docextract-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, models.NewError(models.KindIOFailure, err, "create workspace")
	}

	ws := &Workspace{dir: dir}
	if err := os.WriteFile(ws.DocumentPath(), data, 0o600); err != nil {
		ws.Release()
		return nil, models.NewError(models.KindIOFailure, err, "stage pdf")
	}
	return ws, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// DocumentPath returns the path of the staged PDF
func (w *Workspace) DocumentPath() string {
	return filepath.Join(w.dir, documentName)
}

// Release removes the workspace and everything in it
func (w *Workspace) Release() error {
	w.once.Do(func() {
		w.release = os.RemoveAll(w.dir)
		if w.release != nil {
			log.WithError(w.release).WithField("dir", w.dir).Warn("failed to remove workspace")
		}
	})
	return w.release
}
