package checkpointer

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Rolling saves an object to consecutively numbered files
// model-1.gob, model-2.gob, ... in a directory, keeping only the most
// recent files.
//
// Checkpoints already in the directory are kept in the rolling window,
// and numbering continues after the most recent of them.
type Rolling struct {
	object    Saver
	dir       string
	maxModels int
	last      int
	saved     []string
}

// NewRolling returns a new Rolling checkpointer which saves object into
// dir. If maxModels > 0, only the maxModels most recent files are
// kept.
func NewRolling(dir string, maxModels int, object Saver) (*Rolling, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "newRolling: could not create %v", dir)
	}

	saved, err := Models(dir)
	if err != nil {
		return nil, errors.Wrap(err, "newRolling")
	}
	var last int
	if len(saved) > 0 {
		last, _ = modelNumber(saved[len(saved)-1])
	}

	return &Rolling{
		object:    object,
		dir:       dir,
		maxModels: maxModels,
		last:      last,
		saved:     saved,
	}, nil
}

// Checkpoint saves the object to the next file, removing the oldest
// saved files while more than the maximum number of files are kept
func (r *Rolling) Checkpoint(episode int) error {
	filename := modelName(r.dir, r.last+1)
	if err := r.object.Save(filename); err != nil {
		return errors.Wrapf(err, "checkpoint: could not save episode %d",
			episode)
	}
	r.last++
	r.saved = append(r.saved, filename)
	log.WithFields(log.Fields{
		"episode": episode,
		"file":    filename,
	}).Debug("saved checkpoint")

	for r.maxModels > 0 && len(r.saved) > r.maxModels {
		if err := os.Remove(r.saved[0]); err != nil {
			return errors.Wrapf(err, "checkpoint: could not remove %v",
				r.saved[0])
		}
		r.saved = r.saved[1:]
	}
	return nil
}

// Saved returns the files currently kept by the checkpointer, oldest
// first
func (r *Rolling) Saved() []string {
	return r.saved
}
