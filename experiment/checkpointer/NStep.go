package checkpointer

// nStep implements checkpointing every N episodes
type nStep struct {
	interval int
	Checkpointer
}

// NewNStep returns a checkpointer that checkpoints using c every n
// episodes, starting with episode 0
func NewNStep(n int, c Checkpointer) Checkpointer {
	return &nStep{
		interval:     n,
		Checkpointer: c,
	}
}

// Checkpoint checkpoints with the wrapped Checkpointer if the episode
// falls on the checkpointing interval
func (n *nStep) Checkpoint(episode int) error {
	if n.interval > 0 && episode%n.interval == 0 {
		return n.Checkpointer.Checkpoint(episode)
	}
	return nil
}
