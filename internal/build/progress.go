package build

// Receives per-job status updates. Implemented by progress.Display.
type Reporter interface {
	Upsert(id, text string)
	Finish(id string, ok bool, text string)
}

// Reporter that drops every update.
type discard struct{}

func (discard) Upsert(string, string)       {}
func (discard) Finish(string, bool, string) {}
