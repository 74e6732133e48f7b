package dmx

// Changes flags which semantic fields of a snapshot differ from the committed
// state. Target and mode are discrete events; volume and effects are
// continuous but idempotent.
type Changes struct {
	Target  bool
	Mode    bool
	Volume  bool
	Effects bool
}

// Any reports whether anything changed.
func (c Changes) Any() bool {
	return c.Target || c.Mode || c.Volume || c.Effects
}

// Detector suppresses re-application of unchanged semantic state. It diffs
// decoded snapshots, never raw bytes, so distinct bytes inside one band (a
// playmode band, a rotation quartile) do not retrigger anything.
type Detector struct {
	committed Snapshot
	valid     bool
}

// Diff compares a decoded snapshot against the committed state. Before the
// first commit every field counts as changed.
func (d *Detector) Diff(next Snapshot) Changes {
	if !d.valid {
		return Changes{Target: true, Mode: true, Volume: true, Effects: true}
	}
	return Changes{
		Target:  next.FileIndex != d.committed.FileIndex || next.FolderIndex != d.committed.FolderIndex,
		Mode:    next.Mode != d.committed.Mode,
		Volume:  next.Volume != d.committed.Volume,
		Effects: next.Effects != d.committed.Effects,
	}
}

// Commit records the snapshot as the new committed state. The whole snapshot
// commits at once: a frame is never partially applied.
func (d *Detector) Commit(next Snapshot) {
	d.committed = next
	d.valid = true
}

// Reset forgets the committed state; the next frame counts as fully changed
// again.
func (d *Detector) Reset() {
	d.valid = false
}

// Committed returns the committed snapshot, if any.
func (d *Detector) Committed() (Snapshot, bool) {
	return d.committed, d.valid
}
