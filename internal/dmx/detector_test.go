package dmx

import "testing"

func decode(t *testing.T, values ...int) Snapshot {
	t.Helper()
	snap, err := Decode(values)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return snap
}

func TestDetectorFirstFrameChangesEverything(t *testing.T) {
	var d Detector
	snap := decode(t, 1, 0, 0, 200, 255, 128, 128, 128, 128, 0, 128, 128, 128)
	changes := d.Diff(snap)
	if !changes.Target || !changes.Mode || !changes.Volume || !changes.Effects {
		t.Fatalf("expected all fields changed on first frame, got %+v", changes)
	}
}

func TestDetectorIdempotence(t *testing.T) {
	var d Detector
	snap := decode(t, 1, 0, 50, 200, 255, 128, 128, 128, 128, 0, 128, 128, 128)
	d.Commit(snap)

	if changes := d.Diff(snap); changes.Any() {
		t.Fatalf("expected no changes for identical snapshot, got %+v", changes)
	}
}

func TestDetectorIgnoresRawByteNoiseInsideBands(t *testing.T) {
	var d Detector
	d.Commit(decode(t, 1, 0, 200, 200, 255, 128, 128, 128, 128, 0, 128, 128, 128))

	// Different raw playmode byte, same loop band; different raw rotation
	// byte, same quartile.
	next := decode(t, 1, 0, 250, 200, 255, 128, 128, 128, 128, 40, 128, 128, 128)
	if changes := d.Diff(next); changes.Any() {
		t.Fatalf("expected band noise to be suppressed, got %+v", changes)
	}
}

func TestDetectorDiscreteAndContinuousFields(t *testing.T) {
	var d Detector
	d.Commit(decode(t, 3, 1, 50, 200, 255, 128, 128, 128, 128, 0, 128, 128, 128))

	mode := d.Diff(decode(t, 3, 1, 200, 200, 255, 128, 128, 128, 128, 0, 128, 128, 128))
	if !mode.Mode || mode.Target || mode.Volume || mode.Effects {
		t.Fatalf("expected mode-only change, got %+v", mode)
	}

	target := d.Diff(decode(t, 4, 1, 50, 200, 255, 128, 128, 128, 128, 0, 128, 128, 128))
	if !target.Target || target.Mode {
		t.Fatalf("expected target change, got %+v", target)
	}

	volume := d.Diff(decode(t, 3, 1, 50, 100, 255, 128, 128, 128, 128, 0, 128, 128, 128))
	if !volume.Volume || volume.Target || volume.Mode || volume.Effects {
		t.Fatalf("expected volume-only change, got %+v", volume)
	}

	effects := d.Diff(decode(t, 3, 1, 50, 200, 255, 200, 128, 128, 128, 0, 128, 128, 128))
	if !effects.Effects || effects.Target || effects.Mode || effects.Volume {
		t.Fatalf("expected effects-only change, got %+v", effects)
	}
}

func TestDetectorCommitReplacesWholeSnapshot(t *testing.T) {
	var d Detector
	first := decode(t, 1, 0, 0, 200, 255, 128, 128, 128, 128, 0, 128, 128, 128)
	d.Commit(first)

	second := decode(t, 2, 1, 200, 100, 10, 200, 200, 200, 200, 200, 200, 200, 200)
	d.Commit(second)

	committed, ok := d.Committed()
	if !ok {
		t.Fatalf("expected committed snapshot")
	}
	if committed != second {
		t.Fatalf("expected full commit, got %+v", committed)
	}
}
