package trackfit

// StitchKeys returns the primary keys followed by the secondary keys, each
// in its own order. Keys present in both are kept twice; neither input is
// modified.
func StitchKeys(primary, secondary []HitKey) []HitKey {
	out := make([]HitKey, 0, len(primary)+len(secondary))
	out = append(out, primary...)
	return append(out, secondary...)
}
