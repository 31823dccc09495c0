package projector

import "github.com/quiltdb/quilt/internal/types"

// View holds the decrypted log and its current projection for one open
// session. The projection is refolded from the sorted log on every change,
// which keeps the merge rules in exactly one place (Fold) and makes the
// cache trivially rebuildable.
type View struct {
	entries []Entry
	proj    *Projection
}

// NewView returns an empty view with an empty projection.
func NewView() *View {
	return &View{proj: Fold(nil)}
}

// Rebuild replaces the view with a fresh decode+fold of the stored log.
func (v *View) Rebuild(dec Decryptor, events []types.Event) error {
	entries := make([]Entry, 0, len(events))
	for _, ev := range events {
		entry, err := Decode(dec, ev)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	v.entries = entries
	v.proj = Fold(v.entries)
	return nil
}

// Extend adds already-decrypted entries (a local append or an imported
// batch) and refolds.
func (v *View) Extend(entries ...Entry) {
	v.entries = append(v.entries, entries...)
	v.proj = Fold(v.entries)
}

// Reset drops all decrypted state. Called when a session locks or closes.
func (v *View) Reset() {
	v.entries = nil
	v.proj = Fold(nil)
}

// Projection returns the current materialized task set.
func (v *View) Projection() *Projection {
	return v.proj
}
