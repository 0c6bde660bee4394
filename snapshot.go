package damper

// Snapshot is the filtered view of watched state at one evaluation instant.
// Values are carried by reference from the source; the filter does not copy
// or transform them.
type Snapshot map[string]any

// helperFields are form-helper bookkeeping fields excluded by default so
// that a host form library's internal state never registers as a change.
var helperFields = map[string]struct{}{
	"isDirty":            {},
	"errors":             {},
	"hasErrors":          {},
	"processing":         {},
	"progress":           {},
	"wasSuccessful":      {},
	"recentlySuccessful": {},
	"data":               {},
	"transform":          {},
	"defaults":           {},
	"reset":              {},
	"setError":           {},
	"clearErrors":        {},
	"submit":             {},
	"get":                {},
	"post":               {},
	"put":                {},
	"patch":              {},
	"delete":             {},
	"cancel":             {},
}

// filterSnapshot returns a fresh mapping containing only the keys of snap
// that are in neither the explicit skip list nor, when skipHelpers is set,
// the default helper-field set. Pure and synchronous; called fresh on every
// evaluation since the source may have changed since the last call.
func filterSnapshot(snap Snapshot, skip map[string]struct{}, skipHelpers bool) Snapshot {
	out := make(Snapshot, len(snap))
	for name, value := range snap {
		if _, ok := skip[name]; ok {
			continue
		}
		if skipHelpers {
			if _, ok := helperFields[name]; ok {
				continue
			}
		}
		out[name] = value
	}
	return out
}
