package entitlement

import "context"

type snapshotCtxKey struct{}

// SetSnapshotToContext returns a context carrying the snapshot. Request
// middleware typically attaches the snapshot once so every handler in the
// request evaluates against the same consistent view.
func SetSnapshotToContext(ctx context.Context, snap *Snapshot) context.Context {
	return context.WithValue(ctx, snapshotCtxKey{}, snap)
}

// GetSnapshotFromContext retrieves the snapshot from the context.
func GetSnapshotFromContext(ctx context.Context) (*Snapshot, bool) {
	snap, ok := ctx.Value(snapshotCtxKey{}).(*Snapshot)
	return snap, ok
}

// SnapshotFromContextOrDefault retrieves the snapshot from the context,
// falling back to the fail-safe default when none is attached.
func SnapshotFromContextOrDefault(ctx context.Context) *Snapshot {
	if snap, ok := GetSnapshotFromContext(ctx); ok && snap != nil {
		return snap
	}
	return DefaultSnapshot()
}
