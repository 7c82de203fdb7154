package models

// PointKind selects which of a player's two point sequences an operation
// targets.
type PointKind string

const (
	PointKindRaid    PointKind = "raid"
	PointKindDefense PointKind = "defense"
)

func (k PointKind) Valid() bool {
	return k == PointKindRaid || k == PointKindDefense
}
