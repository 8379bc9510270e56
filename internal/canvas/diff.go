package canvas

import (
	"sort"

	"github.com/roomstage/roomstage/pkg/models"
)

// Snapshot is the staged state at a point in time: the product items, the
// product-id set, the product-id to quantity map, and the singleton finishes.
// It is the unit of comparison for change detection and the restore payload
// for history navigation.
type Snapshot struct {
	Products   []*Item
	ProductIDs map[string]struct{}
	Quantities map[string]int
	WallColor  *models.WallColor
	Texture    *models.TextureVariant
	FloorTile  *models.FloorTile
}

// ChangeKind classifies the delta between the staged state and the last
// visualized snapshot. It drives the choice between an incremental edit
// request and a full re-render.
type ChangeKind string

const (
	// ChangeInitial means no prior visualization exists.
	ChangeInitial ChangeKind = "initial"
	// ChangeAdditive means only new items or quantity increases occurred.
	ChangeAdditive ChangeKind = "additive"
	// ChangeRemoval means items were removed and nothing was added.
	ChangeRemoval ChangeKind = "removal"
	// ChangeRemoveAndAdd means products were both added and removed while
	// surviving quantities stayed unchanged.
	ChangeRemoveAndAdd ChangeKind = "remove_and_add"
	// ChangeQuantityDecrease means only quantity reductions on products
	// that remain staged.
	ChangeQuantityDecrease ChangeKind = "quantity_decrease"
	// ChangeReset is the catch-all for mixed changes that cannot be applied
	// incrementally; callers issue a full re-render.
	ChangeReset ChangeKind = "reset"
	// ChangeNone means the staged state matches the last visualization.
	ChangeNone ChangeKind = "no_change"
)

// Incremental reports whether a change of this kind can be sent to the
// backend as an incremental edit instead of a full re-render.
func (k ChangeKind) Incremental() bool {
	switch k {
	case ChangeAdditive, ChangeRemoval, ChangeRemoveAndAdd, ChangeQuantityDecrease:
		return true
	}
	return false
}

// Change is the classified delta between two snapshots.
type Change struct {
	Kind ChangeKind

	// NewProducts are product items present in staged but not in last.
	NewProducts []*Item
	// RemovedProductIDs are product ids present in last but not staged.
	RemovedProductIDs []string
	// QuantityDeltas maps surviving product ids to staged minus last
	// quantity; zero deltas are omitted.
	QuantityDeltas map[string]int

	WallColorChanged bool
	TextureChanged   bool
	FloorTileChanged bool
}

// Detect classifies the difference between the currently staged snapshot and
// the last visualized one. It is a pure decision function: no store access,
// no network calls.
//
// Boundary between remove_and_add and reset: remove_and_add covers pure
// product membership changes (additions plus removals with surviving
// quantities intact and the wall slot untouched). Any mix that also
// decreases a surviving quantity, replaces the wall color, pairs a wall
// add or clear with opposite-direction product changes, or touches the
// texture/floor-tile slots is reset. A wall add riding along with pure
// additions stays additive; a wall clear with pure removals stays removal.
func Detect(staged, last *Snapshot) Change {
	if staged == nil {
		staged = &Snapshot{ProductIDs: map[string]struct{}{}, Quantities: map[string]int{}}
	}
	if last == nil {
		return Change{Kind: ChangeInitial, NewProducts: append([]*Item(nil), staged.Products...)}
	}

	change := Change{QuantityDeltas: map[string]int{}}

	for _, it := range staged.Products {
		pid := it.Product.ID
		if _, ok := last.ProductIDs[pid]; !ok {
			change.NewProducts = append(change.NewProducts, it)
		}
	}
	for pid := range last.ProductIDs {
		if _, ok := staged.ProductIDs[pid]; !ok {
			change.RemovedProductIDs = append(change.RemovedProductIDs, pid)
		}
	}
	sort.Strings(change.RemovedProductIDs)

	increases, decreases := 0, 0
	for pid, qty := range staged.Quantities {
		lastQty, ok := last.Quantities[pid]
		if !ok || qty == lastQty {
			continue
		}
		change.QuantityDeltas[pid] = qty - lastQty
		if qty > lastQty {
			increases++
		} else {
			decreases++
		}
	}

	wallAdded := last.WallColor == nil && staged.WallColor != nil
	wallRemoved := last.WallColor != nil && staged.WallColor == nil
	wallReplaced := last.WallColor != nil && staged.WallColor != nil && last.WallColor.ID != staged.WallColor.ID
	change.WallColorChanged = wallAdded || wallRemoved || wallReplaced
	change.TextureChanged = textureID(last.Texture) != textureID(staged.Texture)
	change.FloorTileChanged = tileID(last.FloorTile) != tileID(staged.FloorTile)

	productAdded := len(change.NewProducts) > 0 || increases > 0
	productRemoved := len(change.RemovedProductIDs) > 0
	added := productAdded || wallAdded
	removed := productRemoved || wallRemoved

	switch {
	case !added && !removed && decreases == 0 && !wallReplaced &&
		!change.TextureChanged && !change.FloorTileChanged:
		change.Kind = ChangeNone
	case wallReplaced || change.TextureChanged || change.FloorTileChanged:
		change.Kind = ChangeReset
	case added && !removed && decreases == 0:
		change.Kind = ChangeAdditive
	case removed && !added && decreases == 0:
		change.Kind = ChangeRemoval
	case productAdded && productRemoved && decreases == 0 && !wallAdded && !wallRemoved:
		change.Kind = ChangeRemoveAndAdd
	case decreases > 0 && !added && !removed:
		change.Kind = ChangeQuantityDecrease
	default:
		change.Kind = ChangeReset
	}
	return change
}

func textureID(t *models.TextureVariant) string {
	if t == nil {
		return ""
	}
	return t.ID
}

func tileID(t *models.FloorTile) string {
	if t == nil {
		return ""
	}
	return t.ID
}
