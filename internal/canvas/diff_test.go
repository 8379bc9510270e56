package canvas

import (
	"testing"

	"github.com/roomstage/roomstage/pkg/models"
)

// snap builds a snapshot from product-id to quantity pairs.
func snap(quantities map[string]int, wall *models.WallColor) *Snapshot {
	c := New()
	for id, qty := range quantities {
		for i := 0; i < qty; i++ {
			c.AddProduct(testProduct(id))
		}
	}
	if wall != nil {
		c.AddWallColor(*wall)
	}
	return c.Snapshot()
}

func TestDetectInitial(t *testing.T) {
	change := Detect(snap(map[string]int{"a": 1}, nil), nil)
	if change.Kind != ChangeInitial {
		t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeInitial)
	}
	if len(change.NewProducts) != 1 {
		t.Fatalf("expected initial change to list staged products")
	}
}

func TestDetectAdditive(t *testing.T) {
	staged := snap(map[string]int{"a": 1, "b": 2}, nil)
	last := snap(map[string]int{"a": 1}, nil)

	change := Detect(staged, last)
	if change.Kind != ChangeAdditive {
		t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeAdditive)
	}
	if len(change.NewProducts) != 1 || change.NewProducts[0].Product.ID != "b" {
		t.Fatalf("expected new product b, got %+v", change.NewProducts)
	}
	if !change.Kind.Incremental() {
		t.Fatalf("additive change should be incremental")
	}
}

func TestDetectRemoval(t *testing.T) {
	staged := snap(map[string]int{"a": 1}, nil)
	last := snap(map[string]int{"a": 1, "b": 2}, nil)

	change := Detect(staged, last)
	if change.Kind != ChangeRemoval {
		t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeRemoval)
	}
	if len(change.RemovedProductIDs) != 1 || change.RemovedProductIDs[0] != "b" {
		t.Fatalf("expected removed product b, got %v", change.RemovedProductIDs)
	}
}

func TestDetectQuantityDecrease(t *testing.T) {
	staged := snap(map[string]int{"a": 1}, nil)
	last := snap(map[string]int{"a": 2}, nil)

	change := Detect(staged, last)
	if change.Kind != ChangeQuantityDecrease {
		t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeQuantityDecrease)
	}
	if got := change.QuantityDeltas["a"]; got != -1 {
		t.Fatalf("expected delta -1 on a, got %d", got)
	}
}

func TestDetectNoChange(t *testing.T) {
	staged := snap(map[string]int{"a": 1, "b": 2}, &models.WallColor{ID: "w1"})
	last := snap(map[string]int{"a": 1, "b": 2}, &models.WallColor{ID: "w1"})

	change := Detect(staged, last)
	if change.Kind != ChangeNone {
		t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeNone)
	}
}

func TestDetectRemoveAndAdd(t *testing.T) {
	staged := snap(map[string]int{"a": 1, "c": 1}, nil)
	last := snap(map[string]int{"a": 1, "b": 1}, nil)

	change := Detect(staged, last)
	if change.Kind != ChangeRemoveAndAdd {
		t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeRemoveAndAdd)
	}
}

func TestDetectResetOnMixedChanges(t *testing.T) {
	tests := []struct {
		name   string
		staged *Snapshot
		last   *Snapshot
	}{
		{
			name:   "decrease plus addition",
			staged: snap(map[string]int{"a": 1, "c": 1}, nil),
			last:   snap(map[string]int{"a": 2}, nil),
		},
		{
			name:   "decrease plus removal",
			staged: snap(map[string]int{"a": 1}, nil),
			last:   snap(map[string]int{"a": 2, "b": 1}, nil),
		},
		{
			name:   "wall color replaced",
			staged: snap(map[string]int{"a": 1}, &models.WallColor{ID: "w2"}),
			last:   snap(map[string]int{"a": 1}, &models.WallColor{ID: "w1"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := Detect(tt.staged, tt.last)
			if change.Kind != ChangeReset {
				t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeReset)
			}
			if change.Kind.Incremental() {
				t.Fatalf("reset must not be incremental")
			}
		})
	}
}

func TestDetectWallSlotMixedWithOppositeProductChange(t *testing.T) {
	tests := []struct {
		name   string
		staged *Snapshot
		last   *Snapshot
	}{
		{
			name:   "wall added while product removed",
			staged: snap(map[string]int{"a": 1}, &models.WallColor{ID: "w1"}),
			last:   snap(map[string]int{"a": 1, "b": 1}, nil),
		},
		{
			name:   "wall cleared while product added",
			staged: snap(map[string]int{"a": 1, "c": 1}, nil),
			last:   snap(map[string]int{"a": 1}, &models.WallColor{ID: "w1"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := Detect(tt.staged, tt.last)
			if change.Kind != ChangeReset {
				t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeReset)
			}
			if !change.WallColorChanged {
				t.Fatalf("expected WallColorChanged to be set")
			}
		})
	}
}

func TestDetectWallSlotWithSameDirectionProductChange(t *testing.T) {
	added := Detect(
		snap(map[string]int{"a": 1, "b": 1}, &models.WallColor{ID: "w1"}),
		snap(map[string]int{"a": 1}, nil),
	)
	if added.Kind != ChangeAdditive {
		t.Fatalf("wall add with product add: kind = %s, want %s", added.Kind, ChangeAdditive)
	}

	removed := Detect(
		snap(map[string]int{"a": 1}, nil),
		snap(map[string]int{"a": 1, "b": 1}, &models.WallColor{ID: "w1"}),
	)
	if removed.Kind != ChangeRemoval {
		t.Fatalf("wall clear with product removal: kind = %s, want %s", removed.Kind, ChangeRemoval)
	}
}

func TestDetectProductSwapWithWallSlotChangeIsReset(t *testing.T) {
	change := Detect(
		snap(map[string]int{"a": 1, "c": 1}, &models.WallColor{ID: "w1"}),
		snap(map[string]int{"a": 1, "b": 1}, nil),
	)
	if change.Kind != ChangeReset {
		t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeReset)
	}
}

func TestDetectWallColorOnly(t *testing.T) {
	added := Detect(snap(nil, &models.WallColor{ID: "w1"}), snap(nil, nil))
	if added.Kind != ChangeAdditive || !added.WallColorChanged {
		t.Fatalf("wall color add: kind = %s, changed = %v", added.Kind, added.WallColorChanged)
	}

	removed := Detect(snap(nil, nil), snap(nil, &models.WallColor{ID: "w1"}))
	if removed.Kind != ChangeRemoval {
		t.Fatalf("wall color removal: kind = %s, want %s", removed.Kind, ChangeRemoval)
	}
}

func TestDetectQuantityIncreaseIsAdditive(t *testing.T) {
	staged := snap(map[string]int{"a": 3}, nil)
	last := snap(map[string]int{"a": 1}, nil)

	change := Detect(staged, last)
	if change.Kind != ChangeAdditive {
		t.Fatalf("Detect() kind = %s, want %s", change.Kind, ChangeAdditive)
	}
	if got := change.QuantityDeltas["a"]; got != 2 {
		t.Fatalf("expected delta +2 on a, got %d", got)
	}
}
