package canvas

import (
	"testing"

	"github.com/roomstage/roomstage/pkg/models"
)

func price(v float64) *float64 { return &v }

func testProduct(id string) models.Product {
	return models.Product{ID: id, Name: "product " + id, Store: "acme", Price: price(100)}
}

func TestAddProductDedupesByID(t *testing.T) {
	c := New()
	for i := 0; i < 3; i++ {
		c.AddProduct(testProduct("sofa-1"))
	}

	products := c.Products()
	if len(products) != 1 {
		t.Fatalf("expected 1 staged product, got %d", len(products))
	}
	if products[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", products[0].Quantity)
	}
	if got := c.AddProduct(testProduct("sofa-1")); got != 4 {
		t.Fatalf("AddProduct() returned quantity %d, want 4", got)
	}
}

func TestSingletonKindsReplace(t *testing.T) {
	c := New()
	c.AddWallColor(models.WallColor{ID: "w1", Hex: "#aabbcc"})
	c.AddWallColor(models.WallColor{ID: "w2", Hex: "#ddeeff"})
	c.AddTexture(models.TextureVariant{ID: "v1"}, models.WallTexture{ID: "t1"})
	c.AddTexture(models.TextureVariant{ID: "v2"}, models.WallTexture{ID: "t1"})
	c.AddFloorTile(models.FloorTile{ID: "f1"})
	c.AddFloorTile(models.FloorTile{ID: "f2"})

	counts := map[ItemKind]int{}
	for _, it := range c.Items() {
		counts[it.Kind]++
	}
	for _, kind := range []ItemKind{KindWallColor, KindWallTexture, KindFloorTile} {
		if counts[kind] != 1 {
			t.Fatalf("expected exactly 1 %s item, got %d", kind, counts[kind])
		}
	}
	if got := c.WallColor().WallColor.ID; got != "w2" {
		t.Fatalf("expected wall color w2, got %s", got)
	}
	if got := c.TextureVariant().Texture.ID; got != "v2" {
		t.Fatalf("expected texture variant v2, got %s", got)
	}
	if got := c.FloorTile().FloorTile.ID; got != "f2" {
		t.Fatalf("expected floor tile f2, got %s", got)
	}
}

func TestUpdateQuantityRemovesAtZero(t *testing.T) {
	c := New()
	c.AddProduct(testProduct("chair-1"))
	c.AddProduct(testProduct("chair-1"))
	id := ItemID(KindProduct, "chair-1")

	c.UpdateQuantity(id, -1)
	if got := c.Products()[0].Quantity; got != 1 {
		t.Fatalf("expected quantity 1 after decrement, got %d", got)
	}

	c.UpdateQuantity(id, -5)
	if got := c.UniqueProductCount(); got != 0 {
		t.Fatalf("expected product removed when quantity <= 0, still have %d", got)
	}
}

func TestUpdateQuantityOnSingletonRemoves(t *testing.T) {
	c := New()
	c.AddWallColor(models.WallColor{ID: "w1"})
	c.UpdateQuantity(ItemID(KindWallColor, "w1"), 1)
	if c.WallColor() != nil {
		t.Fatalf("expected wall color removed by quantity update")
	}
}

func TestRemoveProduct(t *testing.T) {
	c := New()
	for i := 0; i < 3; i++ {
		c.AddProduct(testProduct("lamp-1"))
	}

	c.RemoveProduct("lamp-1", false)
	if got := c.Products()[0].Quantity; got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}

	c.RemoveProduct("lamp-1", true)
	if got := c.UniqueProductCount(); got != 0 {
		t.Fatalf("expected removeAll to delete the entry, have %d products", got)
	}

	// Unknown product is a no-op.
	c.RemoveProduct("missing", false)
}

func TestRemoveItemUnknownIsNoOp(t *testing.T) {
	c := New()
	c.AddProduct(testProduct("p1"))
	c.RemoveItem("product:other")
	if got := c.UniqueProductCount(); got != 1 {
		t.Fatalf("expected unrelated product untouched, have %d", got)
	}
}

func TestSelectors(t *testing.T) {
	c := New()
	p1 := testProduct("p1")
	p1.Price = price(100)
	p2 := testProduct("p2")
	p2.Price = price(50)
	p3 := testProduct("p3")
	p3.Price = nil

	c.AddProduct(p1)
	c.AddProduct(p1)
	c.AddProduct(p2)
	c.AddProduct(p3)
	c.AddWallColor(models.WallColor{ID: "w1"})
	c.AddFloorTile(models.FloorTile{ID: "f1"})

	if got := c.TotalPrice(); got != 250 {
		t.Fatalf("TotalPrice() = %v, want 250", got)
	}
	if got := c.UniqueProductCount(); got != 3 {
		t.Fatalf("UniqueProductCount() = %d, want 3", got)
	}
	// 2 + 1 + 1 product units, plus wall color and floor tile.
	if got := c.TotalItemCount(); got != 6 {
		t.Fatalf("TotalItemCount() = %d, want 6", got)
	}
	if c.TextureVariant() != nil {
		t.Fatalf("expected no texture staged")
	}
}

func TestItemsSortedByAddedAt(t *testing.T) {
	c := New()
	c.AddProduct(testProduct("a"))
	c.AddWallColor(models.WallColor{ID: "w"})
	c.AddProduct(testProduct("b"))

	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].AddedAt.Before(items[i-1].AddedAt) {
			t.Fatalf("items out of AddedAt order at %d", i)
		}
	}
	if items[0].EntityID() != "a" || items[1].EntityID() != "w" || items[2].EntityID() != "b" {
		t.Fatalf("unexpected item order: %s, %s, %s",
			items[0].EntityID(), items[1].EntityID(), items[2].EntityID())
	}
}

func TestSetItemsRestoresSnapshot(t *testing.T) {
	c := New()
	c.AddProduct(testProduct("p1"))
	c.AddProduct(testProduct("p1"))
	c.AddWallColor(models.WallColor{ID: "w1"})
	items := c.Items()

	restored := New()
	restored.AddProduct(testProduct("other"))
	restored.SetItems(items)

	if got := restored.UniqueProductCount(); got != 1 {
		t.Fatalf("expected 1 product after restore, got %d", got)
	}
	if got := restored.Products()[0].Quantity; got != 2 {
		t.Fatalf("expected restored quantity 2, got %d", got)
	}
	if restored.WallColor() == nil || restored.WallColor().WallColor.ID != "w1" {
		t.Fatalf("expected restored wall color w1")
	}
}

func TestSetProductsLeavesSingletonsIntact(t *testing.T) {
	c := New()
	c.AddWallColor(models.WallColor{ID: "w1"})
	c.SetProducts([]models.Product{testProduct("p1"), testProduct("p2")}, map[string]int{"p1": 3})

	if got := c.UniqueProductCount(); got != 2 {
		t.Fatalf("expected 2 products, got %d", got)
	}
	quantities := map[string]int{}
	for _, it := range c.Products() {
		quantities[it.Product.ID] = it.Quantity
	}
	if quantities["p1"] != 3 || quantities["p2"] != 1 {
		t.Fatalf("unexpected quantities: %v", quantities)
	}
	if c.WallColor() == nil {
		t.Fatalf("expected wall color to survive SetProducts")
	}
}

func TestClearAll(t *testing.T) {
	c := New()
	c.AddProduct(testProduct("p1"))
	c.AddWallColor(models.WallColor{ID: "w1"})
	c.AddFloorTile(models.FloorTile{ID: "f1"})
	c.ClearAll()

	if got := c.TotalItemCount(); got != 0 {
		t.Fatalf("expected empty canvas, TotalItemCount() = %d", got)
	}
}

func TestWatchDeliversMutations(t *testing.T) {
	c := New()
	ch, cancel := c.Watch()
	defer cancel()

	c.AddProduct(testProduct("p1"))

	select {
	case ev := <-ch:
		if ev.Op != "product.add" {
			t.Fatalf("expected product.add event, got %s", ev.Op)
		}
	default:
		t.Fatalf("expected a buffered change event")
	}
}
