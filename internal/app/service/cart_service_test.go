package service

import (
	"testing"
	"time"

	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/internal/app/repository"
	"github.com/minlee/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	cartService := NewCartService(cartRepo, testDB)

	// Create test user
	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	testDB.Create(user)

	// Create test product
	product := &model.Product{
		Name:  "Test Shirt",
		Slug:  "test-shirt",
		Price: "25.00",
		Stock: 10,
	}
	testDB.Create(product)

	return cartService, user, product, testDB
}

func userOwner(user *model.User) CartOwner {
	return CartOwner{UserID: &user.ID}
}

func currentStock(t *testing.T, testDB *gorm.DB, productID uint) int {
	t.Helper()
	var product model.Product
	require.NoError(t, testDB.First(&product, productID).Error)
	return product.Stock
}

func TestCartService_GetCart_NoCart(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	cart, err := cartService.GetCart(userOwner(user))
	assert.NoError(t, err)
	assert.Nil(t, cart)
}

func TestCartService_GetCart_MissingIdentity(t *testing.T) {
	cartService, _, _, _ := setupCartServiceTest(t)

	_, err := cartService.GetCart(CartOwner{})
	assert.ErrorIs(t, err, ErrCartSessionMissing)
}

func TestCartService_AddOrUpdateItem_CreatesCart(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	message, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "Test Shirt added to cart", message)

	cart, err := cartService.GetCart(userOwner(user))
	require.NoError(t, err)
	require.NotNil(t, cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Qty)
	assert.Equal(t, "25.00", cart.Items[0].Price)

	// Three units reserved from stock
	assert.Equal(t, 7, currentStock(t, testDB, product.ID))

	// 75.00 is under the free shipping threshold
	assert.Equal(t, "75.00", cart.ItemsPrice)
	assert.Equal(t, "10.00", cart.ShippingPrice)
	assert.Equal(t, "11.25", cart.TaxPrice)
	assert.Equal(t, "96.25", cart.TotalPrice)
}

func TestCartService_AddOrUpdateItem_InvalidQuantity(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = cartService.AddOrUpdateItem(userOwner(user), product.ID, -2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_AddOrUpdateItem_ProductNotFound(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddOrUpdateItem_InsufficientStock(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 100)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Failed mutation left nothing behind
	assert.Equal(t, 10, currentStock(t, testDB, product.ID))
	cart, err := cartService.GetCart(userOwner(user))
	assert.NoError(t, err)
	assert.Nil(t, cart)
}

func TestCartService_AddOrUpdateItem_IncreaseReservesStock(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 2)
	require.NoError(t, err)

	message, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, "Test Shirt updated in cart", message)

	cart, _ := cartService.GetCart(userOwner(user))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Qty)
	assert.Equal(t, 5, currentStock(t, testDB, product.ID))
}

func TestCartService_AddOrUpdateItem_DecreaseRestoresStock(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 5)
	require.NoError(t, err)

	_, err = cartService.AddOrUpdateItem(userOwner(user), product.ID, 2)
	require.NoError(t, err)

	cart, _ := cartService.GetCart(userOwner(user))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Qty)
	assert.Equal(t, 8, currentStock(t, testDB, product.ID))
}

func TestCartService_AddOrUpdateItem_SameQuantityNoOp(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 2)
	require.NoError(t, err)

	message, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, "Test Shirt is already in the cart", message)
	assert.Equal(t, 8, currentStock(t, testDB, product.ID))
}

func TestCartService_AddOrUpdateItem_InsufficientStockLeavesCartUntouched(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 8)
	require.NoError(t, err)
	require.Equal(t, 2, currentStock(t, testDB, product.ID))

	// Needs 3 more units but only 2 remain
	_, err = cartService.AddOrUpdateItem(userOwner(user), product.ID, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	cart, _ := cartService.GetCart(userOwner(user))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 8, cart.Items[0].Qty)
	assert.Equal(t, 2, currentStock(t, testDB, product.ID))
}

func TestCartService_AddOrUpdateItem_AnonymousSession(t *testing.T) {
	cartService, _, product, testDB := setupCartServiceTest(t)
	owner := CartOwner{SessionID: "session-abc"}

	_, err := cartService.AddOrUpdateItem(owner, product.ID, 4)
	require.NoError(t, err)

	cart, err := cartService.GetCart(owner)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Nil(t, cart.UserID)
	assert.Equal(t, "session-abc", cart.SessionCartID)
	assert.Equal(t, 6, currentStock(t, testDB, product.ID))
}

func TestCartService_RemoveOneUnit_DecrementsAndRestores(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 2)
	require.NoError(t, err)

	message, err := cartService.RemoveOneUnit(userOwner(user), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Shirt quantity decreased", message)

	cart, _ := cartService.GetCart(userOwner(user))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Qty)
	assert.Equal(t, 9, currentStock(t, testDB, product.ID))
}

func TestCartService_RemoveOneUnit_DeletesLastUnit(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 1)
	require.NoError(t, err)

	message, err := cartService.RemoveOneUnit(userOwner(user), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Shirt removed from cart", message)

	cart, _ := cartService.GetCart(userOwner(user))
	require.NotNil(t, cart)
	assert.Len(t, cart.Items, 0)
	assert.Equal(t, 10, currentStock(t, testDB, product.ID))
}

func TestCartService_RemoveOneUnit_NotInCart(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	// No cart at all
	_, err := cartService.RemoveOneUnit(userOwner(user), product.ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	// Cart exists but holds a different product
	other := &model.Product{Name: "Other", Slug: "other", Price: "5.00", Stock: 3}
	testDB.Create(other)
	_, err = cartService.AddOrUpdateItem(userOwner(user), other.ID, 1)
	require.NoError(t, err)

	_, err = cartService.RemoveOneUnit(userOwner(user), product.ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_StockConservation(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)
	owner := userOwner(user)

	// Stock plus reserved cart units must stay constant through any
	// sequence of mutations.
	check := func(wantQty int) {
		t.Helper()
		stock := currentStock(t, testDB, product.ID)
		qty := 0
		cart, err := cartService.GetCart(owner)
		require.NoError(t, err)
		if cart != nil {
			for _, item := range cart.Items {
				qty += item.Qty
			}
		}
		assert.Equal(t, wantQty, qty)
		assert.Equal(t, 10, stock+qty)
	}

	_, err := cartService.AddOrUpdateItem(owner, product.ID, 4)
	require.NoError(t, err)
	check(4)

	_, err = cartService.AddOrUpdateItem(owner, product.ID, 7)
	require.NoError(t, err)
	check(7)

	_, err = cartService.AddOrUpdateItem(owner, product.ID, 20)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	check(7)

	_, err = cartService.RemoveOneUnit(owner, product.ID)
	require.NoError(t, err)
	check(6)

	_, err = cartService.AddOrUpdateItem(owner, product.ID, 1)
	require.NoError(t, err)
	check(1)

	_, err = cartService.RemoveOneUnit(owner, product.ID)
	require.NoError(t, err)
	check(0)
}

func TestCartService_MergeSessionCart_TransfersOwnership(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)
	sessionOwner := CartOwner{SessionID: "session-merge"}

	_, err := cartService.AddOrUpdateItem(sessionOwner, product.ID, 2)
	require.NoError(t, err)

	err = cartService.MergeSessionCart(user.ID, "session-merge")
	require.NoError(t, err)

	cart, err := cartService.GetCart(userOwner(user))
	require.NoError(t, err)
	require.NotNil(t, cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Qty)

	// The session identity no longer resolves to the cart
	sessionCart, err := cartService.GetCart(sessionOwner)
	assert.NoError(t, err)
	assert.Nil(t, sessionCart)

	assert.Equal(t, 8, currentStock(t, testDB, product.ID))
}

func TestCartService_MergeSessionCart_DiscardsUserCartAndRestoresStock(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)
	sessionOwner := CartOwner{SessionID: "session-merge"}

	// The user already has a cart holding 3 units, the anonymous session
	// holds 2.
	_, err := cartService.AddOrUpdateItem(userOwner(user), product.ID, 3)
	require.NoError(t, err)
	_, err = cartService.AddOrUpdateItem(sessionOwner, product.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 5, currentStock(t, testDB, product.ID))

	err = cartService.MergeSessionCart(user.ID, "session-merge")
	require.NoError(t, err)

	// The session cart replaced the user cart; the discarded cart's 3
	// units went back to stock.
	cart, err := cartService.GetCart(userOwner(user))
	require.NoError(t, err)
	require.NotNil(t, cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Qty)
	assert.Equal(t, 8, currentStock(t, testDB, product.ID))

	var count int64
	testDB.Model(&model.Cart{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCartService_MergeSessionCart_NoSessionCart(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	err := cartService.MergeSessionCart(user.ID, "never-seen")
	assert.NoError(t, err)

	err = cartService.MergeSessionCart(user.ID, "")
	assert.NoError(t, err)
}

func TestCartService_ReleaseAbandoned(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	_, err := cartService.AddOrUpdateItem(CartOwner{SessionID: "stale"}, product.ID, 4)
	require.NoError(t, err)
	// A user cart is never reclaimed
	_, err = cartService.AddOrUpdateItem(userOwner(user), product.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 4, currentStock(t, testDB, product.ID))

	// Nothing is old enough yet
	released, err := cartService.ReleaseAbandoned(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	// Age the anonymous cart past the cutoff
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, testDB.Model(&model.Cart{}).
		Where("session_cart_id = ?", "stale").
		UpdateColumn("updated_at", past).Error)

	released, err = cartService.ReleaseAbandoned(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	// The anonymous cart's 4 units are back; the user cart is untouched
	assert.Equal(t, 8, currentStock(t, testDB, product.ID))
	cart, err := cartService.GetCart(CartOwner{SessionID: "stale"})
	assert.NoError(t, err)
	assert.Nil(t, cart)
	userCart, err := cartService.GetCart(userOwner(user))
	require.NoError(t, err)
	require.NotNil(t, userCart)
	assert.Len(t, userCart.Items, 1)
}

func TestCartService_ReleaseAbandoned_SkipsCartTouchedAfterScan(t *testing.T) {
	svc, _, product, testDB := setupCartServiceTest(t)
	engine := svc.(*cartService)

	owner := CartOwner{SessionID: "drifting-session"}
	_, err := svc.AddOrUpdateItem(owner, product.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 8, currentStock(t, testDB, product.ID))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, testDB.Model(&model.Cart{}).
		Where("session_cart_id = ?", owner.SessionID).
		UpdateColumn("updated_at", past).Error)

	cutoff := time.Now().Add(-time.Hour)
	stale, err := engine.cartRepo.FindAbandonedAnonymous(cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	// The shopper comes back between the scan and the release.
	_, err = svc.AddOrUpdateItem(owner, product.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 5, currentStock(t, testDB, product.ID))

	// Releasing the stale snapshot must not restore the old quantity.
	ok, err := engine.releaseCart(stale[0].ID, cutoff)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 5, currentStock(t, testDB, product.ID))
	cart, err := svc.GetCart(owner)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, 5, cart.Items[0].Qty)
}

func TestCartService_StaleSaveFailsWithConflict(t *testing.T) {
	svc, user, product, testDB := setupCartServiceTest(t)
	engine := svc.(*cartService)

	_, err := svc.AddOrUpdateItem(userOwner(user), product.ID, 3)
	require.NoError(t, err)

	snapshot, err := engine.cartRepo.FindByUser(user.ID)
	require.NoError(t, err)

	// A concurrent writer advances the version behind the snapshot.
	require.NoError(t, testDB.Model(&model.Cart{}).
		Where("id = ?", snapshot.ID).
		UpdateColumn("version", snapshot.Version+1).Error)

	err = engine.savePrices(testDB, snapshot)
	assert.ErrorIs(t, err, ErrCartConflict)

	// The stored row keeps the winning writer's state.
	var stored model.Cart
	require.NoError(t, testDB.First(&stored, snapshot.ID).Error)
	assert.Equal(t, snapshot.Version+1, stored.Version)
	assert.Equal(t, "96.25", stored.TotalPrice)
	assert.Equal(t, 7, currentStock(t, testDB, product.ID))
}

func TestCartService_GetCart_SignedInIgnoresSessionCart(t *testing.T) {
	svc, user, product, testDB := setupCartServiceTest(t)

	sessionOwner := CartOwner{SessionID: "left-over-cookie"}
	_, err := svc.AddOrUpdateItem(sessionOwner, product.ID, 2)
	require.NoError(t, err)

	// Signed in with the cookie still attached: reads resolve to the user
	// cart, the same cart the mutations target.
	both := CartOwner{UserID: &user.ID, SessionID: sessionOwner.SessionID}
	cart, err := svc.GetCart(both)
	require.NoError(t, err)
	assert.Nil(t, cart)

	_, err = svc.AddOrUpdateItem(both, product.ID, 1)
	require.NoError(t, err)

	cart, err = svc.GetCart(both)
	require.NoError(t, err)
	require.NotNil(t, cart)
	require.NotNil(t, cart.UserID)
	assert.Equal(t, user.ID, *cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Qty)

	// The anonymous cart stays put until MergeSessionCart claims it.
	anon, err := svc.GetCart(sessionOwner)
	require.NoError(t, err)
	require.NotNil(t, anon)
	assert.Equal(t, 2, anon.Items[0].Qty)
	assert.Equal(t, 7, currentStock(t, testDB, product.ID))
}
