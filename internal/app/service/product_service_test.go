package service

import (
	"fmt"
	"testing"

	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/internal/app/repository"
	"github.com/minlee/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (ProductService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	return NewProductService(productRepo), testDB
}

func TestProductService_CreateProduct(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	product := &model.Product{
		Name:  "Test Shirt",
		Slug:  "test-shirt",
		Price: "25.00",
		Stock: 10,
	}
	err := productService.CreateProduct(product)
	require.NoError(t, err)
	assert.NotZero(t, product.ID)

	fetched, err := productService.GetProductBySlug("test-shirt")
	require.NoError(t, err)
	assert.Equal(t, "Test Shirt", fetched.Name)
}

func TestProductService_CreateProduct_InvalidPrice(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	err := productService.CreateProduct(&model.Product{
		Name:  "Bad Price",
		Slug:  "bad-price",
		Price: "twenty bucks",
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestProductService_GetLatestProducts_Limit(t *testing.T) {
	productService, testDB := setupProductServiceTest(t)

	for i := 0; i < 6; i++ {
		testDB.Create(&model.Product{
			Name:  fmt.Sprintf("Product %d", i),
			Slug:  fmt.Sprintf("product-%d", i),
			Price: "10.00",
		})
	}

	products, err := productService.GetLatestProducts(4)
	require.NoError(t, err)
	assert.Len(t, products, 4)

	products, err = productService.GetLatestProducts(0)
	require.NoError(t, err)
	assert.Len(t, products, 6)
}

func TestProductService_GetFeaturedProducts(t *testing.T) {
	productService, testDB := setupProductServiceTest(t)

	testDB.Create(&model.Product{Name: "Plain", Slug: "plain", Price: "10.00"})
	testDB.Create(&model.Product{Name: "Shiny", Slug: "shiny", Price: "20.00", IsFeatured: true, Banner: "/images/banner-1.jpg"})

	products, err := productService.GetFeaturedProducts(4)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Shiny", products[0].Name)
}

func TestProductService_GetProductBySlug_NotFound(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	_, err := productService.GetProductBySlug("nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_UpdateProduct(t *testing.T) {
	productService, testDB := setupProductServiceTest(t)

	product := &model.Product{Name: "Old", Slug: "old", Price: "10.00", Stock: 1}
	testDB.Create(product)

	product.Name = "New"
	product.Price = "12.50"
	require.NoError(t, productService.UpdateProduct(product))

	fetched, err := productService.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", fetched.Name)
	assert.Equal(t, "12.50", fetched.Price)
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	productService, _ := setupProductServiceTest(t)

	err := productService.UpdateProduct(&model.Product{ID: 9999, Name: "Ghost", Slug: "ghost", Price: "1.00"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_DeleteProduct(t *testing.T) {
	productService, testDB := setupProductServiceTest(t)

	product := &model.Product{Name: "Doomed", Slug: "doomed", Price: "10.00"}
	testDB.Create(product)

	require.NoError(t, productService.DeleteProduct(product.ID))

	_, err := productService.GetProductByID(product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	err = productService.DeleteProduct(product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
