package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/minlee/storefront-backend/config"
	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/internal/db"
	"github.com/minlee/storefront-backend/pkg/money"
	"github.com/minlee/storefront-backend/pkg/util"
	"github.com/xuri/excelize/v2"
)

// Seeds the database with demo accounts and a product catalog. With no
// arguments the built-in sample catalog is used; pass an xlsx path to
// import a catalog file instead (columns: name, category, brand,
// description, image, price, stock, featured).
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	var products []model.Product
	if len(os.Args) > 1 {
		filePath := os.Args[1]
		fmt.Printf("Reading XLSX file: %s\n", filePath)
		products, err = readProductsFromXLSX(filePath)
		if err != nil {
			log.Fatal("Failed to read XLSX:", err)
		}
	} else {
		products = sampleProducts()
	}

	fmt.Printf("Total products to import: %d\n", len(products))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	if err := seedUsers(); err != nil {
		log.Fatal("Failed to seed users:", err)
	}

	if err := db.GetDB().CreateInBatches(products, 100).Error; err != nil {
		log.Fatal("Failed to import products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

func seedUsers() error {
	adminHash, err := util.HashPassword("admin1234")
	if err != nil {
		return err
	}
	userHash, err := util.HashPassword("user1234")
	if err != nil {
		return err
	}

	users := []model.User{
		{Name: "Admin", Email: "admin@example.com", PasswordHash: adminHash, Role: model.RoleAdmin},
		{Name: "Jane Doe", Email: "jane@example.com", PasswordHash: userHash, Role: model.RoleUser},
	}

	for _, u := range users {
		result := db.GetDB().Where("email = ?", u.Email).FirstOrCreate(&u)
		if result.Error != nil {
			return result.Error
		}
		fmt.Printf("Seeded account: %s (%s)\n", u.Email, u.Role)
	}
	return nil
}

func sampleProducts() []model.Product {
	return []model.Product{
		{
			Name:        "Polo Sporting Stretch Shirt",
			Slug:        "polo-sporting-stretch-shirt",
			Category:    "Men's Dress Shirts",
			Brand:       "Polo",
			Description: "Classic Polo style with modern comfort",
			Image:       "/images/sample-products/p1-1.jpg",
			Price:       "59.99",
			Stock:       5,
			IsFeatured:  true,
			Banner:      "/images/banner-1.jpg",
		},
		{
			Name:        "Brooks Brothers Long Sleeved Shirt",
			Slug:        "brooks-brothers-long-sleeved-shirt",
			Category:    "Men's Dress Shirts",
			Brand:       "Brooks Brothers",
			Description: "Timeless style and premium comfort",
			Image:       "/images/sample-products/p2-1.jpg",
			Price:       "85.90",
			Stock:       10,
			IsFeatured:  true,
			Banner:      "/images/banner-2.jpg",
		},
		{
			Name:        "Tommy Hilfiger Classic Fit Dress Shirt",
			Slug:        "tommy-hilfiger-classic-fit-dress-shirt",
			Category:    "Men's Dress Shirts",
			Brand:       "Tommy Hilfiger",
			Description: "A perfect blend of sophistication and comfort",
			Image:       "/images/sample-products/p3-1.jpg",
			Price:       "99.95",
			Stock:       0,
		},
		{
			Name:        "Calvin Klein Slim Fit Stretch Shirt",
			Slug:        "calvin-klein-slim-fit-stretch-shirt",
			Category:    "Men's Dress Shirts",
			Brand:       "Calvin Klein",
			Description: "Streamlined design with flexible stretch fabric",
			Image:       "/images/sample-products/p4-1.jpg",
			Price:       "39.95",
			Stock:       10,
		},
		{
			Name:        "Polo Ralph Lauren Oxford Shirt",
			Slug:        "polo-ralph-lauren-oxford-shirt",
			Category:    "Men's Dress Shirts",
			Brand:       "Polo",
			Description: "Iconic Oxford style with refined details",
			Image:       "/images/sample-products/p5-1.jpg",
			Price:       "79.99",
			Stock:       6,
		},
		{
			Name:        "Polo Classic Pink Hoodie",
			Slug:        "polo-classic-pink-hoodie",
			Category:    "Men's Sweatshirts",
			Brand:       "Polo",
			Description: "Soft, stylish, and perfect for laid-back days",
			Image:       "/images/sample-products/p6-1.jpg",
			Price:       "99.99",
			Stock:       8,
		},
	}
}

func readProductsFromXLSX(filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	slugCounter := make(map[string]int)
	skippedCount := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}
		if len(row) < 7 {
			skippedCount++
			continue
		}

		name := strings.TrimSpace(row[0])
		category := strings.TrimSpace(row[1])
		brand := strings.TrimSpace(row[2])
		description := strings.TrimSpace(row[3])
		image := strings.TrimSpace(row[4])
		priceStr := strings.TrimSpace(row[5])
		stockStr := strings.TrimSpace(row[6])
		featured := len(row) > 7 && strings.EqualFold(strings.TrimSpace(row[7]), "yes")

		if name == "" || priceStr == "" {
			skippedCount++
			continue
		}

		price, err := money.Parse(priceStr)
		if err != nil {
			skippedCount++
			continue
		}

		stock, err := strconv.Atoi(stockStr)
		if err != nil || stock < 0 {
			skippedCount++
			continue
		}

		baseSlug := generateSlug(name)
		slug := baseSlug
		if count, exists := slugCounter[baseSlug]; exists {
			slugCounter[baseSlug] = count + 1
			slug = fmt.Sprintf("%s-%d", baseSlug, count+1)
		} else {
			slugCounter[baseSlug] = 1
		}

		products = append(products, model.Product{
			Name:        name,
			Slug:        slug,
			Category:    category,
			Brand:       brand,
			Description: description,
			Image:       image,
			Price:       money.Format(price),
			Stock:       stock,
			IsFeatured:  featured,
		})
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid products: %d\n", len(products))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)

	return products, nil
}

func generateSlug(name string) string {
	slug := strings.ToLower(name)

	reg := regexp.MustCompile(`[^\p{L}\p{N}-]+`)
	slug = reg.ReplaceAllString(slug, "-")

	reg = regexp.MustCompile(`-+`)
	slug = reg.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}
