package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/gausamvardhan/storefront-backend/config"
	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/app/repository"
	"github.com/gausamvardhan/storefront-backend/internal/cart"
	"github.com/gausamvardhan/storefront-backend/internal/db"
)

// catalog sheet columns, matched case-insensitively against the header row
const (
	colName         = "name"
	colCategory     = "category"
	colPrice        = "price"
	colCutPrice     = "cutprice"
	colPricePerGram = "pricepergram"
	colPacks        = "packs"
	colVolumes      = "volumes"
	colImages       = "images"
	colDescription  = "description"
)

func main() {
	assumeYes := flag.Bool("y", false, "import without asking for confirmation")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/seed [-y] <catalog.xlsx>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	filePath := flag.Arg(0)

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

	productRepo := repository.NewProductRepository(db.GetDB())

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, skipped, err := readProductsFromXLSX(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Products to import: %d (skipped rows: %d)\n", len(products), skipped)
	if len(products) == 0 {
		return
	}

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := productRepo.CreateBatch(products); err != nil {
		log.Fatal("Failed to import products:", err)
	}

	fmt.Printf("Import completed: %d products\n", len(products))
}

func readProductsFromXLSX(r io.Reader) ([]model.Product, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	return parseProductRows(rows)
}

// parseProductRows maps the header row to columns and builds one product per
// data row. Rows without a name are skipped.
func parseProductRows(rows [][]string) ([]model.Product, int, error) {
	columns := make(map[string]int)
	for i, header := range rows[0] {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(header), " ", ""))
		columns[key] = i
	}
	if _, ok := columns[colName]; !ok {
		return nil, 0, fmt.Errorf("missing %q column", "Name")
	}
	if _, ok := columns[colPrice]; !ok {
		return nil, 0, fmt.Errorf("missing %q column", "Price")
	}

	var products []model.Product
	skipped := 0
	for _, row := range rows[1:] {
		cell := func(col string) string {
			i, ok := columns[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := cell(colName)
		if name == "" {
			skipped++
			continue
		}

		product := model.Product{
			Name:         name,
			Description:  cell(colDescription),
			Category:     model.ParseCategory(cell(colCategory)),
			Price:        cart.ParsePrice(cell(colPrice)),
			PricePerGram: cell(colPricePerGram),
			Packs:        cell(colPacks),
			Volumes:      cell(colVolumes),
			Images:       splitImages(cell(colImages)),
		}
		if raw := cell(colCutPrice); raw != "" {
			if cut := cart.ParsePrice(raw); cut.GreaterThan(decimal.Zero) {
				product.CutPrice = decimal.NewNullDecimal(cut)
			}
		}

		products = append(products, product)
	}
	return products, skipped, nil
}

func splitImages(raw string) model.ImageList {
	var images model.ImageList
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			images = append(images, part)
		}
	}
	return images
}
