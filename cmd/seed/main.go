package main

import (
	"fmt"
	"log"

	"github.com/pixelsock/matrix-configurator-backend/config"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/model"
	"github.com/pixelsock/matrix-configurator-backend/internal/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seeds a demo "Deco" mirror product line: categories, options, the
// product catalog and a few constraint rules. Intended for local
// development against an empty database.
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

	gdb := db.GetDB()

	var existing int64
	gdb.Model(&model.ProductLine{}).Where("slug = ?", "deco").Count(&existing)
	if existing > 0 {
		fmt.Println("Product line 'deco' already exists, nothing to do.")
		return
	}

	fmt.Print("Seed the demo 'deco' product line? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Seed cancelled.")
		return
	}

	if err := seedDeco(gdb); err != nil {
		log.Fatal("Failed to seed demo catalog:", err)
	}

	fmt.Println("Seed completed successfully!")
}

func seedDeco(gdb *gorm.DB) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		line := model.ProductLine{
			Name:        "Deco",
			Slug:        "deco",
			Description: "Framed LED mirror line",
			BasePrice:   decimal.NewFromInt(450),
			Active:      true,
		}
		if err := tx.Create(&line).Error; err != nil {
			return err
		}

		categories := []model.ProductLineCategory{
			{ProductLineID: line.ID, Category: model.CategoryMirrorStyle, Position: 1, Required: true},
			{ProductLineID: line.ID, Category: model.CategoryLightDirection, Position: 2, Required: true},
			{ProductLineID: line.ID, Category: model.CategorySize, Position: 3, Required: true},
			{ProductLineID: line.ID, Category: model.CategoryLightOutput, Position: 4, Required: true},
			{ProductLineID: line.ID, Category: model.CategoryColorTemperature, Position: 5, Required: true},
			{ProductLineID: line.ID, Category: model.CategoryDriver, Position: 6, Required: true},
			{ProductLineID: line.ID, Category: model.CategoryFrameColor, Position: 7, Required: true},
			{ProductLineID: line.ID, Category: model.CategoryMounting, Position: 8, Required: true},
			{ProductLineID: line.ID, Category: model.CategoryAccessory, Position: 9, Required: false},
		}
		if err := tx.Create(&categories).Error; err != nil {
			return err
		}

		options := map[string]*model.Option{}
		create := func(key string, option model.Option) error {
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
			options[key] = &option
			return nil
		}

		seedOptions := []struct {
			key    string
			option model.Option
		}{
			{"style-full", model.Option{Category: model.CategoryMirrorStyle, Name: "Full Frame Edge", SKUCode: "01", SortOrder: 1}},
			{"style-circle", model.Option{Category: model.CategoryMirrorStyle, Name: "Circle Edge", SKUCode: "02", SortOrder: 2}},
			{"style-inset", model.Option{Category: model.CategoryMirrorStyle, Name: "Full Frame Inset", SKUCode: "05", SortOrder: 3}},

			{"dir-direct", model.Option{Category: model.CategoryLightDirection, Name: "Direct", SKUCode: "D", SortOrder: 1}},
			{"dir-indirect", model.Option{Category: model.CategoryLightDirection, Name: "Indirect", SKUCode: "I", SortOrder: 2}},
			{"dir-both", model.Option{Category: model.CategoryLightDirection, Name: "Direct and Indirect", SKUCode: "B", SortOrder: 3, PriceModifier: decimal.NewFromInt(80)}},

			{"size-2436", model.Option{Category: model.CategorySize, Name: `24" x 36"`, SKUCode: "2436", SortOrder: 1, Width: 24, Height: 36}},
			{"size-3036", model.Option{Category: model.CategorySize, Name: `30" x 36"`, SKUCode: "3036", SortOrder: 2, Width: 30, Height: 36, PriceModifier: decimal.NewFromInt(60)}},
			{"size-3642", model.Option{Category: model.CategorySize, Name: `36" x 42"`, SKUCode: "3642", SortOrder: 3, Width: 36, Height: 42, PriceModifier: decimal.NewFromInt(140)}},

			{"out-standard", model.Option{Category: model.CategoryLightOutput, Name: "Standard", SKUCode: "S", SortOrder: 1}},
			{"out-high", model.Option{Category: model.CategoryLightOutput, Name: "High", SKUCode: "H", SortOrder: 2, PriceModifier: decimal.NewFromInt(50)}},

			{"temp-27", model.Option{Category: model.CategoryColorTemperature, Name: "2700K", SKUCode: "27", SortOrder: 1}},
			{"temp-30", model.Option{Category: model.CategoryColorTemperature, Name: "3000K", SKUCode: "30", SortOrder: 2}},
			{"temp-adjust", model.Option{Category: model.CategoryColorTemperature, Name: "Adjustable", SKUCode: "AD", SortOrder: 3, PriceModifier: decimal.NewFromInt(45)}},

			{"drv-voltage", model.Option{Category: model.CategoryDriver, Name: "Constant Voltage", SKUCode: "V", SortOrder: 1}},
			{"drv-dim01", model.Option{Category: model.CategoryDriver, Name: "0-10V Dimming", SKUCode: "0", SortOrder: 2, PriceModifier: decimal.NewFromInt(35)}},
			{"drv-elv", model.Option{Category: model.CategoryDriver, Name: "ELV Dimming", SKUCode: "E", SortOrder: 3, PriceModifier: decimal.NewFromInt(55)}},

			{"frame-black", model.Option{Category: model.CategoryFrameColor, Name: "Matte Black", SKUCode: "BF", SortOrder: 1, HexColor: "#1C1C1C"}},
			{"frame-gold", model.Option{Category: model.CategoryFrameColor, Name: "Brushed Gold", SKUCode: "GF", SortOrder: 2, HexColor: "#C9A227", PriceModifier: decimal.NewFromInt(90)}},
			{"frame-silver", model.Option{Category: model.CategoryFrameColor, Name: "Brushed Silver", SKUCode: "SF", SortOrder: 3, HexColor: "#C0C0C0"}},

			{"mount-portrait", model.Option{Category: model.CategoryMounting, Name: "Portrait", SKUCode: "P", SortOrder: 1}},
			{"mount-landscape", model.Option{Category: model.CategoryMounting, Name: "Landscape", SKUCode: "L", SortOrder: 2}},

			{"acc-nightlight", model.Option{Category: model.CategoryAccessory, Name: "Night Light", SKUCode: "NL", SortOrder: 1, PriceModifier: decimal.NewFromInt(40)}},
			{"acc-antifog", model.Option{Category: model.CategoryAccessory, Name: "Anti-Fog", SKUCode: "AF", SortOrder: 2, PriceModifier: decimal.NewFromInt(65)}},
		}
		for _, entry := range seedOptions {
			if err := create(entry.key, entry.option); err != nil {
				return err
			}
		}

		var lineOptions []model.ProductLineOption
		for _, option := range options {
			lineOptions = append(lineOptions, model.ProductLineOption{
				ProductLineID: line.ID,
				Category:      option.Category,
				OptionID:      option.ID,
			})
		}
		if err := tx.Create(&lineOptions).Error; err != nil {
			return err
		}

		// One catalog row per style and light direction pairing. The circle
		// style ships direct-light only, which is what makes the indirect
		// and combined directions unreachable when it is selected.
		type variant struct {
			style, direction string
		}
		variants := []variant{
			{"style-full", "dir-direct"},
			{"style-full", "dir-indirect"},
			{"style-full", "dir-both"},
			{"style-circle", "dir-direct"},
			{"style-inset", "dir-direct"},
			{"style-inset", "dir-both"},
		}
		for _, v := range variants {
			style := options[v.style]
			direction := options[v.direction]
			product := model.Product{
				ProductLineID:    line.ID,
				Name:             fmt.Sprintf("%s %s", style.Name, direction.Name),
				SKUCode:          fmt.Sprintf("T%s%s", style.SKUCode, direction.SKUCode),
				Active:           true,
				MirrorStyleID:    &style.ID,
				LightDirectionID: &direction.ID,
			}
			if err := tx.Create(&product).Error; err != nil {
				return err
			}

			// The gold frame is not produced for the circle style
			if v.style == "style-circle" {
				overrides := []model.ProductOptionOverride{
					{ProductID: product.ID, Category: model.CategoryFrameColor, OptionID: options["frame-black"].ID},
					{ProductID: product.ID, Category: model.CategoryFrameColor, OptionID: options["frame-silver"].ID},
				}
				if err := tx.Create(&overrides).Error; err != nil {
					return err
				}
			}
		}

		priority := func(n int) *int { return &n }
		rules := []model.Rule{
			{
				ProductLineID: line.ID,
				Name:          "Dimming drivers require high output",
				Priority:      priority(1),
				IfThis:        fmt.Sprintf(`{"driver":{"_in":[%d,%d]}}`, options["drv-dim01"].ID, options["drv-elv"].ID),
				ThenThat:      fmt.Sprintf(`{"light_output":{"_eq":%d}}`, options["out-high"].ID),
			},
			{
				ProductLineID: line.ID,
				Name:          "Indirect light keeps fixed color temperatures",
				Priority:      priority(2),
				IfThis:        fmt.Sprintf(`{"light_direction":{"_eq":%d}}`, options["dir-indirect"].ID),
				ThenThat:      fmt.Sprintf(`{"color_temperature":{"_in":[%d,%d]}}`, options["temp-27"].ID, options["temp-30"].ID),
			},
			{
				ProductLineID: line.ID,
				Name:          "Circle style renders its own imagery",
				IfThis:        fmt.Sprintf(`{"mirror_style":{"_eq":%d}}`, options["style-circle"].ID),
				ThenThat:      `{"product_image":"https://cdn.example.com/deco/circle.png"}`,
			},
		}
		if err := tx.Create(&rules).Error; err != nil {
			return err
		}

		fmt.Printf("Seeded product line %q: %d categories, %d options, %d products, %d rules\n",
			line.Slug, len(categories), len(seedOptions), len(variants), len(rules))
		return nil
	})
}
