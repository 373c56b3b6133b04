// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/nutriplan/planner/internal/domain/recipe"
	gormModels "github.com/nutriplan/planner/internal/infrastructure/persistence/gorm"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDatabase creates and configures the SQLite database. Foreign keys
// are switched on so meals cannot point at missing recipes.
func SetupDatabase(dbPath string, gormLog logger.Interface) (*gorm.DB, error) {
	memory := dbPath == "" || dbPath == ":memory:"

	dsn := dbPath
	if memory {
		dsn = "file::memory:"
	}
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormLog,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every connection to :memory: is its own database
	if memory {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Run auto-migration
	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase populates the database with a demo consumer and a small
// approved catalog for style samples
func SeedDatabase(db *gorm.DB) error {
	// Check if data already exists
	var userCount int64
	if err := db.Model(&gormModels.UserModel{}).Count(&userCount).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if userCount > 0 {
		return nil // Already seeded
	}

	weight, height, target := 72.5, 168.0, 65.0
	birth := time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)

	demoUsers := []gormModels.UserModel{
		{
			Email:                "ana@nutriplan.mx",
			Name:                 "Ana López",
			Role:                 "user",
			ActivityLevel:        "moderado",
			Goal:                 "bajar de peso",
			Diets:                gormModels.StringSlice{"mediterránea"},
			Allergies:            gormModels.StringSlice{"nuez"},
			Dislikes:             gormModels.StringSlice{"hígado"},
			FavouriteIngredients: gormModels.StringSlice{"aguacate", "frijol"},
			Locale:               "es-MX",
			BirthDate:            &birth,
			WeightKg:             &weight,
			HeightCm:             &height,
			TargetWeightKg:       &target,
		},
		{
			Email:  "revisor@nutriplan.mx",
			Name:   "Equipo de nutrición",
			Role:   "reviewer",
			Locale: "es-MX",
		},
	}

	// Create users
	for i := range demoUsers {
		if err := db.Create(&demoUsers[i]).Error; err != nil {
			return fmt.Errorf("failed to create demo user: %w", err)
		}
	}

	reviewer := demoUsers[1].ID
	qty := func(v float64) *float64 { return &v }

	demoRecipes := []gormModels.RecipeModel{
		{
			Title:       "Sopa de lentejas",
			Summary:     "Sopa espesa de lentejas con verduras",
			Kcal:        320,
			PrepTimeMin: 40,
			Servings:    4,
			Tags:        gormModels.StringSlice{"sopa", "legumbres"},
			Diets:       gormModels.StringSlice{"vegetariana"},
			Categories:  gormModels.StringSlice{"comida"},
			Ingredients: datatypes.NewJSONSlice([]recipe.Ingredient{
				{Name: "lenteja", Quantity: qty(250), Unit: "g"},
				{Name: "zanahoria", Quantity: qty(2), Unit: "pieza"},
				{Name: "jitomate", Quantity: qty(3), Unit: "pieza"},
			}),
			Steps: gormModels.StringSlice{
				"Remojar las lentejas una hora",
				"Sofreír jitomate y cebolla",
				"Hervir todo a fuego medio 30 minutos",
			},
			Local: true,
		},
		{
			Title:       "Avena con frutos rojos",
			Summary:     "Avena cocida con leche y fresas",
			Kcal:        280,
			PrepTimeMin: 10,
			Servings:    1,
			Tags:        gormModels.StringSlice{"desayuno"},
			Diets:       gormModels.StringSlice{"vegetariana"},
			Categories:  gormModels.StringSlice{"desayuno"},
			Ingredients: datatypes.NewJSONSlice([]recipe.Ingredient{
				{Name: "avena", Quantity: qty(50), Unit: "g"},
				{Name: "leche", Quantity: qty(200), Unit: "ml"},
				{Name: "fresas"},
			}),
			Steps: gormModels.StringSlice{"Cocer la avena en la leche", "Servir con la fruta"},
		},
		{
			Title:       "Tacos de pescado",
			Summary:     "Tacos de pescado a la plancha con col",
			Kcal:        450,
			PrepTimeMin: 25,
			Servings:    2,
			Tags:        gormModels.StringSlice{"tacos", "pescado"},
			Categories:  gormModels.StringSlice{"cena"},
			Ingredients: datatypes.NewJSONSlice([]recipe.Ingredient{
				{Name: "filete de pescado", Quantity: qty(300), Unit: "g"},
				{Name: "tortilla de maíz", Quantity: qty(6), Unit: "pieza"},
			}),
			Steps: gormModels.StringSlice{"Asar el pescado", "Armar los tacos"},
			Local: true,
		},
	}

	// Create recipes
	for i := range demoRecipes {
		demoRecipes[i].Source = "human"
		demoRecipes[i].AuthorID = reviewer
		demoRecipes[i].Status = "approved"
		demoRecipes[i].ReviewerID = &reviewer
		if err := db.Create(&demoRecipes[i]).Error; err != nil {
			return fmt.Errorf("failed to create demo recipe: %w", err)
		}
	}

	return nil
}
