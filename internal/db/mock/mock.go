package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ahara/internal/db"
	applog "ahara/internal/log"
	"ahara/models"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "ahara-demo"

// New returns an in-memory sqlite database seeded with a representative practice.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:ahara-mock-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func ptr(v float64) *float64 { return &v }

// Foods returns the seeded catalogue.
func Foods() []models.Food {
	return []models.Food{
		{
			Name: "Basmati Rice", Category: "grains", CuisineType: "indian", PrimaryTaste: models.TasteSweet,
			Temperature: models.TemperatureCold, Digestibility: models.DigestibilityEasy, Vipaka: "sweet",
			CaloriesPer100g: 130, ProteinG: ptr(2.7), CarbsG: ptr(28.2), FatG: ptr(0.3), FiberG: ptr(0.4),
			DoshaEffects: &models.DoshaEffects{Vata: "decrease", Pitta: "decrease", Kapha: "increase"},
		},
		{
			Name: "Mung Dal", Category: "legumes", CuisineType: "indian", PrimaryTaste: models.TasteSweet,
			SecondaryTastes: []string{models.TasteAstringent}, Temperature: models.TemperatureCold,
			Digestibility: models.DigestibilityEasy, Vipaka: "sweet",
			CaloriesPer100g: 347, ProteinG: ptr(24), CarbsG: ptr(63), FatG: ptr(1.2), FiberG: ptr(16.3), IronMg: ptr(6.7),
			DoshaEffects: &models.DoshaEffects{Vata: "neutral", Pitta: "-", Kapha: "-"},
		},
		{
			Name: "Ghee", Category: "dairy", CuisineType: "indian", PrimaryTaste: models.TasteSweet,
			Temperature: models.TemperatureCold, Digestibility: models.DigestibilityModerate, Vipaka: "sweet",
			CaloriesPer100g: 900, FatG: ptr(99.8), VitaminAMcg: ptr(840),
			DoshaEffects: &models.DoshaEffects{Vata: "-", Pitta: "-", Kapha: "+"},
		},
		{
			Name: "Fresh Ginger", Category: "spices", PrimaryTaste: models.TastePungent,
			SecondaryTastes: []string{models.TasteSweet}, Temperature: models.TemperatureHot,
			Digestibility: models.DigestibilityEasy, Vipaka: "sweet",
			CaloriesPer100g: 80, ProteinG: ptr(1.8), CarbsG: ptr(17.8), FatG: ptr(0.8), FiberG: ptr(2),
			DoshaEffects: &models.DoshaEffects{Vata: "decrease", Pitta: "increase", Kapha: "decrease"},
		},
		{
			Name: "Bitter Gourd", Category: "vegetables", CuisineType: "indian", PrimaryTaste: models.TasteBitter,
			Temperature: models.TemperatureCold, Digestibility: models.DigestibilityModerate, Vipaka: "pungent",
			CaloriesPer100g: 17, ProteinG: ptr(1), CarbsG: ptr(3.7), FatG: ptr(0.2), FiberG: ptr(2.8), VitaminCMg: ptr(84),
			DoshaEffects: &models.DoshaEffects{Vata: "+", Pitta: "-", Kapha: "-"},
		},
		{
			Name: "Yogurt", Category: "dairy", PrimaryTaste: models.TasteSour, Temperature: models.TemperatureHot,
			Digestibility: models.DigestibilityDifficult, Vipaka: "sour",
			CaloriesPer100g: 61, ProteinG: ptr(3.5), CarbsG: ptr(4.7), FatG: ptr(3.3), CalciumMg: ptr(121),
			DoshaEffects: &models.DoshaEffects{Vata: "decrease", Pitta: "increase", Kapha: "increase"},
		},
		{
			Name: "Pomegranate", Category: "fruits", PrimaryTaste: models.TasteAstringent,
			SecondaryTastes: []string{models.TasteSweet, models.TasteSour}, Temperature: models.TemperatureCold,
			Digestibility: models.DigestibilityEasy, Vipaka: "sweet",
			CaloriesPer100g: 83, ProteinG: ptr(1.7), CarbsG: ptr(18.7), FatG: ptr(1.2), FiberG: ptr(4), VitaminCMg: ptr(10.2),
			DoshaEffects: &models.DoshaEffects{Vata: "increase", Pitta: "decrease", Kapha: "decrease"},
		},
		{
			Name: "Rock Salt", Category: "spices", PrimaryTaste: models.TasteSalty, Temperature: models.TemperatureNeutral,
			Digestibility: models.DigestibilityEasy, CaloriesPer100g: 0,
		},
		{
			Name: "Barley", Category: "grains", PrimaryTaste: models.TasteSweet, SecondaryTastes: []string{models.TasteAstringent},
			Temperature: models.TemperatureCold, Digestibility: models.DigestibilityModerate, Vipaka: "sweet",
			CaloriesPer100g: 354, ProteinG: ptr(12.5), CarbsG: ptr(73.5), FatG: ptr(2.3), FiberG: ptr(17.3),
			DoshaEffects: &models.DoshaEffects{Vata: "increase", Pitta: "decrease", Kapha: "decrease"},
		},
		{
			Name: "Sesame Oil", Category: "oils", PrimaryTaste: models.TasteSweet, SecondaryTastes: []string{models.TasteBitter},
			Temperature: models.TemperatureHot, Digestibility: models.DigestibilityDifficult, Vipaka: "sweet",
			CaloriesPer100g: 884, FatG: ptr(100),
			DoshaEffects: &models.DoshaEffects{Vata: "-", Pitta: "+", Kapha: "neutral"},
		},
	}
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")
	tx := database.WithContext(ctx)

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	dietitian := &models.User{
		Name:           "Dr. Meera Iyer",
		Email:          "meera@ahara.app",
		PasswordHash:   string(password),
		Role:           models.RoleDietitian,
		Qualification:  "BAMS",
		Specialization: "Ayurvedic nutrition",
	}
	admin := &models.User{
		Name:         "Practice Admin",
		Email:        "admin@ahara.app",
		PasswordHash: string(password),
		Role:         models.RoleAdmin,
	}
	patientAccount := &models.User{
		Name:         "Arjun Nair",
		Email:        "arjun@ahara.app",
		PasswordHash: string(password),
		Role:         models.RolePatient,
	}
	for _, user := range []*models.User{dietitian, admin, patientAccount} {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
	}

	foods := Foods()
	for i := range foods {
		foods[i].IsActive = true
	}
	if err := tx.Create(&foods).Error; err != nil {
		return err
	}
	byName := make(map[string]uint, len(foods))
	for _, food := range foods {
		byName[food.Name] = food.ID
	}

	patient := &models.Patient{
		PractitionerID:    dietitian.ID,
		FullName:          "Arjun Nair",
		Email:             patientAccount.Email,
		Age:               34,
		Gender:            models.GenderMale,
		DietaryHabit:      models.HabitVegetarian,
		MealFrequency:     3,
		WaterIntakeLiters: 2.5,
		HeightCm:          ptr(176),
		WeightKg:          ptr(72),
		AssessedDosha:     "pitta",
		MedicalHistory:    "Acid reflux after spicy meals.",
	}
	if err := tx.Create(patient).Error; err != nil {
		return err
	}

	chart := &models.DietChart{
		PatientID:      patient.ID,
		PractitionerID: dietitian.ID,
		ChartDate:      time.Now().UTC().Format("2006-01-02"),
		Title:          "Pitta pacifying day",
		Notes:          "Favour cooling foods and regular meal times.",
		Items: []models.DietChartItem{
			{FoodID: byName["Basmati Rice"], MealType: "lunch", QuantityGrams: 150, SortOrder: 0},
			{FoodID: byName["Mung Dal"], MealType: "lunch", QuantityGrams: 60, SortOrder: 1},
			{FoodID: byName["Ghee"], MealType: "lunch", QuantityGrams: 5, SortOrder: 2},
			{FoodID: byName["Pomegranate"], MealType: "breakfast", QuantityGrams: 120, SortOrder: 0},
		},
	}
	total := 130*1.5 + 347*0.6 + 900*0.05 + 83*1.2
	chart.TotalCalories = &total
	if err := tx.Create(chart).Error; err != nil {
		return err
	}

	template := &models.MealPlanTemplate{
		PractitionerID: dietitian.ID,
		Name:           "Kapha light week",
		Description:    "Light, warm meals with pungent and bitter accents.",
		TargetDosha:    string(models.Kapha),
		Items: []models.MealPlanTemplateItem{
			{DayOfWeek: 0, MealType: "breakfast", FoodID: byName["Pomegranate"], QuantityGrams: 150},
			{DayOfWeek: 0, MealType: "lunch", FoodID: byName["Barley"], QuantityGrams: 80},
			{DayOfWeek: 2, MealType: "lunch", FoodID: byName["Bitter Gourd"], QuantityGrams: 120},
			{DayOfWeek: 4, MealType: "dinner", FoodID: byName["Mung Dal"], QuantityGrams: 60},
			{DayOfWeek: 6, MealType: "snacks", FoodID: byName["Fresh Ginger"], QuantityGrams: 10},
		},
	}
	if err := tx.Create(template).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded", "foods", len(foods))
	return nil
}
