package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"ahara/internal/catalog"
	"ahara/internal/config"
	"ahara/internal/db"
	applog "ahara/internal/log"
	"ahara/models"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

func main() {
	csvPath := "foods.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		return err
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	records, err := readCSV(file)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	summary, err := importRecords(ctx, database, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d foods from %s (%d created, %d updated)\n",
		summary.Created+summary.Updated, filepath.Base(csvPath), summary.Created, summary.Updated)
	return nil
}

// importRecords upserts each row in its own transaction. The first failing row stops the
// import; earlier rows stay committed.
func importRecords(ctx context.Context, database *gorm.DB, records []map[string]string) (catalog.Summary, error) {
	var summary catalog.Summary
	for idx, record := range records {
		food := buildFood(record)
		err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			outcome, err := catalog.Upsert(ctx, tx, &food)
			if err != nil {
				return err
			}
			switch outcome {
			case catalog.Created:
				summary.Created++
			case catalog.Updated:
				summary.Updated++
			}
			applog.Debug(ctx, "food imported", "name", food.Name, "outcome", outcome.String())
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("record %d (%s): %w", idx+1, record["name"], err)
		}
		summary.Foods = append(summary.Foods, food)
	}
	return summary, nil
}

// readCSV returns one map per data row keyed by the lower-cased header.
func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for idx, key := range rows[0] {
		header[idx] = strings.ToLower(strings.TrimSpace(key))
	}
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func buildFood(row map[string]string) models.Food {
	taste := strings.ToLower(normalizeValue(row["primary_taste"]))
	if !models.ValidTaste(taste) {
		taste = models.TasteSweet
	}
	temperature := strings.ToLower(normalizeValue(row["temperature"]))
	if !models.ValidTemperature(temperature) {
		temperature = models.TemperatureNeutral
	}
	digestibility := strings.ToLower(normalizeValue(row["digestibility"]))
	if !models.ValidDigestibility(digestibility) {
		digestibility = models.DigestibilityModerate
	}

	food := models.Food{
		Name:            normalizeText(row["name"]),
		Category:        strings.ToLower(normalizeValue(row["category"])),
		Description:     normalizeText(row["description"]),
		CuisineType:     normalizeValue(row["cuisine_type"]),
		PrimaryTaste:    taste,
		SecondaryTastes: splitTastes(row["secondary_tastes"], taste),
		Temperature:     temperature,
		Digestibility:   digestibility,
		Vipaka:          strings.ToLower(normalizeValue(row["vipaka"])),
		CaloriesPer100g: parseFirstNumber(row["calories_per_100g"]),
		ProteinG:        optionalNumber(row["protein_g"]),
		CarbsG:          optionalNumber(row["carbs_g"]),
		FatG:            optionalNumber(row["fat_g"]),
		FiberG:          optionalNumber(row["fiber_g"]),
		CalciumMg:       optionalNumber(row["calcium_mg"]),
		IronMg:          optionalNumber(row["iron_mg"]),
		VitaminAMcg:     optionalNumber(row["vitamin_a_mcg"]),
		VitaminCMg:      optionalNumber(row["vitamin_c_mg"]),
	}

	vata, pitta, kapha := normalizeValue(row["vata"]), normalizeValue(row["pitta"]), normalizeValue(row["kapha"])
	if vata != "" || pitta != "" || kapha != "" {
		food.DoshaEffects = &models.DoshaEffects{
			Vata:  models.ClassifyEffect(vata).String(),
			Pitta: models.ClassifyEffect(pitta).String(),
			Kapha: models.ClassifyEffect(kapha).String(),
		}
	}
	return food
}

func splitTastes(value, primary string) []string {
	value = normalizeValue(value)
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, ";", ",")
	var tastes []string
	seen := map[string]struct{}{primary: {}}
	for _, part := range strings.Split(value, ",") {
		taste := strings.ToLower(strings.TrimSpace(part))
		if !models.ValidTaste(taste) {
			continue
		}
		if _, ok := seen[taste]; ok {
			continue
		}
		seen[taste] = struct{}{}
		tastes = append(tastes, taste)
	}
	return tastes
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func parseFirstNumber(value string) float64 {
	value = normalizeValue(value)
	if value == "" {
		return 0
	}

	matches := numberPattern.FindString(value)
	if matches == "" {
		return 0
	}

	parsed, err := strconv.ParseFloat(matches, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func optionalNumber(value string) *float64 {
	if normalizeValue(value) == "" || numberPattern.FindString(value) == "" {
		return nil
	}
	parsed := parseFirstNumber(value)
	return &parsed
}
