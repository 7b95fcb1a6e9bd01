package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"ahara/internal/nutrition"
)

func render(t *testing.T, component templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := component.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestLoginPartialOmitsDocument(t *testing.T) {
	out := render(t, LoginPartial("Invalid email or password.", "meera@ahara.app"))
	if strings.Contains(out, "<html") {
		t.Fatalf("expected partial without document wrapper: %s", out)
	}
	for _, token := range []string{"Invalid email or password.", `value="meera@ahara.app"`, `action="/login"`} {
		if !strings.Contains(out, token) {
			t.Fatalf("expected output to contain %q: %s", token, out)
		}
	}
}

func TestLoginWrapsPartial(t *testing.T) {
	out := render(t, Login("", ""))
	if !strings.Contains(out, "<title>Sign in | Ahara</title>") {
		t.Fatalf("expected full document: %s", out)
	}
	if strings.Contains(out, `role="alert"`) {
		t.Fatalf("expected no message block without a message: %s", out)
	}
}

func TestSignupEscapesInput(t *testing.T) {
	out := render(t, SignupPartial("", `<script>x</script>`, "a@b.c", ""))
	if strings.Contains(out, "<script>x</script>") {
		t.Fatalf("expected name to be escaped: %s", out)
	}
	if !strings.Contains(out, `name="qualification"`) {
		t.Fatalf("expected practitioner profile fields: %s", out)
	}
}

func TestSignupOffersAccountTypes(t *testing.T) {
	out := render(t, Signup("", "Arjun", "arjun@example.com", "patient"))
	for _, token := range []string{`<select name="role">`, `<option value="dietitian">Dietitian</option>`, `<option value="patient" selected>Patient</option>`} {
		if !strings.Contains(out, token) {
			t.Fatalf("expected output to contain %q: %s", token, out)
		}
	}
	if strings.Contains(out, `value="admin"`) {
		t.Fatalf("expected no admin option: %s", out)
	}
}

func TestWorkspaceLinksByRole(t *testing.T) {
	practitioner := render(t, Workspace("Dr. Rao", false))
	if !strings.Contains(practitioner, `<li><a href="/app/api/patients">Patients</a></li>`) || !strings.Contains(practitioner, `id="food-import"`) {
		t.Fatalf("expected practitioner tools: %s", practitioner)
	}
	patient := render(t, Workspace("Arjun", true))
	if !strings.Contains(patient, `<li><a href="/app/api/my-plan">My plan</a></li>`) {
		t.Fatalf("expected the patient plan link: %s", patient)
	}
	if strings.Contains(patient, "food-import") || strings.Contains(patient, "/app/api/patients") {
		t.Fatalf("expected practitioner tools to be hidden: %s", patient)
	}
}

func TestDietChartDocument(t *testing.T) {
	view := DietChartView{
		Title:       "Week one",
		ChartDate:   "2025-03-12",
		PatientName: "Arjun Nair",
		Dosha:       "kapha",
		Meals: []DietChartMeal{{
			MealType: "breakfast",
			Items:    []DietChartItem{{FoodName: "Oats & Ginger", Quantity: 150, Calories: 177}},
			Calories: 177,
		}},
		Totals: nutrition.Totals{Calories: 177, Protein: 6.25},
	}
	out := render(t, DietChartDocument(view))
	for _, token := range []string{"<title>Week one</title>", "<li>Patient: <strong>Arjun Nair</strong></li>", "<li>Dosha: kapha</li>", "Oats &amp; Ginger", "<td>150</td>", "Subtotal: 177 kcal", "<td>6.3 g</td>"} {
		if !strings.Contains(out, token) {
			t.Fatalf("expected output to contain %q: %s", token, out)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{100: "100", 12.5: "12.5", 0: "0", 3.04: "3"}
	for value, want := range tests {
		if got := formatAmount(value); got != want {
			t.Fatalf("formatAmount(%v) = %q, want %q", value, got, want)
		}
	}
}
