package pages

type workspaceLink struct {
	Label string
	Href  string
}

var workspaceLinks = []workspaceLink{
	{Label: "Dashboard", Href: "/app/api/dashboard"},
	{Label: "Patients", Href: "/app/api/patients"},
	{Label: "Foods", Href: "/app/api/foods"},
	{Label: "Diet charts", Href: "/app/api/diet-charts"},
	{Label: "Meal calendar", Href: "/app/api/meal-calendar"},
	{Label: "Meal templates", Href: "/app/api/meal-templates"},
	{Label: "Dosha quiz", Href: "/app/api/dosha-quiz"},
	{Label: "Profile", Href: "/app/api/profile"},
}

var patientLinks = []workspaceLink{
	{Label: "My plan", Href: "/app/api/my-plan"},
	{Label: "Dosha quiz", Href: "/app/api/dosha-quiz"},
	{Label: "Profile", Href: "/app/api/profile"},
}

func linksFor(patient bool) []workspaceLink {
	if patient {
		return patientLinks
	}
	return workspaceLinks
}
