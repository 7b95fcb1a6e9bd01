package pages

import "ahara/models"

type option struct {
	Value string
	Label string
}

type field struct {
	Label    string
	Name     string
	Type     string
	Value    string
	Required bool
	Options  []option
}

func loginFields(email string) []field {
	return []field{
		{Label: "Email", Name: "email", Type: "email", Value: email, Required: true},
		{Label: "Password", Name: "password", Type: "password", Required: true},
	}
}

func signupFields(name, email, role string) []field {
	return []field{
		{Label: "Full name", Name: "name", Type: "text", Value: name, Required: true},
		{Label: "Email", Name: "email", Type: "email", Value: email, Required: true},
		{Label: "Account type", Name: "role", Value: role, Options: []option{
			{Value: models.RoleDietitian, Label: "Dietitian"},
			{Value: models.RolePatient, Label: "Patient"},
		}},
		{Label: "Qualification", Name: "qualification", Type: "text"},
		{Label: "Specialization", Name: "specialization", Type: "text"},
		{Label: "Contact number", Name: "contact_number", Type: "text"},
		{Label: "Password", Name: "password", Type: "password", Required: true},
		{Label: "Confirm password", Name: "confirm_password", Type: "password", Required: true},
	}
}
