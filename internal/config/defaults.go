package config

// DefaultFamily is the family written on first run: two children, two
// parents, a fortnightly rotation and the weekly school/activity timetable.
func DefaultFamily() FamilyConfig {
	weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

	return FamilyConfig{
		Children: []ChildConfig{
			{ID: "clara", Name: "Clara", Color: "#FFD6E0"},
			{ID: "vico", Name: "Vico", Color: "#D6E5FF"},
		},
		Parents: []ParentConfig{
			{ID: "mama", Name: "Mamá", Color: "#E6D6FF"},
			{ID: "papa", Name: "Papá", Color: "#D6FFE6"},
		},
		Tenancy: TenancyConfig{
			Even: map[string]string{
				"sunday":    "mama",
				"monday":    "papa",
				"tuesday":   "mama",
				"wednesday": "mama",
				"thursday":  "mama",
				"friday":    "papa",
				"saturday":  "papa",
			},
			Odd: map[string]string{
				"sunday":    "papa",
				"monday":    "mama",
				"tuesday":   "mama",
				"wednesday": "mama",
				"thursday":  "papa",
				"friday":    "mama",
				"saturday":  "mama",
			},
		},
		Activities: []ActivityConfig{
			{
				ID: "cole-vico", Title: "Cole Vico", Child: "vico", Category: "colegio",
				Days: weekdays,
				Schedule: map[string]SlotConfig{
					"monday":    {Start: "08:00", End: "12:00"},
					"tuesday":   {Start: "08:00", End: "12:00"},
					"wednesday": {Start: "08:00", End: "12:40"},
					"thursday":  {Start: "08:00", End: "12:00"},
					"friday":    {Start: "08:00", End: "12:00"},
				},
			},
			{
				ID: "cole-clara", Title: "Cole Clara", Child: "clara", Category: "colegio",
				Days: weekdays,
				Schedule: map[string]SlotConfig{
					"monday":    {Start: "14:00", End: "18:35"},
					"tuesday":   {Start: "14:00", End: "19:15"},
					"wednesday": {Start: "14:00", End: "19:15"},
					"thursday":  {Start: "14:00", End: "19:15"},
					"friday":    {Start: "14:00", End: "19:15"},
				},
			},
			{
				ID: "ingles-vico", Title: "Inglés Vico", Child: "vico", Category: "idioma",
				Days:     []string{"monday"},
				Schedule: map[string]SlotConfig{"monday": {Start: "16:00", End: "18:00"}},
			},
			{
				ID: "ingles-clara", Title: "Inglés Clara", Child: "clara", Category: "idioma",
				Days:     []string{"thursday"},
				Schedule: map[string]SlotConfig{"thursday": {Start: "09:00", End: "11:00", Note: "Ari/Clari"}},
			},
			{
				ID: "futbol-vico", Title: "Fútbol Vico", Child: "vico", Category: "deporte",
				Days: []string{"monday", "wednesday"},
				Schedule: map[string]SlotConfig{
					"monday":    {Start: "18:30", End: "20:00"},
					"wednesday": {Start: "18:30", End: "20:00"},
				},
			},
			{
				ID: "baile-clara", Title: "Baile Clara", Child: "clara", Category: "danza",
				Days: []string{"monday", "friday"},
				Schedule: map[string]SlotConfig{
					"monday": {Start: "18:30", End: "19:30"},
					"friday": {Start: "19:30", End: "20:30"},
				},
			},
			{
				ID: "ed-fisica-clara", Title: "Ed. Física Clara", Child: "clara", Category: "deporte",
				Days: []string{"monday", "thursday"},
				Schedule: map[string]SlotConfig{
					"monday":   {Start: "12:00", End: "13:00"},
					"thursday": {Start: "12:00", End: "13:00"},
				},
			},
		},
		Categories: []CategoryConfig{
			{ID: "colegio", Name: "Colegio"},
			{ID: "deporte", Name: "Deporte"},
			{ID: "danza", Name: "Danza"},
			{ID: "idioma", Name: "Idioma"},
		},
	}
}
