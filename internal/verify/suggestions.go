package verify

// Static advice tables keyed by profile category. These are text
// resources, not computed output; presentation layers render them
// without any engine-specific knowledge.

var categorySuggestions = map[string][]string{
	"biodiversity": {
		"Take a clear photo of the planted sapling or tree",
		"Show the plant in soil or a pot",
		"Include your hands in the photo to show you planted it",
		"Use good natural lighting for best results",
		"Make sure green plants are clearly visible",
	},
	"waste": {
		"Show clearly separated waste categories",
		"Include recycling bins or containers",
		"Display reusable alternatives to plastic",
		"Take photos from multiple angles",
		"Include any labels or signs you made",
	},
	"energy": {
		"Show energy meters or monitoring devices clearly",
		"Include energy-efficient appliances or LED bulbs",
		"Capture before/after readings if possible",
		"Show the area where you implemented changes",
		"Make electrical equipment visible",
	},
	"community": {
		"Include other participants in the photo",
		"Show cleaning tools and equipment being used",
		"Capture the campus area being cleaned",
		"Take before/after photos of the cleanup",
		"Show teamwork and group effort",
	},
	"water": {
		"Show water conservation methods clearly",
		"Include water-saving devices or setups",
		"Capture water usage measurements if available",
		"Show the implementation in your environment",
		"Make water-related elements visible",
	},
}

var genericSuggestions = []string{
	"Ensure good lighting in your photo",
	"Make the main subject clearly visible",
	"Include context that shows the activity",
	"Try taking multiple angles if needed",
}

var artifactSuggestions = []string{
	"Make sure the image file is not corrupted",
	"Try a smaller file size (under 10MB)",
	"Use JPG, PNG, or WebP format",
}

// SuggestionsForCategory returns the fixed advice list for a profile
// category, falling back to generic advice for unknown categories.
func SuggestionsForCategory(category string) []string {
	if s, ok := categorySuggestions[category]; ok {
		return s
	}
	return genericSuggestions
}

// TipsForCategory returns upfront photo tips shown before submission.
// Currently the same table as the failure suggestions; kept as a
// separate accessor so the two surfaces can diverge.
func TipsForCategory(category string) []string {
	return SuggestionsForCategory(category)
}
