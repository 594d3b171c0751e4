package advisor

import "fmt"

// Canned advice used when the model is unavailable.
const (
	FallbackYield = "• Maintain optimal soil pH between 6.0-7.0\n" +
		"• Apply balanced NPK fertilizer based on soil test\n" +
		"• Monitor soil moisture and irrigate when needed\n" +
		"• Implement integrated pest management practices\n" +
		"• Ensure proper drainage to prevent waterlogging"

	FallbackCropChoice = "• Consider local market demand and pricing\n" +
		"• Evaluate water availability for irrigation\n" +
		"• Check soil suitability for each crop\n" +
		"• Assess labor requirements and availability\n" +
		"• Review crop insurance options"

	FallbackGeneral = "• Maintain proper soil moisture levels\n" +
		"• Apply fertilizers based on soil test results\n" +
		"• Monitor crops regularly for pest and disease signs\n" +
		"• Implement crop rotation practices\n" +
		"• Ensure adequate drainage systems"

	FallbackClimate = "AI recommendations temporarily unavailable"
)

// YieldPrompt asks for tips to raise a predicted yield.
func YieldPrompt(crop, state, season string, yield float64) string {
	return fmt.Sprintf("The predicted yield for %s in %s during %s is about %.2f tons/hectare. "+
		"Provide 5 concise, practical, actionable tips to increase yield, "+
		"focusing only on fertilizers, irrigation, soil health, and pest management. "+
		"Return them as short bullet points.", crop, state, season, yield)
}

// CropChoicePrompt asks for help choosing among recommended crops.
func CropChoicePrompt(cropList string) string {
	return fmt.Sprintf("Given the soil and climate conditions, the recommended crops are %s. "+
		"Provide 3–5 concise, practical tips for choosing the best crop among them. "+
		"Return the advice as short bullet points.", cropList)
}

// GeneralPrompt frames a free-form farmer query for the model.
func GeneralPrompt(query string) string {
	return "You are an agricultural expert. Based on the given soil, weather, and crop conditions, " +
		"provide concise, practical advice for the farmer. " +
		"Focus on fertilizers, irrigation, pest management, and yield improvement. " +
		"Use short bullet points (3–5 tips). " +
		"Farmer's query: " + query
}

// ClimatePrompt asks for adaptation strategies given the main risk scores.
func ClimatePrompt(location, crop string, drought, heat, flood float64) string {
	return fmt.Sprintf("Based on climate data for %s growing %s, provide specific adaptation strategies for: "+
		"Drought Risk: %.1f%%, Heat Stress: %.1f%%, Flood Risk: %.1f%%. Give 5 actionable recommendations.",
		location, crop, drought, heat, flood)
}
