// Package fallback produces locally-synthesized answers for when the AI
// provider is unreachable, billing-blocked, or returns unusable content.
//
// Free-text answers come from an ordered keyword ladder; structured
// recommendations come from hand-authored templates (templates.go). Both are
// total: they always return fully populated output and never fail.
package fallback

import "strings"

// rule pairs a keyword group with its canned advisory text. Rules are
// evaluated in order; the first group with any matching keyword wins.
type rule struct {
	keywords []string
	response string
}

// Responder routes a user message to canned agricultural guidance.
type Responder struct {
	rules []rule
}

// New creates a Responder with the built-in keyword ladder.
func New() *Responder {
	return &Responder{rules: defaultRules}
}

// Respond returns advisory text for the given user message. It scans the
// keyword groups in fixed priority order and returns the first match, or a
// generic capability overview when nothing matches. Never empty.
func (r *Responder) Respond(message string) string {
	lower := strings.ToLower(message)
	for _, rl := range r.rules {
		for _, kw := range rl.keywords {
			if strings.Contains(lower, kw) {
				return rl.response
			}
		}
	}
	return genericResponse
}

var defaultRules = []rule{
	{
		keywords: []string{"disease", "sick", "problem"},
		response: "I understand you're dealing with plant health issues. Here are some general steps you can take:\n\n" +
			"1. **Isolate affected plants** to prevent the problem from spreading to healthy plants\n" +
			"2. **Remove and destroy severely infected parts** - this helps stop the spread\n" +
			"3. **Improve air circulation** around your plants by ensuring proper spacing\n" +
			"4. **Avoid overhead watering** which can spread diseases\n" +
			"5. **Use clean tools** when working with different plants\n\n" +
			"For more specific advice, I'd need to know what type of plant you're working with and what symptoms you're seeing. Could you tell me more about your specific situation?",
	},
	{
		keywords: []string{"soil", "fertilizer", "nutrient"},
		response: "Soil health is crucial for plant growth! Here are some key points:\n\n" +
			"• **Test your soil** to understand its current nutrient levels\n" +
			"• **Add organic matter** like compost to improve soil structure\n" +
			"• **Use balanced fertilizers** based on your soil test results\n" +
			"• **Consider crop rotation** to maintain soil health\n" +
			"• **Monitor pH levels** - most plants prefer slightly acidic to neutral soil\n\n" +
			"What type of soil are you working with, and what are you trying to grow?",
	},
	{
		keywords: []string{"water", "irrigation"},
		response: "Proper watering is essential for plant health! Here are some tips:\n\n" +
			"• **Water deeply but less frequently** to encourage deep root growth\n" +
			"• **Water early in the morning** to reduce evaporation and disease risk\n" +
			"• **Check soil moisture** before watering - stick your finger in the soil\n" +
			"• **Use mulch** to retain soil moisture\n" +
			"• **Avoid overwatering** which can cause root rot\n\n" +
			"What's your current watering schedule, and are you seeing any specific issues?",
	},
	{
		keywords: []string{"pest", "insect", "bug"},
		response: "Pest management can be challenging! Here's a balanced approach:\n\n" +
			"• **Identify the pest first** - this helps determine the best control method\n" +
			"• **Start with cultural controls** like removing affected plants\n" +
			"• **Use beneficial insects** when possible\n" +
			"• **Consider organic options** like neem oil before chemical pesticides\n" +
			"• **Monitor regularly** to catch problems early\n\n" +
			"Can you describe what pests you're seeing and on what plants?",
	},
	{
		keywords: []string{"treatment", "cure", "fix"},
		response: "For plant treatment, here's a systematic approach:\n\n" +
			"1. **Identify the problem** - disease, pest, or environmental issue\n" +
			"2. **Choose appropriate treatment** - organic or chemical options\n" +
			"3. **Apply correctly** - follow label instructions and timing\n" +
			"4. **Monitor results** - watch for improvement or side effects\n" +
			"5. **Prevent recurrence** - address underlying causes\n\n" +
			"What specific treatment are you considering, and what problem are you trying to solve?",
	},
	{
		keywords: []string{"prevent", "avoid"},
		response: "Prevention is always better than cure! Here are key prevention strategies:\n\n" +
			"• **Choose resistant varieties** when available\n" +
			"• **Practice crop rotation** to break disease cycles\n" +
			"• **Maintain good spacing** for air circulation\n" +
			"• **Use clean tools and equipment**\n" +
			"• **Monitor regularly** for early detection\n" +
			"• **Keep garden clean** - remove debris and weeds\n\n" +
			"What specific problem are you trying to prevent?",
	},
	{
		keywords: []string{"organic", "natural"},
		response: "Organic solutions are great for sustainable farming! Here are some options:\n\n" +
			"• **Neem oil** - effective against many pests and diseases\n" +
			"• **Baking soda spray** - helps with fungal issues\n" +
			"• **Beneficial insects** - ladybugs, lacewings, etc.\n" +
			"• **Compost tea** - boosts plant immunity\n" +
			"• **Crop rotation** - naturally breaks pest cycles\n" +
			"• **Companion planting** - some plants protect others\n\n" +
			"What specific organic solution are you interested in?",
	},
}

const genericResponse = "I'm here to help with your agricultural questions! I can assist with plant diseases, soil health, pest management, irrigation, and general farming practices.\n\n" +
	"What specific agricultural challenge are you facing today? I'd be happy to provide some practical advice based on your situation. You can ask me about:\n\n" +
	"• Disease identification and treatment\n" +
	"• Soil health and fertilization\n" +
	"• Pest management strategies\n" +
	"• Watering and irrigation\n" +
	"• Organic farming methods\n" +
	"• Crop management tips"
