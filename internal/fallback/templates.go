package fallback

import (
	"fmt"
	"strings"

	"github.com/phamiq/ai-gateway/pkg/models"
)

// templateRule selects a hand-authored recommendation template when the
// disease identifier contains the given substring. Rules are checked in
// order; anything unmatched falls to the generic template.
type templateRule struct {
	match string
	build func(crop string) *models.Recommendation
}

var templateRules = []templateRule{
	{match: "leafminer", build: leafminerTemplate},
	{match: "armyworm", build: armywormTemplate},
}

// Structured synthesizes a fully populated Recommendation for the given
// detection. Used whenever the provider cannot produce a usable structured
// answer. The result always has all eight fields set.
func (r *Responder) Structured(disease string, confidence float64, crop string) *models.Recommendation {
	lower := strings.ToLower(disease)
	for _, tr := range templateRules {
		if strings.Contains(lower, tr.match) {
			return tr.build(crop)
		}
	}
	return genericTemplate(disease, crop)
}

func leafminerTemplate(crop string) *models.Recommendation {
	return &models.Recommendation{
		DiseaseOverview: fmt.Sprintf("Leafminers are insect larvae that tunnel between leaf surfaces of %s, leaving pale winding trails. Heavy infestations reduce photosynthesis and weaken young trees.", crop),
		ImmediateActions: "1. Remove and destroy mined leaves\n" +
			"2. Check new flush growth daily - larvae target tender leaves\n" +
			"3. Avoid excessive nitrogen fertilization which promotes vulnerable new growth\n" +
			"4. Set up yellow sticky traps to monitor adult moths",
		TreatmentProtocols: models.TreatmentProtocols{
			Organic:     "Spray neem oil on new growth every 7-10 days\nRelease parasitic wasps where available\nApply horticultural oil to smother eggs",
			Chemical:    "Systemic insecticides such as imidacloprid applied as a soil drench\nSpinosad sprays on new flush growth\nRotate modes of action to avoid resistance",
			Application: "Treat at first sign of mining on new growth\nSpray early morning or late evening to protect pollinators\nRepeat after heavy rain",
		},
		Prevention: "Time pruning so new flushes emerge together\nEncourage natural enemies by limiting broad-spectrum sprays\nRemove water shoots and unwanted suckers that attract egg-laying moths",
		Monitoring: "Inspect new flush twice weekly for fresh mines\nTrack adult moth numbers with sticky traps\nRecord the proportion of damaged leaves per tree",
		CostEffective: "Hand-remove and destroy mined leaves on small plantings\nHomemade neem solutions are effective and inexpensive\nCoordinate monitoring with neighboring farms",
		SeverityLevel:    "High",
		ProfessionalHelp: "Engage an agricultural extension officer if more than a third of new flush is mined or if young trees begin dropping leaves",
	}
}

func armywormTemplate(crop string) *models.Recommendation {
	return &models.Recommendation{
		DiseaseOverview: fmt.Sprintf("Fall armyworm is a fast-spreading caterpillar pest of %s that feeds inside whorls and on leaves, causing ragged holes and heavy sawdust-like frass.", crop),
		ImmediateActions: "1. Scout the field immediately and mark infested patches\n" +
			"2. Hand-pick and destroy visible caterpillars and egg masses\n" +
			"3. Apply treatment to plant whorls where larvae shelter\n" +
			"4. Alert neighboring farms - armyworm spreads quickly",
		TreatmentProtocols: models.TreatmentProtocols{
			Organic:     "Apply Bacillus thuringiensis (Bt) sprays while larvae are small\nUse neem-based products into the whorl\nEncourage birds and natural predators",
			Chemical:    "Emamectin benzoate or chlorantraniliprole per local registration\nTarget early larval stages - large larvae are hard to kill\nRotate active ingredients between applications",
			Application: "Direct sprays into the whorl where larvae feed\nTreat early morning or late evening when larvae are active\nRepeat scouting 3-4 days after application",
		},
		Prevention: "Plant early and uniformly within the season\nIntercrop with legumes to support natural enemies\nUse pheromone traps to detect moth arrival early",
		Monitoring: "Scout twice weekly, checking 10 plants at 5 points per field\nTreat when 20% of seedlings or 40% of later-stage plants show fresh damage\nKeep trap-catch records across seasons",
		CostEffective: "Hand-picking is effective on small plots\nLocal ash or soil dropped into whorls can reduce larvae\nCommunity-coordinated spraying lowers cost per farm",
		SeverityLevel:    "High",
		ProfessionalHelp: "Contact extension services at first confirmed infestation - regional coordination is critical for armyworm control",
	}
}

func genericTemplate(disease, crop string) *models.Recommendation {
	return &models.Recommendation{
		DiseaseOverview: fmt.Sprintf("General information about %s affecting %s", disease, crop),
		ImmediateActions: "1. Isolate affected plants\n" +
			"2. Remove infected parts\n" +
			"3. Improve air circulation\n" +
			"4. Avoid overhead watering",
		TreatmentProtocols: models.TreatmentProtocols{
			Organic:     "Apply neem oil or copper-based fungicides\nUse beneficial microbes\nImprove soil health",
			Chemical:    "Consult with agricultural extension for chemical options",
			Application: "Apply treatments early morning or evening\nFollow label instructions carefully",
		},
		Prevention:       "Use disease-resistant varieties\nPractice crop rotation\nMaintain proper spacing\nKeep tools clean",
		Monitoring:       "Check plants daily for new symptoms\nMonitor treatment effectiveness\nDocument progress",
		CostEffective:    "Use homemade remedies like baking soda spray\nPractice good cultural methods\nJoin local farming groups for support",
		SeverityLevel:    "Moderate",
		ProfessionalHelp: "Consult agricultural extension if symptoms worsen or spread rapidly",
	}
}
