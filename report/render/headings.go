package render

import "health-backend/report/model"

// sectionHeadings carries the display heading for every section in every
// supported language. Hinglish keeps the English headings with a hint of
// the original labels, matching how its body text reads.
var sectionHeadings = map[model.Language]map[model.SectionKey]string{
	model.LanguageEnglish: {
		model.SectionSummary:    "Summary",
		model.SectionFindings:   "Key Findings",
		model.SectionStatus:     "Health Status",
		model.SectionLifestyle:  "Lifestyle Recommendations",
		model.SectionDiet:       "Dietary Suggestions",
		model.SectionExercise:   "Exercise Recommendations",
		model.SectionFollowUp:   "Follow-up Actions",
		model.SectionPrevention: "Preventive Measures",
	},
	model.LanguageHindi: {
		model.SectionSummary:    "सारांश",
		model.SectionFindings:   "मुख्य निष्कर्ष",
		model.SectionStatus:     "स्वास्थ्य स्थिति",
		model.SectionLifestyle:  "जीवनशैली संबंधी सिफारिशें",
		model.SectionDiet:       "आहार संबंधी सुझाव",
		model.SectionExercise:   "व्यायाम संबंधी सिफारिशें",
		model.SectionFollowUp:   "फॉलो-अप कार्रवाई",
		model.SectionPrevention: "निवारक उपाय",
	},
	model.LanguageHinglish: {
		model.SectionSummary:    "Summary (सारांश)",
		model.SectionFindings:   "Key Findings",
		model.SectionStatus:     "Health Status",
		model.SectionLifestyle:  "Lifestyle Recommendations",
		model.SectionDiet:       "Diet Suggestions",
		model.SectionExercise:   "Exercise Recommendations",
		model.SectionFollowUp:   "Follow-up Actions",
		model.SectionPrevention: "Preventive Measures",
	},
}

// reportTitles localizes the document title.
var reportTitles = map[model.Language]string{
	model.LanguageEnglish:  "Health Checkup Analysis Report",
	model.LanguageHindi:    "स्वास्थ्य जांच विश्लेषण रिपोर्ट",
	model.LanguageHinglish: "Health Checkup Analysis Report",
}

// disclaimers carries the mandatory medical disclaimer appended to every
// rendering.
var disclaimers = map[model.Language]string{
	model.LanguageEnglish: "IMPORTANT DISCLAIMER: This analysis is generated by AI and is for informational purposes only. " +
		"It should not replace professional medical advice, diagnosis, or treatment. " +
		"Always consult with qualified healthcare professionals for medical concerns.",
	model.LanguageHindi: "महत्वपूर्ण अस्वीकरण: यह विश्लेषण AI द्वारा तैयार किया गया है और केवल सूचना के उद्देश्य से है। " +
		"यह पेशेवर चिकित्सा सलाह, निदान या उपचार का विकल्प नहीं है। " +
		"चिकित्सा संबंधी चिंताओं के लिए हमेशा योग्य स्वास्थ्य पेशेवरों से परामर्श करें।",
	model.LanguageHinglish: "IMPORTANT DISCLAIMER: Yeh analysis AI se generate hua hai aur sirf informational purpose ke liye hai. " +
		"Yeh professional medical advice, diagnosis ya treatment ka replacement nahi hai. " +
		"Medical concerns ke liye hamesha qualified doctors se consult karein.",
}

// Heading returns the localized heading for a section, falling back to
// English for unknown languages.
func Heading(lang model.Language, key model.SectionKey) string {
	if m, ok := sectionHeadings[lang]; ok {
		if h, ok := m[key]; ok {
			return h
		}
	}
	return sectionHeadings[model.LanguageEnglish][key]
}

// Title returns the localized report title.
func Title(lang model.Language) string {
	if t, ok := reportTitles[lang]; ok {
		return t
	}
	return reportTitles[model.LanguageEnglish]
}

// Disclaimer returns the localized medical disclaimer.
func Disclaimer(lang model.Language) string {
	if d, ok := disclaimers[lang]; ok {
		return d
	}
	return disclaimers[model.LanguageEnglish]
}
