package patterns

const (
	slangRuleWeight        = 50
	contextRuleWeight      = 30
	defaultWholeWordMaxLen = 2
)

var (
	defaultInlineTemplatePhrases = []string{
		"contact for details",
		"dm for info",
		"available now",
		"best quality",
		"discrete delivery",
		"trusted supplier",
	}

	defaultInlineCommands = []string{"/start", "/help"}
)

func defaultKeywords() []WeightedTerm {
	return []WeightedTerm{
		// synthetic
		{"mdma", 90}, {"ecstasy", 90}, {"molly", 85}, {"x", 85},
		{"lsd", 95}, {"acid", 95}, {"tabs", 80}, {"blotter", 85},
		{"mephedrone", 95}, {"meow", 90}, {"m-cat", 90},
		{"ketamine", 85}, {"k", 85}, {"special k", 85},
		{"cocaine", 90}, {"coke", 90}, {"crack", 95},
		{"heroin", 95}, {"smack", 95}, {"h", 95},
		{"meth", 95}, {"crystal", 95}, {"ice", 95},
		// prescription
		{"oxycodone", 80}, {"oxy", 80}, {"percocet", 80},
		{"xanax", 75}, {"alprazolam", 75}, {"benzos", 75},
		{"adderall", 70}, {"ritalin", 70}, {"stimulants", 70},
		// cannabis
		{"weed", 60}, {"marijuana", 60}, {"ganja", 60},
		{"hash", 65}, {"thc", 65}, {"cbd", 40}, {"edibles", 70},
		// trade slang
		{"party pills", 85}, {"club drugs", 85}, {"designer drugs", 90},
		{"research chemicals", 90}, {"rc", 90}, {"legal highs", 80},
		{"supplies", 70}, {"gear", 70}, {"stuff", 65},
		// logistics
		{"delivery", 75}, {"pickup", 75}, {"meet", 75}, {"drop", 75},
		{"contact", 70}, {"dm", 70}, {"telegram", 65}, {"whatsapp", 65},
		// payment
		{"cash", 60}, {"upi", 65}, {"bitcoin", 80}, {"crypto", 80},
		{"payment", 65}, {"price", 65}, {"cost", 65},
	}
}

func defaultEmojis() []WeightedTerm {
	return []WeightedTerm{
		{"🔥", 70}, {"💊", 80}, {"💉", 85}, {"🌿", 60},
		{"💰", 65}, {"💵", 65}, {"🤑", 70}, {"💸", 70},
		{"🚀", 75}, {"⚡", 75}, {"💥", 75}, {"🎉", 70},
		{"🦄", 80}, {"🌈", 80}, {"⭐", 70}, {"💎", 75},
		{"🔮", 80}, {"✨", 70}, {"🎭", 75}, {"🎪", 75},
	}
}

func defaultSlangRules() []Rule {
	sources := []string{
		`\b(party|club)\s+(pills?|drugs?)\b`,
		`\b(designer|research)\s+(chemicals?|drugs?)\b`,
		`\b(legal\s+)?highs?\b`,
		`\b(gear|stuff|supplies)\b`,
		`\b(delivery|pickup|meet|drop)\b`,
		`\b(dm|contact)\s+(for|details?)\b`,
		`\b(quality|pure|best)\s+(stuff|gear|supplies)\b`,
		`\b(available|in\s+stock)\b`,
		`\b(price|cost|payment)\s+(details?|info)\b`,
	}

	return compileRules(sources, slangRuleWeight)
}

func defaultContextRules() []Rule {
	sources := []string{
		`\b(available|in\s+stock|ready)\b`,
		`\b(contact|dm|message)\s+(for|details?|info)\b`,
		`\b(price|cost|payment)\s+(details?|info|available)\b`,
		`\b(delivery|pickup|meet|drop)\s+(available|service)\b`,
		`\b(quality|pure|best|premium)\b`,
		`\b(discrete|discreet|private|confidential)\b`,
		`\b(no\s+questions|trusted|reliable)\b`,
		`\b(cash|upi|bitcoin|crypto)\s+(only|accepted)\b`,
	}

	return compileRules(sources, contextRuleWeight)
}

func compileRules(sources []string, weight int) []Rule {
	rules := make([]Rule, len(sources))
	for i, src := range sources {
		rules[i] = NewRule(src, weight)
	}

	return rules
}
