package analysis

import (
	"regexp"
	"strings"

	"github.com/jonathan/jobprep/internal/types"
)

// MaxTags caps both detected tags and merged signals.
const MaxTags = 10

type pattern struct {
	label string
	re    *regexp.Regexp
}

func word(label, expr string) pattern {
	return pattern{label: label, re: regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`)}
}

// seniorityPatterns are checked in order; the first hit wins.
var seniorityPatterns = []pattern{
	word("director", `director|head of|vice president|vp`),
	word("principal", `principal`),
	word("staff", `staff (?:engineer|designer|scientist|analyst|product)`),
	word("lead", `(?:tech|team|design|engineering) lead|lead (?:designer|engineer|developer|researcher|analyst|scientist)`),
	word("senior", `senior|sr\.?`),
	word("junior", `junior|jr\.?|entry[- ]level|new grad(?:uate)?`),
	word("intern", `intern|internship`),
	word("mid", `mid[- ]level|intermediate`),
}

// domainKeywords score each domain; the highest count wins, ties go to the earlier entry.
var domainKeywords = []struct {
	domain   string
	patterns []*regexp.Regexp
}{
	{"design", words(`designer`, `design systems?`, `ux`, `ui`, `figma`, `user research`, `interaction design`, `visual design`, `prototyp(?:e|es|ing)`)},
	{"engineering", words(`engineer(?:ing)?`, `software`, `developer`, `backend`, `frontend`, `infrastructure`, `kubernetes`, `distributed systems`, `api`)},
	{"product", words(`product manager`, `product management`, `roadmap`, `product strategy`, `prioriti[sz]ation`, `go-to-market`)},
	{"data", words(`data scientist`, `data science`, `analytics`, `machine learning`, `sql`, `statistics`, `data engineer(?:ing)?`, `dashboards?`)},
	{"marketing", words(`marketing`, `brand`, `campaigns?`, `seo`, `content strategy`, `demand generation`)},
	{"sales", words(`sales`, `account executive`, `quota`, `pipeline generation`, `closing deals`, `business development`)},
	{"operations", words(`operations`, `logistics`, `supply chain`, `process improvement`, `vendor management`)},
	{"people", words(`recruit(?:er|ing)`, `talent acquisition`, `human resources`, `hr`, `people operations`, `compensation`)},
}

// focusKeywords are checked within the detected domain first, then across all domains.
var focusKeywords = map[string][]string{
	"design":      {"design systems", "user research", "interaction design", "visual design", "product design", "content design", "brand design"},
	"engineering": {"distributed systems", "infrastructure", "backend", "frontend", "mobile", "machine learning", "security", "platform"},
	"product":     {"growth", "platform", "monetization", "onboarding", "b2b", "marketplace"},
	"data":        {"machine learning", "experimentation", "analytics engineering", "data engineering", "forecasting"},
	"marketing":   {"demand generation", "product marketing", "content strategy", "brand", "lifecycle"},
	"sales":       {"enterprise", "mid-market", "smb", "partnerships"},
	"operations":  {"supply chain", "logistics", "process improvement", "customer support"},
	"people":      {"recruiting", "talent acquisition", "compensation", "learning and development"},
}

var domainOrder = []string{"design", "engineering", "product", "data", "marketing", "sales", "operations", "people"}

var (
	managerPattern = word("manager", `people manager|direct reports|manage a team|managing a team|lead a team of|hiring and developing|(?:engineering|design|product design|data science) manager|head of|director`)
	icPattern      = word("individual_contributor", `individual contributor|hands-on|ic role`)
)

// tagPatterns is the ordered tag table.
var tagPatterns = []pattern{
	word("design systems", `design systems?`),
	word("user research", `user research|usability testing`),
	word("accessibility", `accessibility|a11y|wcag`),
	word("prototyping", `prototyp(?:e|es|ing)`),
	word("figma", `figma`),
	word("cross-functional", `cross[- ]functional`),
	word("mentorship", `mentor(?:ing|ship)?`),
	word("stakeholder management", `stakeholders?`),
	word("leadership", `leadership`),
	word("strategy", `strategy|strategic`),
	word("roadmap", `roadmaps?`),
	word("experimentation", `a/b test(?:s|ing)?|experimentation`),
	word("data-driven", `data[- ]driven|metrics`),
	word("sql", `sql`),
	word("python", `python`),
	word("typescript", `typescript`),
	word("react", `react`),
	word("kubernetes", `kubernetes|k8s`),
	word("aws", `aws|amazon web services`),
	word("distributed systems", `distributed systems`),
	word("machine learning", `machine learning|ml`),
	word("b2b", `b2b`),
	word("saas", `saas`),
	word("startup", `startup|early[- ]stage`),
	word("remote", `remote`),
	word("agile", `agile|scrum`),
}

func words(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`)
	}
	return out
}

// DetectHints classifies text with keyword patterns.
func DetectHints(text string) types.Hints {
	domain := DetectDomain(text)
	return types.Hints{
		Seniority: DetectSeniority(text),
		Focus:     DetectFocus(text, domain),
		Domain:    domain,
		RoleType:  DetectRoleType(text),
		Tags:      DetectTags(text),
	}
}

// DetectSeniority returns the first seniority level whose pattern matches.
func DetectSeniority(text string) string {
	for _, p := range seniorityPatterns {
		if p.re.MatchString(text) {
			return p.label
		}
	}
	return types.Unknown
}

// DetectDomain returns the domain with the most keyword hits.
func DetectDomain(text string) string {
	best, bestScore := types.Unknown, 0
	for _, entry := range domainKeywords {
		score := 0
		for _, re := range entry.patterns {
			score += len(re.FindAllStringIndex(text, -1))
		}
		if score > bestScore {
			best, bestScore = entry.domain, score
		}
	}
	return best
}

// DetectRoleType distinguishes people managers from individual contributors.
func DetectRoleType(text string) string {
	switch {
	case managerPattern.re.MatchString(text):
		return "manager"
	case icPattern.re.MatchString(text):
		return "individual_contributor"
	}
	return types.Unknown
}

// DetectFocus returns the first focus phrase present in text, preferring domain.
func DetectFocus(text, domain string) string {
	lower := strings.ToLower(text)
	if focus := firstPhrase(lower, focusKeywords[domain]); focus != "" {
		return focus
	}
	for _, d := range domainOrder {
		if d == domain {
			continue
		}
		if focus := firstPhrase(lower, focusKeywords[d]); focus != "" {
			return focus
		}
	}
	return types.Unknown
}

func firstPhrase(lower string, phrases []string) string {
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}

// DetectTags returns tag table hits in table order, at most MaxTags.
func DetectTags(text string) []string {
	tags := make([]string, 0, MaxTags)
	for _, p := range tagPatterns {
		if len(tags) == MaxTags {
			break
		}
		if p.re.MatchString(text) {
			tags = append(tags, p.label)
		}
	}
	return tags
}
