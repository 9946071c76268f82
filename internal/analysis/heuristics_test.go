package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSeniority(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"Director of Product Design", "director"},
		{"Principal Engineer, Payments", "principal"},
		{"We are hiring a Staff Designer", "staff"},
		{"Design Lead for the growth team", "lead"},
		{"Senior Product Designer", "senior"},
		{"Sr. Data Analyst", "senior"},
		{"Junior frontend developer", "junior"},
		{"Entry-level analyst role", "junior"},
		{"Summer Internship 2025", "intern"},
		{"Mid-level backend engineer", "mid"},
		{"Product Designer", "unknown"},
		{"Internal tools engineer", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectSeniority(tt.text))
		})
	}
}

func TestDetectDomain(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"Own our design system in Figma and run user research", "design"},
		{"Build backend services and APIs on Kubernetes", "engineering"},
		{"Write SQL and build dashboards for analytics", "data"},
		{"Plan brand campaigns and SEO", "marketing"},
		{"Hit quota as an account executive", "sales"},
		{"Lead talent acquisition and recruiting", "people"},
		{"Join our friendly team", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDomain(tt.text))
		})
	}
}

func TestDetectRoleType(t *testing.T) {
	assert.Equal(t, "manager", DetectRoleType("You will have 6 direct reports"))
	assert.Equal(t, "manager", DetectRoleType("Engineering Manager, Platform"))
	assert.Equal(t, "individual_contributor", DetectRoleType("A hands-on individual contributor role"))
	assert.Equal(t, "unknown", DetectRoleType("Designer"))
}

func TestDetectFocus(t *testing.T) {
	assert.Equal(t, "design systems", DetectFocus("Scale our design systems and visual design", "design"))
	assert.Equal(t, "machine learning", DetectFocus("Apply machine learning to fraud", "unknown"))
	assert.Equal(t, "unknown", DetectFocus("Great benefits", "design"))
}

func TestDetectTags(t *testing.T) {
	tags := DetectTags("Senior designer owning design systems, accessibility (WCAG), Figma prototypes and cross-functional mentorship")
	assert.Equal(t, []string{"design systems", "accessibility", "prototyping", "figma", "cross-functional", "mentorship"}, tags)
}

func TestDetectTags_Capped(t *testing.T) {
	text := "design systems user research accessibility prototyping figma cross-functional mentorship stakeholders leadership strategy roadmap a/b testing sql python"
	tags := DetectTags(text)
	assert.Len(t, tags, MaxTags)
	assert.Equal(t, "design systems", tags[0])
	assert.Equal(t, "strategy", tags[MaxTags-1])
}

func TestDetectHints(t *testing.T) {
	hints := DetectHints("Senior Product Designer to lead our design systems work with engineers. Hands-on role.")

	assert.Equal(t, "senior", hints.Seniority)
	assert.Equal(t, "design", hints.Domain)
	assert.Equal(t, "design systems", hints.Focus)
	assert.Equal(t, "individual_contributor", hints.RoleType)
	assert.Contains(t, hints.Tags, "design systems")
}
