package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edunest/tutorhub-api/internal/models"
)

func TestNextSectionLabel(t *testing.T) {
	assert.Equal(t, "A", NextSectionLabel(nil))
	assert.Equal(t, "A", NextSectionLabel([]string{}))
	assert.Equal(t, "C", NextSectionLabel([]string{"A", "B"}))
	assert.Equal(t, "C", NextSectionLabel([]string{"B", "A"}))
	assert.Equal(t, "AA", NextSectionLabel([]string{"Z"}))
	assert.Equal(t, "BA", NextSectionLabel([]string{"AZ"}))
	assert.Equal(t, "AAA", NextSectionLabel([]string{"ZZ"}))
	assert.Equal(t, "AB", NextSectionLabel([]string{"Z", "AA"}), "AA sorts after Z")
}

func activeSection(label string, enrolled int) models.Section {
	return models.Section{Label: label, Status: models.SectionStatusActive, CurrentEnrollments: enrolled}
}

func TestNeedsNewSectionThreshold(t *testing.T) {
	// 90% threshold is inclusive.
	assert.True(t, NeedsNewSection([]models.Section{activeSection("A", 9)}, 10, 90))
	assert.False(t, NeedsNewSection([]models.Section{activeSection("A", 8)}, 10, 90))
	assert.True(t, NeedsNewSection([]models.Section{activeSection("A", 10)}, 10, 90))
}

func TestNeedsNewSectionNoSections(t *testing.T) {
	assert.True(t, NeedsNewSection(nil, 10, 90))
}

func TestNeedsNewSectionUsesLatestActiveLabel(t *testing.T) {
	sections := []models.Section{
		activeSection("A", 10),
		activeSection("B", 3),
	}
	assert.False(t, NeedsNewSection(sections, 10, 90), "only the latest active section is evaluated")
}

func TestNeedsNewSectionWithoutActiveSections(t *testing.T) {
	full := models.Section{Label: "A", Status: models.SectionStatusFull, CurrentEnrollments: 10}
	assert.True(t, NeedsNewSection([]models.Section{full}, 10, 90))

	archived := models.Section{Label: "A", Status: models.SectionStatusArchived}
	assert.False(t, NeedsNewSection([]models.Section{archived}, 10, 90), "fully archived programs never prompt")
}
