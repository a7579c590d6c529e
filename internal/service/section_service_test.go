package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutorhub-api/internal/models"
)

type stubSectionRepo struct {
	byProgram map[string][]models.Section
	details   map[string]models.SectionDetail
	created   []*models.Section
	statuses  map[string]models.SectionStatus
}

func newStubSectionRepo() *stubSectionRepo {
	return &stubSectionRepo{
		byProgram: make(map[string][]models.Section),
		details:   make(map[string]models.SectionDetail),
		statuses:  make(map[string]models.SectionStatus),
	}
}

func (r *stubSectionRepo) List(_ context.Context, _ models.SectionFilter) ([]models.SectionDetail, int, error) {
	return nil, 0, nil
}

func (r *stubSectionRepo) FindDetailByID(_ context.Context, id string) (*models.SectionDetail, error) {
	d, ok := r.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (r *stubSectionRepo) ListByProgram(_ context.Context, programID string) ([]models.Section, error) {
	return r.byProgram[programID], nil
}

func (r *stubSectionRepo) Create(_ context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = "sec-new"
	}
	r.created = append(r.created, section)
	r.details[section.ID] = models.SectionDetail{Section: *section}
	return nil
}

func (r *stubSectionRepo) UpdateStatus(_ context.Context, id string, status models.SectionStatus) error {
	r.statuses[id] = status
	d := r.details[id]
	d.Status = status
	r.details[id] = d
	return nil
}

type stubProgramReader struct {
	programs map[string]models.Program
}

func (r *stubProgramReader) FindByID(_ context.Context, id string) (*models.Program, error) {
	p, ok := r.programs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (r *stubProgramReader) ListActive(_ context.Context) ([]models.Program, error) {
	out := make([]models.Program, 0, len(r.programs))
	for _, p := range r.programs {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func TestSectionServiceCreateAssignsNextLabel(t *testing.T) {
	sections := newStubSectionRepo()
	sections.byProgram["prog-1"] = []models.Section{
		{ID: "s-a", ProgramID: "prog-1", Label: "A", Status: models.SectionStatusFull},
		{ID: "s-b", ProgramID: "prog-1", Label: "B", Status: models.SectionStatusActive},
	}
	programs := &stubProgramReader{programs: map[string]models.Program{
		"prog-1": {ID: "prog-1", Name: "Algebra Foundations", Active: true, MaxStudentsPerSection: 10},
	}}
	svc := NewSectionService(sections, programs, nil, 90, nil, nil)

	detail, err := svc.Create(context.Background(), CreateSectionRequest{ProgramID: "prog-1", TutorID: "tut-1"})
	require.NoError(t, err)
	assert.Equal(t, "C", detail.Label)
	assert.Equal(t, models.SectionStatusActive, detail.Status)
}

func TestSectionServiceCreateInactiveProgram(t *testing.T) {
	programs := &stubProgramReader{programs: map[string]models.Program{
		"prog-1": {ID: "prog-1", Active: false},
	}}
	svc := NewSectionService(newStubSectionRepo(), programs, nil, 90, nil, nil)

	_, err := svc.Create(context.Background(), CreateSectionRequest{ProgramID: "prog-1", TutorID: "tut-1"})
	require.Error(t, err)
}

func TestSectionServiceSuggestions(t *testing.T) {
	sections := newStubSectionRepo()
	sections.byProgram["prog-1"] = []models.Section{
		{ID: "s-a", ProgramID: "prog-1", Label: "A", Status: models.SectionStatusActive, CurrentEnrollments: 9},
	}
	sections.byProgram["prog-2"] = []models.Section{
		{ID: "s-b", ProgramID: "prog-2", Label: "A", Status: models.SectionStatusActive, CurrentEnrollments: 2},
	}
	programs := &stubProgramReader{programs: map[string]models.Program{
		"prog-1": {ID: "prog-1", Name: "Algebra Foundations", Active: true, MaxStudentsPerSection: 10},
		"prog-2": {ID: "prog-2", Name: "Chemistry Basics", Active: true, MaxStudentsPerSection: 10},
	}}
	svc := NewSectionService(sections, programs, nil, 90, nil, nil)

	suggestions, err := svc.Suggestions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "prog-1", suggestions[0].ProgramID)
	assert.Equal(t, "A", suggestions[0].LatestLabel)
	assert.Equal(t, "B", suggestions[0].SuggestedLabel)
	assert.Equal(t, 9, suggestions[0].CurrentEnrollments)
}

func TestSectionServiceSuggestionsAtMostOne(t *testing.T) {
	sections := newStubSectionRepo()
	sections.byProgram["prog-1"] = []models.Section{
		{ID: "s-a", ProgramID: "prog-1", Label: "A", Status: models.SectionStatusActive, CurrentEnrollments: 9},
	}
	sections.byProgram["prog-2"] = []models.Section{
		{ID: "s-b", ProgramID: "prog-2", Label: "A", Status: models.SectionStatusFull, CurrentEnrollments: 10},
	}
	programs := &stubProgramReader{programs: map[string]models.Program{
		"prog-1": {ID: "prog-1", Name: "Algebra Foundations", Active: true, MaxStudentsPerSection: 10},
		"prog-2": {ID: "prog-2", Name: "Chemistry Basics", Active: true, MaxStudentsPerSection: 10},
	}}
	svc := NewSectionService(sections, programs, nil, 90, nil, nil)

	suggestions, err := svc.Suggestions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 1, "only the first program over threshold is surfaced")
	assert.Equal(t, "prog-1", suggestions[0].ProgramID)

	suggestions, err = svc.Suggestions(context.Background(), []string{"prog-1"})
	require.NoError(t, err)
	require.Len(t, suggestions, 1, "dismissing the first hit surfaces the next one")
	assert.Equal(t, "prog-2", suggestions[0].ProgramID)
}

func TestSectionServiceSuggestionsSkipsDismissed(t *testing.T) {
	sections := newStubSectionRepo()
	sections.byProgram["prog-1"] = []models.Section{
		{ID: "s-a", ProgramID: "prog-1", Label: "A", Status: models.SectionStatusActive, CurrentEnrollments: 10},
	}
	programs := &stubProgramReader{programs: map[string]models.Program{
		"prog-1": {ID: "prog-1", Name: "Algebra Foundations", Active: true, MaxStudentsPerSection: 10},
	}}
	svc := NewSectionService(sections, programs, nil, 90, nil, nil)

	suggestions, err := svc.Suggestions(context.Background(), []string{"prog-1"})
	require.NoError(t, err)
	assert.Empty(t, suggestions, "dismissed programs are skipped for the caller's session")
}

func TestSectionServiceArchive(t *testing.T) {
	sections := newStubSectionRepo()
	sections.details["sec-1"] = models.SectionDetail{Section: models.Section{ID: "sec-1", Status: models.SectionStatusActive}}
	svc := NewSectionService(sections, &stubProgramReader{}, nil, 90, nil, nil)

	detail, err := svc.Archive(context.Background(), "sec-1")
	require.NoError(t, err)
	assert.Equal(t, models.SectionStatusArchived, detail.Status)

	_, err = svc.Archive(context.Background(), "sec-1")
	require.Error(t, err, "archiving is not repeatable")
}
