package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selah-im/intake_server/internal/model/dto"
)

func validRequest() *dto.SubmitApplicationRequest {
	return &dto.SubmitApplicationRequest{
		PreferredName:    "Dana",
		Email:            "dana@example.com",
		DiscoveryStory:   "Ten characters min story here.",
		TechRelationship: "Ten characters min relation here.",
	}
}

func TestValidator_Valid(t *testing.T) {
	req := validRequest()
	req.PreferredName = "  Dana  "

	intake, err := NewValidator().Validate(req)
	require.NoError(t, err)
	assert.Equal(t, "  Dana  ", intake.PreferredName, "values are not normalized")
	assert.Equal(t, req.Email, intake.Email)
	assert.Equal(t, req.DiscoveryStory, intake.DiscoveryStory)
	assert.Equal(t, req.TechRelationship, intake.TechRelationship)
}

func TestValidator_Boundaries(t *testing.T) {
	v := NewValidator()

	req := validRequest()
	req.PreferredName = strings.Repeat("a", 100)
	req.DiscoveryStory = strings.Repeat("b", 10)
	req.TechRelationship = strings.Repeat("c", 2000)
	_, err := v.Validate(req)
	assert.NoError(t, err)

	req.PreferredName = strings.Repeat("a", 101)
	req.DiscoveryStory = strings.Repeat("b", 9)
	req.TechRelationship = strings.Repeat("c", 2001)
	_, err = v.Validate(req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Details, 3)
}

func TestValidator_SingleFieldFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.SubmitApplicationRequest)
		field  string
		code   string
	}{
		{"empty name", func(r *dto.SubmitApplicationRequest) { r.PreferredName = "" }, "preferred_name", CodeRequired},
		{"long name", func(r *dto.SubmitApplicationRequest) { r.PreferredName = strings.Repeat("x", 101) }, "preferred_name", CodeTooLong},
		{"bad email", func(r *dto.SubmitApplicationRequest) { r.Email = "bad" }, "email", CodeInvalidEmail},
		{"empty email", func(r *dto.SubmitApplicationRequest) { r.Email = "" }, "email", CodeInvalidEmail},
		{"short story", func(r *dto.SubmitApplicationRequest) { r.DiscoveryStory = "short" }, "discovery_story", CodeTooShort},
		{"empty story", func(r *dto.SubmitApplicationRequest) { r.DiscoveryStory = "" }, "discovery_story", CodeTooShort},
		{"long story", func(r *dto.SubmitApplicationRequest) { r.DiscoveryStory = strings.Repeat("x", 2001) }, "discovery_story", CodeTooLong},
		{"short relationship", func(r *dto.SubmitApplicationRequest) { r.TechRelationship = "short" }, "tech_relationship", CodeTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			_, err := NewValidator().Validate(req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Details, 1)
			assert.Equal(t, tt.field, verr.Details[0].Field)
			assert.Equal(t, tt.code, verr.Details[0].Code)
			assert.NotEmpty(t, verr.Details[0].Message)
		})
	}
}

func TestValidator_ReportsEveryField(t *testing.T) {
	req := &dto.SubmitApplicationRequest{
		PreferredName:    "",
		Email:            "bad",
		DiscoveryStory:   "short",
		TechRelationship: "short",
	}

	_, err := NewValidator().Validate(req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Details, 4)
	for _, field := range []string{"preferred_name", "email", "discovery_story", "tech_relationship"} {
		assert.True(t, verr.Has(field), field)
	}
	assert.Equal(t, "Name is required for recognition", verr.Details[0].Message)
	assert.Contains(t, verr.Error(), "preferred_name")
}
