// internal/workers/lease/validate-business-profile/handler_test.go
package validatebusinessprofile

import (
	"context"
	"errors"
	"testing"

	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return LoadConfig()
}

func createTestInput() *Input {
	return &Input{
		Profile: map[string]interface{}{
			"business_name":   "Corner Bistro",
			"business_type":   "Restaurant",
			"industry":        "Food & Beverage",
			"location":        "Chicago, IL",
			"space_size":      2200,
			"team_size":       6,
			"current_revenue": 18000.0,
			"has_revenue":     true,
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ValidProfile(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.True(t, output.IsValid)
	assert.Empty(t, output.ValidationErrors)
	assert.Empty(t, output.Warnings)
	assert.Equal(t, "Corner Bistro", output.Profile.BusinessName)
	assert.Equal(t, 2200, output.Profile.SpaceSize)

	_, parseErr := uuid.Parse(output.Profile.ID)
	assert.NoError(t, parseErr, "generated id should be a uuid")
}

func TestHandler_Execute_KeepsProvidedID(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))
	input := createTestInput()
	input.Profile["id"] = "3f6c1c9e-0000-4000-8000-000000000001"

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "3f6c1c9e-0000-4000-8000-000000000001", output.Profile.ID)
}

func TestHandler_Execute_AppliesDefaults(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))
	input := &Input{Profile: map[string]interface{}{
		"business_name": "Bare Minimum LLC",
		"location":      "Remote",
	}}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSpaceSize, output.Profile.SpaceSize)
}

// ==========================
// Validation Failure Tests
// ==========================

func TestHandler_Execute_InvalidProfile(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))
	input := createTestInput()
	delete(input.Profile, "business_name")
	input.Profile["space_size"] = 10

	output, err := handler.Execute(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProfileValidationFailed))

	require.NotNil(t, output)
	assert.False(t, output.IsValid)
	require.Len(t, output.ValidationErrors, 2)
	assert.Equal(t, "business_name", output.ValidationErrors[0].Field)
	assert.Equal(t, "space_size", output.ValidationErrors[1].Field)
}

func TestHandler_Execute_MissingProfile(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestHandler_Execute_UnknownEnumsWarn(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))
	input := createTestInput()
	input.Profile["business_type"] = "Vertical Farm"

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, output.IsValid)
	require.Len(t, output.Warnings, 1)
	assert.Contains(t, output.Warnings[0], "Vertical Farm")
}
