package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/nutriplan/planner/internal/ports/outbound"
	apperrors "github.com/nutriplan/planner/pkg/errors"
	"github.com/nutriplan/planner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// ServiceTestSuite exercises the model invocation adapter
type ServiceTestSuite struct {
	suite.Suite
	primary  *testutils.MockTextModel
	fallback *testutils.MockTextModel
	service  *Service
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.primary = testutils.NewMockTextModel("gemini")
	suite.fallback = testutils.NewMockTextModel("ollama")
	suite.service = NewService(
		[]outbound.TextModel{suite.primary, suite.fallback},
		Options{},
		testutils.NopMetrics{},
		zap.NewNop(),
	)
}

func (suite *ServiceTestSuite) TestDefaults() {
	suite.Run("UnsetConfig_ShouldUseDefaults", func() {
		// Arrange
		suite.SetupTest()
		suite.primary.On("Generate", mock.Anything, outbound.ModelRequest{
			Prompt:          "plan",
			Model:           DefaultModel,
			Temperature:     DefaultTemperature,
			MaxOutputTokens: DefaultMaxOutputTokens,
			JSONOutput:      true,
		}).Return("  {\"dias\":[]}\n", nil).Once()

		// Act
		text, err := suite.service.Invoke(context.Background(), "plan", Config{})

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), `{"dias":[]}`, text)
		suite.primary.AssertExpectations(suite.T())
		suite.fallback.AssertNotCalled(suite.T(), "Generate", mock.Anything, mock.Anything)
	})

	suite.Run("ExplicitConfig_ShouldOverride", func() {
		suite.SetupTest()
		temp := float32(0)
		suite.primary.On("Generate", mock.Anything, mock.MatchedBy(func(req outbound.ModelRequest) bool {
			return req.Model == "gemini-pro" && req.Temperature == 0 && req.MaxOutputTokens == 64
		})).Return("ok", nil).Once()

		_, err := suite.service.Invoke(context.Background(), "plan", Config{Model: "gemini-pro", Temperature: &temp, MaxOutputTokens: 64})

		require.NoError(suite.T(), err)
		suite.primary.AssertExpectations(suite.T())
	})

	suite.Run("UpdateDefaults_ShouldApplyToNextCall", func() {
		suite.SetupTest()
		temp := float32(0.7)
		suite.service.UpdateDefaults(Defaults{Model: "gemini-2.0-flash", Temperature: &temp})
		suite.primary.On("Generate", mock.Anything, mock.MatchedBy(func(req outbound.ModelRequest) bool {
			return req.Model == "gemini-2.0-flash" && req.Temperature == 0.7 && req.MaxOutputTokens == DefaultMaxOutputTokens
		})).Return("ok", nil).Once()

		_, err := suite.service.Invoke(context.Background(), "plan", Config{})

		require.NoError(suite.T(), err)
		suite.primary.AssertExpectations(suite.T())
	})
}

func (suite *ServiceTestSuite) TestDefaults_ZeroTemperature() {
	// Arrange
	zero := float32(0)
	suite.service.UpdateDefaults(Defaults{Temperature: &zero})
	zero = 0.9
	suite.primary.On("Generate", mock.Anything, mock.MatchedBy(func(req outbound.ModelRequest) bool {
		return req.Model == DefaultModel && req.Temperature == 0 && req.MaxOutputTokens == DefaultMaxOutputTokens
	})).Return("ok", nil).Once()

	// Act
	_, err := suite.service.Invoke(context.Background(), "plan", Config{})

	// Assert
	require.NoError(suite.T(), err)
	suite.primary.AssertExpectations(suite.T())
	require.NotNil(suite.T(), suite.service.CurrentDefaults().Temperature)
	assert.Zero(suite.T(), *suite.service.CurrentDefaults().Temperature)
}

func (suite *ServiceTestSuite) TestFailures() {
	suite.Run("NoProviders_ShouldBeConfigurationError", func() {
		service := NewService(nil, Options{}, testutils.NopMetrics{}, zap.NewNop())

		_, err := service.Invoke(context.Background(), "plan", Config{})

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeConfiguration))
	})

	suite.Run("MissingCredentials_ShouldFailWithoutFallback", func() {
		suite.SetupTest()
		suite.primary.On("Generate", mock.Anything, mock.Anything).Return("", outbound.ErrMissingCredentials).Once()

		_, err := suite.service.Invoke(context.Background(), "plan", Config{})

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeConfiguration))
		suite.fallback.AssertNotCalled(suite.T(), "Generate", mock.Anything, mock.Anything)
	})

	suite.Run("PrimaryDown_ShouldUseFallbackWithItsOwnModel", func() {
		suite.SetupTest()
		suite.primary.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()
		suite.fallback.On("Generate", mock.Anything, mock.MatchedBy(func(req outbound.ModelRequest) bool {
			return req.Model == ""
		})).Return("{}", nil).Once()

		text, err := suite.service.Invoke(context.Background(), "plan", Config{})

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "{}", text)
		suite.fallback.AssertExpectations(suite.T())
	})

	suite.Run("AllEmpty_ShouldBeModelUnavailable", func() {
		suite.SetupTest()
		suite.primary.On("Generate", mock.Anything, mock.Anything).Return("   ", nil).Once()
		suite.fallback.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("timeout")).Once()

		_, err := suite.service.Invoke(context.Background(), "plan", Config{})

		require.Error(suite.T(), err)
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeModelUnavailable))
		assert.Contains(suite.T(), err.Error(), "timeout")

		var appErr *apperrors.AppError
		require.True(suite.T(), errors.As(err, &appErr))
		assert.True(suite.T(), appErr.Retryable())
	})
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
