package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/application/ai"
	"github.com/nutriplan/planner/internal/application/prompt"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/profile"
	"github.com/nutriplan/planner/internal/domain/recipe"
	"github.com/nutriplan/planner/internal/ports/inbound"
	apperrors "github.com/nutriplan/planner/pkg/errors"
	"github.com/nutriplan/planner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type stubModel struct {
	text    string
	err     error
	prompts []string
}

func (m *stubModel) Invoke(ctx context.Context, prompt string, cfg ai.Config) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.text, m.err
}

// ServiceTestSuite drives the generation pipeline end to end over mocks
type ServiceTestSuite struct {
	suite.Suite
	profiles  *testutils.MockProfileSupplier
	catalog   *testutils.MockRecipeCatalog
	plans     *testutils.MockPlanRepository
	cache     *testutils.MockSampleCache
	model     *stubModel
	publisher *testutils.RecordingPublisher
	service   *Service
	userID    uuid.UUID
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.profiles = new(testutils.MockProfileSupplier)
	suite.catalog = new(testutils.MockRecipeCatalog)
	suite.plans = new(testutils.MockPlanRepository)
	suite.cache = new(testutils.MockSampleCache)
	suite.model = &stubModel{}
	suite.publisher = &testutils.RecordingPublisher{}
	suite.userID = uuid.New()

	suite.service = NewService(
		suite.profiles,
		suite.catalog,
		suite.plans,
		suite.cache,
		suite.model,
		prompt.NewCompiler(),
		suite.publisher,
		testutils.NopMetrics{},
		Options{},
		zap.NewNop(),
	)
}

// expectInputs stubs a known profile and a cache miss served by the catalog
func (suite *ServiceTestSuite) expectInputs(sample ...*recipe.Recipe) {
	suite.profiles.On("GetProfile", mock.Anything, suite.userID).Return(testutils.NewProfile(suite.userID), nil).Once()
	suite.cache.On("GetSample", mock.Anything, prompt.MaxSample).Return(nil, false, nil).Once()
	suite.catalog.On("FindApprovedSample", mock.Anything, prompt.MaxSample).Return(sample, nil).Once()
	suite.cache.On("SetSample", mock.Anything, prompt.MaxSample, mock.Anything).Return(nil).Once()
}

func (suite *ServiceTestSuite) TestGeneratePlan() {
	suite.Run("Success_ShouldResolveAndStore", func() {
		// Arrange
		suite.SetupTest()
		soup := testutils.NewRecipeBuilder().WithTitle("Lentil Soup").Build()
		suite.expectInputs(soup)
		suite.model.text = "Aquí tienes:\n" + testutils.ModelPlanJSON("Ana",
			[]testutils.ModelMeal{
				{Type: "Desayuno", Calories: 350, Dish: "Sopa Inventada"},
				{Type: "Almuerzo", Calories: 700, Dish: "Lentil Soup"},
				{Type: "Cena", Calories: 600, Dish: testutils.InlineDish("Tacos de frijol", "frijol")},
			},
			[]testutils.ModelMeal{
				{Type: "Cena", Calories: 550, Dish: "Lentil Soup"},
				{Type: "Merienda", Calories: 150, Dish: nil},
			},
		)
		suite.catalog.On("FindByTitles", mock.Anything, []string{"Sopa Inventada", "Lentil Soup", "Tacos de frijol"}).
			Return([]*recipe.Recipe{soup}, nil).Once()
		suite.catalog.On("CreateDraft", mock.Anything, mock.AnythingOfType("*recipe.Recipe")).Return(nil).Once()

		var stored *plan.Plan
		suite.plans.On("Create", mock.Anything, mock.AnythingOfType("*plan.Plan")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*plan.Plan) }).
			Return(nil).Once()
		suite.catalog.On("FindByIDs", mock.Anything, mock.Anything).Return([]*recipe.Recipe{soup}, nil).Once()

		// Act
		dto, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{
			UserID:      suite.userID,
			Preferences: map[string]any{"sin": "picante"},
		})

		// Assert
		require.NoError(suite.T(), err)
		require.NotNil(suite.T(), stored)
		require.Len(suite.T(), suite.catalog.Created, 1)
		draft := suite.catalog.Created[0]

		assert.Equal(suite.T(), stored.ID(), dto.ID)
		assert.Equal(suite.T(), plan.StatusPendingReview, dto.Status)
		assert.Equal(suite.T(), "Ana", dto.PersonLabel)
		assert.Equal(suite.T(), []uuid.UUID{soup.ID(), draft.ID()}, dto.SuggestedRecipeIDs)
		require.Len(suite.T(), dto.SuggestedRecipes, 2)
		assert.Equal(suite.T(), "Lentil Soup", dto.SuggestedRecipes[0].Title)
		assert.Nil(suite.T(), dto.SuggestedRecipes[1])

		day1 := dto.Days[0].Meals
		assert.Nil(suite.T(), day1[0].RecipeID)
		assert.Equal(suite.T(), "Sopa Inventada", day1[0].RecipeTitle)
		assert.Equal(suite.T(), soup.ID(), *day1[1].RecipeID)
		assert.Equal(suite.T(), draft.ID(), *day1[2].RecipeID)
		assert.NotNil(suite.T(), day1[2].Inline)
		assert.Empty(suite.T(), dto.Days[1].Meals[1].RecipeTitle)

		require.Len(suite.T(), suite.model.prompts, 1)
		assert.Contains(suite.T(), suite.model.prompts[0], `"title":"Lentil Soup"`)
		assert.Contains(suite.T(), suite.model.prompts[0], "picante")
		assert.Equal(suite.T(), []string{"recipe.drafted", "plan.generated"}, suite.publisher.Names())
	})

	suite.Run("CachedSample_ShouldSkipCatalog", func() {
		// Arrange
		suite.SetupTest()
		suite.profiles.On("GetProfile", mock.Anything, suite.userID).Return(testutils.NewProfile(suite.userID), nil).Once()
		suite.cache.On("GetSample", mock.Anything, prompt.MaxSample).
			Return([]recipe.Summary{{ID: uuid.New(), Title: "Ensalada Cacheada", Kcal: 200}}, true, nil).Once()
		suite.model.text = testutils.ModelPlanJSON("Ana")
		suite.plans.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		// Act
		dto, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{UserID: suite.userID})

		// Assert
		require.NoError(suite.T(), err)
		assert.Empty(suite.T(), dto.Days)
		assert.Equal(suite.T(), []*recipe.Summary{}, dto.SuggestedRecipes)
		assert.Contains(suite.T(), suite.model.prompts[0], "Ensalada Cacheada")
		suite.catalog.AssertNotCalled(suite.T(), "FindApprovedSample", mock.Anything, mock.Anything)
		suite.catalog.AssertNotCalled(suite.T(), "FindByIDs", mock.Anything, mock.Anything)
	})

	suite.Run("CacheFailure_ShouldFallBackToCatalog", func() {
		// Arrange
		suite.SetupTest()
		suite.profiles.On("GetProfile", mock.Anything, suite.userID).Return(testutils.NewProfile(suite.userID), nil).Once()
		suite.cache.On("GetSample", mock.Anything, prompt.MaxSample).Return(nil, false, errors.New("redis down")).Once()
		suite.catalog.On("FindApprovedSample", mock.Anything, prompt.MaxSample).Return([]*recipe.Recipe{}, nil).Once()
		suite.cache.On("SetSample", mock.Anything, prompt.MaxSample, mock.Anything).Return(errors.New("redis down")).Once()
		suite.model.text = testutils.ModelPlanJSON("Ana")
		suite.plans.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		// Act
		_, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{UserID: suite.userID})

		// Assert
		require.NoError(suite.T(), err)
		suite.catalog.AssertExpectations(suite.T())
	})

	suite.Run("UnparsableAnswer_ShouldStoreNothing", func() {
		// Arrange
		suite.SetupTest()
		suite.expectInputs()
		suite.model.text = "Lo siento, hoy no."

		// Act
		dto, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{UserID: suite.userID})

		// Assert
		assert.Nil(suite.T(), dto)
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeUnparsableModelOutput))
		suite.catalog.AssertNotCalled(suite.T(), "CreateDraft", mock.Anything, mock.Anything)
		suite.plans.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
		assert.Empty(suite.T(), suite.publisher.Events)
	})

	suite.Run("SchemaMismatch_ShouldStoreNothing", func() {
		// Arrange
		suite.SetupTest()
		suite.expectInputs()
		suite.model.text = `{"nombre_persona": "Ana", "dias": "ninguno"}`

		// Act
		_, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{UserID: suite.userID})

		// Assert
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeSchemaMismatch))
		suite.plans.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
	})

	suite.Run("ModelFailure_ShouldPassThrough", func() {
		// Arrange
		suite.SetupTest()
		suite.expectInputs()
		suite.model.err = apperrors.NewModelUnavailableError("gemini", errors.New("timeout"))

		// Act
		_, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{UserID: suite.userID})

		// Assert
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeModelUnavailable))
	})

	suite.Run("UnknownProfile_ShouldBeNotFound", func() {
		// Arrange
		suite.SetupTest()
		suite.profiles.On("GetProfile", mock.Anything, suite.userID).Return(nil, profile.ErrProfileNotFound).Once()
		suite.cache.On("GetSample", mock.Anything, mock.Anything).Return(nil, false, nil).Maybe()
		suite.catalog.On("FindApprovedSample", mock.Anything, mock.Anything).Return([]*recipe.Recipe{}, nil).Maybe()
		suite.cache.On("SetSample", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

		// Act
		_, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{UserID: suite.userID})

		// Assert
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeNotFound))
		assert.Empty(suite.T(), suite.model.prompts)
	})

	suite.Run("MissingUser_ShouldFailValidation", func() {
		// Arrange
		suite.SetupTest()

		// Act
		_, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{})

		// Assert
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))
	})

	suite.Run("StoreFailure_ShouldBePersistenceFailure", func() {
		// Arrange
		suite.SetupTest()
		suite.expectInputs()
		suite.model.text = testutils.ModelPlanJSON("Ana")
		suite.plans.On("Create", mock.Anything, mock.Anything).Return(errors.New("deadlock")).Once()

		// Act
		_, err := suite.service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{UserID: suite.userID})

		// Assert
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodePersistenceFailure))
		assert.Empty(suite.T(), suite.publisher.Events)
	})
}

func (suite *ServiceTestSuite) TestGeneratePlan_WithoutMetrics() {
	// Arrange
	service := NewService(
		suite.profiles,
		suite.catalog,
		suite.plans,
		suite.cache,
		suite.model,
		prompt.NewCompiler(),
		suite.publisher,
		nil,
		Options{},
		zap.NewNop(),
	)
	soup := testutils.NewRecipeBuilder().WithTitle("Lentil Soup").Build()
	suite.expectInputs(soup)
	suite.model.text = testutils.ModelPlanJSON("Ana",
		[]testutils.ModelMeal{{Type: "Cena", Calories: 600, Dish: "Lentil Soup"}},
	)
	suite.catalog.On("FindByTitles", mock.Anything, []string{"Lentil Soup"}).Return([]*recipe.Recipe{soup}, nil).Once()
	suite.plans.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	suite.catalog.On("FindByIDs", mock.Anything, []uuid.UUID{soup.ID()}).Return([]*recipe.Recipe{soup}, nil).Once()

	// Act
	var err error
	assert.NotPanics(suite.T(), func() {
		_, err = service.GeneratePlan(context.Background(), inbound.GeneratePlanCommand{UserID: suite.userID})
	})

	// Assert
	require.NoError(suite.T(), err)
	suite.plans.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestQueries() {
	suite.Run("GetPlan_NotFound", func() {
		// Arrange
		suite.SetupTest()
		id := uuid.New()
		suite.plans.On("FindByID", mock.Anything, id).Return(nil, nil).Once()

		// Act
		_, err := suite.service.GetPlan(context.Background(), id)

		// Assert
		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeNotFound))
	})

	suite.Run("ListAllPlans_ShouldClampPaging", func() {
		// Arrange
		suite.SetupTest()
		suite.plans.On("List", mock.Anything, 0, maxPageLimit).Return([]*plan.Plan{}, int64(0), nil).Once()

		// Act
		list, err := suite.service.ListAllPlans(context.Background(), inbound.PaginationParams{Page: -2, Limit: 5000})

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), 1, list.Page)
		assert.Equal(suite.T(), maxPageLimit, list.Limit)
		assert.Empty(suite.T(), list.Plans)
	})

	suite.Run("ListMyPlans_ShouldExpandWithOneRead", func() {
		// Arrange
		suite.SetupTest()
		shared := testutils.NewRecipeBuilder().Build()
		first := testutils.NewPendingPlan(suite.userID, shared.ID())
		second := testutils.NewPendingPlan(suite.userID, shared.ID())
		suite.plans.On("FindByUser", mock.Anything, suite.userID).Return([]*plan.Plan{second, first}, nil).Once()
		suite.catalog.On("FindByIDs", mock.Anything, []uuid.UUID{shared.ID()}).Return([]*recipe.Recipe{shared}, nil).Once()

		// Act
		plans, err := suite.service.ListMyPlans(context.Background(), suite.userID)

		// Assert
		require.NoError(suite.T(), err)
		require.Len(suite.T(), plans, 2)
		assert.Equal(suite.T(), second.ID(), plans[0].ID)
		assert.Equal(suite.T(), shared.Title(), plans[1].SuggestedRecipes[0].Title)
		suite.catalog.AssertNumberOfCalls(suite.T(), "FindByIDs", 1)
	})
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
