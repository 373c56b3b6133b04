//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nutriplan/planner/internal/domain/plan"
	"github.com/nutriplan/planner/internal/domain/recipe"
	gormRepo "github.com/nutriplan/planner/internal/infrastructure/persistence/gorm"
	"github.com/nutriplan/planner/internal/infrastructure/persistence/migrations"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/nutriplan/planner/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// PostgresTestSuite runs the repositories against the migrated schema
type PostgresTestSuite struct {
	suite.Suite
	db       *testutils.TestDatabase
	recipes  *gormRepo.RecipeRepository
	plans    *gormRepo.PlanRepository
	users    *gormRepo.UserRepository
	ctx      context.Context
	author   uuid.UUID
	reviewer uuid.UUID
}

func (suite *PostgresTestSuite) SetupSuite() {
	if testing.Short() {
		suite.T().Skip("Skipping container tests in short mode")
	}
	suite.db = testutils.SetupTestDatabase(suite.T())
	suite.recipes = gormRepo.NewRecipeRepository(suite.db.GormDB)
	suite.plans = gormRepo.NewPlanRepository(suite.db.GormDB)
	suite.users = gormRepo.NewUserRepository(suite.db.GormDB)
	suite.ctx = context.Background()
}

func (suite *PostgresTestSuite) SetupTest() {
	suite.db.Truncate(suite.T())

	suite.author = uuid.New()
	suite.reviewer = uuid.New()
	require.NoError(suite.T(), suite.users.Create(suite.ctx, testutils.NewProfile(suite.author), "ana@example.com"))
	require.NoError(suite.T(), suite.users.Create(suite.ctx, testutils.NewProfile(suite.reviewer), "revisor@example.com"))
}

func (suite *PostgresTestSuite) storeRecipe(status recipe.Status) *recipe.Recipe {
	r := testutils.NewRecipeBuilder().WithAuthor(suite.author).WithStatus(status).Build()
	require.NoError(suite.T(), suite.recipes.CreateDraft(suite.ctx, r))
	return r
}

func (suite *PostgresTestSuite) TestMigrationStatus() {
	migrator, err := migrations.New(suite.db.DB, testutils.DefaultDatabaseConfig().Database, zap.NewNop())
	require.NoError(suite.T(), err)

	status, err := migrator.Status()
	require.NoError(suite.T(), err)

	available, err := migrations.Available()
	require.NoError(suite.T(), err)
	assert.False(suite.T(), status.Dirty)
	assert.Len(suite.T(), status.Applied, len(available))
	assert.Empty(suite.T(), status.Pending)
}

func (suite *PostgresTestSuite) TestProfileRoundTrip() {
	found, err := suite.users.GetProfile(suite.ctx, suite.author)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), found)
	assert.Equal(suite.T(), suite.author, found.UserID)
	assert.Equal(suite.T(), []string{"cacahuate"}, found.Allergies)

	missing, err := suite.users.GetProfile(suite.ctx, uuid.New())
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), missing)
}

func (suite *PostgresTestSuite) TestApproveWithCascade() {
	// Arrange
	draft := suite.storeRecipe(recipe.StatusDraft)
	rejected := suite.storeRecipe(recipe.StatusRejected)
	approved := suite.storeRecipe(recipe.StatusApproved)

	p := testutils.NewPendingPlan(suite.author, draft.ID(), rejected.ID(), approved.ID())
	require.NoError(suite.T(), suite.plans.Create(suite.ctx, p))

	// Act
	promoted, err := suite.plans.ApproveWithCascade(suite.ctx, p.ID(), suite.reviewer, "ok", p.SuggestedRecipeIDs())

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), promoted)

	found, err := suite.plans.FindByID(suite.ctx, p.ID())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), plan.StatusApproved, found.Status())
	assert.Equal(suite.T(), []uuid.UUID{draft.ID(), rejected.ID(), approved.ID()}, found.SuggestedRecipeIDs())

	got, err := suite.recipes.FindByIDs(suite.ctx, []uuid.UUID{draft.ID(), rejected.ID()})
	require.NoError(suite.T(), err)
	statuses := map[uuid.UUID]recipe.Status{}
	for _, r := range got {
		statuses[r.ID()] = r.Status()
	}
	assert.Equal(suite.T(), recipe.StatusApproved, statuses[draft.ID()])
	assert.Equal(suite.T(), recipe.StatusRejected, statuses[rejected.ID()])

	_, err = suite.plans.ApproveWithCascade(suite.ctx, p.ID(), suite.reviewer, "again", p.SuggestedRecipeIDs())
	assert.ErrorIs(suite.T(), err, plan.ErrInvalidStatusTransition)
}

func (suite *PostgresTestSuite) TestListByStatus() {
	suite.storeRecipe(recipe.StatusDraft)
	suite.storeRecipe(recipe.StatusPending)
	suite.storeRecipe(recipe.StatusApproved)

	items, total, err := suite.recipes.ListByStatus(suite.ctx, outbound.RecipeFilter{
		Statuses: []recipe.Status{recipe.StatusDraft, recipe.StatusPending},
		Limit:    10,
	})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), total)
	assert.Len(suite.T(), items, 2)
}

func TestPostgresTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresTestSuite))
}
