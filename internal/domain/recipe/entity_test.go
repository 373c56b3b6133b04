package recipe

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeTestSuite exercises the recipe aggregate
type RecipeTestSuite struct {
	suite.Suite
	authorID   uuid.UUID
	reviewerID uuid.UUID
}

func (suite *RecipeTestSuite) SetupTest() {
	suite.authorID = uuid.New()
	suite.reviewerID = uuid.New()
}

func (suite *RecipeTestSuite) newDraft() *Recipe {
	r, err := NewDraft(Fields{Title: "Avocado Toast", Kcal: 320}, SourceMachine, suite.authorID)
	require.NoError(suite.T(), err)
	r.PullEvents()
	return r
}

func (suite *RecipeTestSuite) TestNewDraft() {
	suite.Run("ValidFields_ShouldCreateDraft", func() {
		// Arrange
		fields := Fields{Title: "Avocado Toast", Kcal: 320}

		// Act
		r, err := NewDraft(fields, SourceMachine, suite.authorID)

		// Assert
		require.NoError(suite.T(), err)
		assert.NotEqual(suite.T(), uuid.Nil, r.ID())
		assert.Equal(suite.T(), "Avocado Toast", r.Title())
		assert.Equal(suite.T(), StatusDraft, r.Status())
		assert.Equal(suite.T(), SourceMachine, r.Source())
		assert.Equal(suite.T(), suite.authorID, r.AuthorID())
		assert.Equal(suite.T(), 1, r.Fields().Servings)

		events := r.PullEvents()
		require.Len(suite.T(), events, 1)
		drafted, ok := events[0].(RecipeDraftedEvent)
		require.True(suite.T(), ok)
		assert.Equal(suite.T(), r.ID(), drafted.RecipeID)
		assert.Empty(suite.T(), r.PullEvents(), "events are drained")
	})

	suite.Run("BlankTitle_ShouldFail", func() {
		r, err := NewDraft(Fields{Title: "   "}, SourceMachine, suite.authorID)
		assert.ErrorIs(suite.T(), err, ErrTitleRequired)
		assert.Nil(suite.T(), r)
	})

	suite.Run("NegativeServings_ShouldFail", func() {
		_, err := NewDraft(Fields{Title: "Soup", Servings: -1}, SourceHuman, suite.authorID)
		assert.ErrorIs(suite.T(), err, ErrInvalidServings)
	})
}

func (suite *RecipeTestSuite) TestStateMachine() {
	suite.Run("DraftToPendingToApproved", func() {
		r := suite.newDraft()

		require.NoError(suite.T(), r.Submit())
		assert.Equal(suite.T(), StatusPending, r.Status())

		require.NoError(suite.T(), r.Approve(suite.reviewerID, "ok"))
		assert.Equal(suite.T(), StatusApproved, r.Status())
		require.NotNil(suite.T(), r.ReviewerID())
		assert.Equal(suite.T(), suite.reviewerID, *r.ReviewerID())
		assert.Equal(suite.T(), "ok", r.ReviewerNotes())
	})

	suite.Run("DraftDirectlyRejected", func() {
		r := suite.newDraft()

		require.NoError(suite.T(), r.Reject(suite.reviewerID, "too salty"))
		assert.Equal(suite.T(), StatusRejected, r.Status())

		events := r.PullEvents()
		require.Len(suite.T(), events, 1)
		reviewed := events[0].(RecipeReviewedEvent)
		assert.Equal(suite.T(), StatusDraft, reviewed.From)
		assert.Equal(suite.T(), StatusRejected, reviewed.To)
	})

	suite.Run("TerminalStatusesRefuseTransitions", func() {
		r := suite.newDraft()
		require.NoError(suite.T(), r.Approve(suite.reviewerID, ""))

		assert.ErrorIs(suite.T(), r.Approve(suite.reviewerID, ""), ErrInvalidStatusTransition)
		assert.ErrorIs(suite.T(), r.Reject(suite.reviewerID, ""), ErrInvalidStatusTransition)
		assert.ErrorIs(suite.T(), r.Submit(), ErrInvalidStatusTransition)
	})

	suite.Run("PendingCannotBeResubmitted", func() {
		r := suite.newDraft()
		require.NoError(suite.T(), r.Submit())
		assert.ErrorIs(suite.T(), r.Submit(), ErrInvalidStatusTransition)
	})

	suite.Run("ReviewerRequired", func() {
		r := suite.newDraft()
		assert.ErrorIs(suite.T(), r.Approve(uuid.Nil, ""), ErrReviewerRequired)
		assert.Equal(suite.T(), StatusDraft, r.Status())
	})
}

func (suite *RecipeTestSuite) TestSnapshotRoundTrip() {
	r := suite.newDraft()
	require.NoError(suite.T(), r.Approve(suite.reviewerID, "fine"))

	restored := Restore(r.Snapshot())

	assert.Equal(suite.T(), r.ID(), restored.ID())
	assert.Equal(suite.T(), r.Status(), restored.Status())
	assert.Equal(suite.T(), r.ReviewerNotes(), restored.ReviewerNotes())
	assert.Empty(suite.T(), restored.PullEvents())
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, StatusDraft.IsReviewable())
	assert.True(t, StatusPending.IsReviewable())
	assert.False(t, StatusApproved.IsReviewable())
	assert.False(t, StatusRejected.IsReviewable())
	assert.False(t, Status("archived").IsValid())
	assert.ElementsMatch(t, []Status{StatusDraft, StatusPending}, ReviewableStatuses())
}
