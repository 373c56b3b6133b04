package plan

import "errors"

// Domain errors for plan operations

var (
	ErrPlanNotFound            = errors.New("plan not found")
	ErrPlanAlreadyApproved     = errors.New("plan is already approved")
	ErrPlanAlreadyRejected     = errors.New("plan is already rejected")
	ErrInvalidStatusTransition = errors.New("invalid plan status transition")
	ErrPersonLabelRequired     = errors.New("plan person label is required")
	ErrDanglingRecipeReference = errors.New("meal references a recipe outside the plan's resolved set")
	ErrReviewerRequired        = errors.New("reviewer is required")
)
