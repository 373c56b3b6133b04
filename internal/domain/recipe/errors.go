package recipe

import "errors"

// Domain errors for recipe operations

var (
	ErrTitleRequired           = errors.New("recipe title is required")
	ErrTitleTooLong            = errors.New("recipe title must not exceed 255 characters")
	ErrInvalidServings         = errors.New("servings must be greater than 0")
	ErrInvalidStatus           = errors.New("unknown recipe status")
	ErrInvalidStatusTransition = errors.New("invalid recipe status transition")
	ErrRecipeNotFound          = errors.New("recipe not found")
	ErrReviewerRequired        = errors.New("reviewer is required")
)
