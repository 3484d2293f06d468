// internal/errors/errors.go
package appErrors

import "fmt"

// Code identifies exactly one violated precondition.
type Code string

const (
	CodeUnauthorized              Code = "Unauthorized"
	CodeCampaignNotActive         Code = "CampaignNotActive"
	CodeCampaignStillActive       Code = "CampaignStillActive"
	CodeCampaignEnded             Code = "CampaignEnded"
	CodeCampaignNotEnded          Code = "CampaignNotEnded"
	CodeGoalWasMet                Code = "GoalWasMet"
	CodeGoalNotMet                Code = "GoalNotMet"
	CodeWithdrawalNotAllowed      Code = "WithdrawalNotAllowed"
	CodeRefundAlreadyClaimed      Code = "RefundAlreadyClaimed"
	CodeNoContribution            Code = "NoContribution"
	CodeMilestoneAlreadyCompleted Code = "MilestoneAlreadyCompleted"
	CodeMilestoneTargetNotReached Code = "MilestoneTargetNotReached"
	CodeMaxMilestonesReached      Code = "MaxMilestonesReached"
	CodeTitleTooLong              Code = "TitleTooLong"
	CodeDescriptionTooLong        Code = "DescriptionTooLong"
	CodeUrlTooLong                Code = "UrlTooLong"
	CodeMilestoneTitleTooLong     Code = "MilestoneTitleTooLong"
	CodeInvalidFundingGoal        Code = "InvalidFundingGoal"
	CodeInvalidContributionAmount Code = "InvalidContributionAmount"
	CodeInvalidDuration           Code = "InvalidDuration"
	CodeArithmeticOverflow        Code = "ArithmeticOverflow"
	CodeInsufficientFunds         Code = "InsufficientFunds"
	CodeInvalidMint               Code = "InvalidMint"
	CodeInvalidTokenAccount       Code = "InvalidTokenAccount"

	CodeInvalidCategory           Code = "InvalidCategory"
	CodeCounterNotInitialized     Code = "CounterNotInitialized"
	CodeCounterAlreadyInitialized Code = "CounterAlreadyInitialized"
	CodeAddressMismatch           Code = "AddressMismatch"
	CodeCampaignNotFound          Code = "CampaignNotFound"
	CodeMilestoneNotFound         Code = "MilestoneNotFound"
)

// Error is a precondition failure. Two errors match under errors.Is when
// their codes are equal, so callers compare against the sentinels below.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

var (
	ErrUnauthorized              = newError(CodeUnauthorized, "you are not authorized to perform this action")
	ErrCampaignNotActive         = newError(CodeCampaignNotActive, "campaign is not active")
	ErrCampaignStillActive       = newError(CodeCampaignStillActive, "campaign is still active")
	ErrCampaignEnded             = newError(CodeCampaignEnded, "campaign has ended")
	ErrCampaignNotEnded          = newError(CodeCampaignNotEnded, "campaign has not ended yet")
	ErrGoalWasMet                = newError(CodeGoalWasMet, "funding goal was already met")
	ErrGoalNotMet                = newError(CodeGoalNotMet, "funding goal was not met")
	ErrWithdrawalNotAllowed      = newError(CodeWithdrawalNotAllowed, "withdrawal is not allowed at this time")
	ErrRefundAlreadyClaimed      = newError(CodeRefundAlreadyClaimed, "refund has already been claimed")
	ErrNoContribution            = newError(CodeNoContribution, "no contribution found to refund")
	ErrMilestoneAlreadyCompleted = newError(CodeMilestoneAlreadyCompleted, "milestone has already been completed")
	ErrMilestoneTargetNotReached = newError(CodeMilestoneTargetNotReached, "milestone target amount has not been reached")
	ErrMaxMilestonesReached      = newError(CodeMaxMilestonesReached, "maximum number of milestones (10) reached")
	ErrTitleTooLong              = newError(CodeTitleTooLong, "title exceeds maximum length of 80 characters")
	ErrDescriptionTooLong        = newError(CodeDescriptionTooLong, "description exceeds maximum length of 200 characters")
	ErrUrlTooLong                = newError(CodeUrlTooLong, "URL exceeds maximum length of 200 characters")
	ErrMilestoneTitleTooLong     = newError(CodeMilestoneTitleTooLong, "milestone title exceeds maximum length of 100 characters")
	ErrInvalidFundingGoal        = newError(CodeInvalidFundingGoal, "funding goal must be greater than zero")
	ErrInvalidContributionAmount = newError(CodeInvalidContributionAmount, "contribution amount must be greater than zero")
	ErrInvalidDuration           = newError(CodeInvalidDuration, "campaign duration must be between 1 and 90 days")
	ErrArithmeticOverflow        = newError(CodeArithmeticOverflow, "arithmetic overflow occurred")
	ErrInsufficientFunds         = newError(CodeInsufficientFunds, "insufficient funds in campaign account")
	ErrInvalidMint               = newError(CodeInvalidMint, "invalid token mint address")
	ErrInvalidTokenAccount       = newError(CodeInvalidTokenAccount, "invalid token account")

	ErrInvalidCategory           = newError(CodeInvalidCategory, "unknown campaign category")
	ErrCounterNotInitialized     = newError(CodeCounterNotInitialized, "campaign counter has not been initialized")
	ErrCounterAlreadyInitialized = newError(CodeCounterAlreadyInitialized, "campaign counter is already initialized")
	ErrAddressMismatch           = newError(CodeAddressMismatch, "stored record does not match its derived address")
)

// ErrCampaignNotFound is returned when no campaign carries the requested id.
type ErrCampaignNotFound struct {
	CampaignID uint64
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id uint64) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrMilestoneNotFound is returned when a campaign has no milestone at Index.
type ErrMilestoneNotFound struct {
	CampaignID uint64
	Index      uint8
}

func (e *ErrMilestoneNotFound) Error() string {
	return fmt.Sprintf("milestone %d of campaign %d not found", e.Index, e.CampaignID)
}

func NewMilestoneNotFound(campaignID uint64, index uint8) error {
	return &ErrMilestoneNotFound{CampaignID: campaignID, Index: index}
}

// CodeOf reports the taxonomy code carried by err, or "" for infrastructure
// failures.
func CodeOf(err error) Code {
	switch e := err.(type) {
	case nil:
		return ""
	case *Error:
		return e.Code
	case *ErrCampaignNotFound:
		return CodeCampaignNotFound
	case *ErrMilestoneNotFound:
		return CodeMilestoneNotFound
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return CodeOf(u.Unwrap())
	}
	return ""
}

// HTTPStatus maps a code to the status the API answers with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeTitleTooLong, CodeDescriptionTooLong, CodeUrlTooLong, CodeMilestoneTitleTooLong,
		CodeInvalidFundingGoal, CodeInvalidContributionAmount, CodeInvalidDuration,
		CodeInvalidCategory, CodeInvalidMint, CodeInvalidTokenAccount:
		return 400
	case CodeUnauthorized:
		return 403
	case CodeCampaignNotFound, CodeMilestoneNotFound:
		return 404
	case CodeCampaignNotActive, CodeCampaignStillActive, CodeCampaignEnded, CodeCampaignNotEnded,
		CodeGoalWasMet, CodeGoalNotMet, CodeWithdrawalNotAllowed, CodeRefundAlreadyClaimed,
		CodeNoContribution, CodeMilestoneAlreadyCompleted, CodeMilestoneTargetNotReached,
		CodeMaxMilestonesReached, CodeCounterNotInitialized, CodeCounterAlreadyInitialized:
		return 409
	case CodeArithmeticOverflow, CodeInsufficientFunds:
		return 422
	}
	return 500
}
