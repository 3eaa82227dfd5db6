package lex

import (
	"errors"

	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	lextypes "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice/types"
	"github.com/aws/smithy-go"
)

const (
	notFoundCode           = "NotFoundException"
	resourceNotFoundCode   = "ResourceNotFoundException"
	conflictCode           = "ConflictException"
	resourceConflictCode   = "ResourceConflictException"
	resourceInUseCode      = "ResourceInUseException"
	preconditionFailedCode = "PreconditionFailedException"
)

// IsNotFound reports whether err means the named resource does not exist
func IsNotFound(err error) bool {
	var notFound *lextypes.NotFoundException
	if errors.As(err, &notFound) {
		return true
	}
	var fnNotFound *lambdatypes.ResourceNotFoundException
	if errors.As(err, &fnNotFound) {
		return true
	}
	return hasErrorCode(err, notFoundCode, resourceNotFoundCode)
}

// IsConflict reports whether err is a conflicting concurrent or duplicate change
func IsConflict(err error) bool {
	var conflict *lextypes.ConflictException
	if errors.As(err, &conflict) {
		return true
	}
	var fnConflict *lambdatypes.ResourceConflictException
	if errors.As(err, &fnConflict) {
		return true
	}
	return hasErrorCode(err, conflictCode, resourceConflictCode)
}

// IsInUse reports whether err means the resource is referenced by another one
func IsInUse(err error) bool {
	var inUse *lextypes.ResourceInUseException
	if errors.As(err, &inUse) {
		return true
	}
	return hasErrorCode(err, resourceInUseCode)
}

// IsPreconditionFailed reports whether err is a checksum mismatch. It needs a
// fresh read to resolve and is never retried.
func IsPreconditionFailed(err error) bool {
	var precondition *lextypes.PreconditionFailedException
	if errors.As(err, &precondition) {
		return true
	}
	return hasErrorCode(err, preconditionFailedCode)
}

// ErrorCode returns the API error code carried by err, if any
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func hasErrorCode(err error, codes ...string) bool {
	code := ErrorCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}
