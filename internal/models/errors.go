package models

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrNotFound = status.Errorf(codes.NotFound, "not found")

// tag store
var (
	ErrChatNotFound     = status.Error(codes.NotFound, "chat doesn't have any tags")
	ErrTagOutOfRange    = status.Error(codes.OutOfRange, "tag number out of range")
	ErrInvalidTagNumber = status.Error(codes.InvalidArgument, "tag number is not valid")
	ErrNotTagOwner      = status.Error(codes.PermissionDenied, "tag belongs to another user")
	ErrRateLimited      = status.Error(codes.ResourceExhausted, "user is submitting tags too rapidly")
)

// runtime
var (
	ErrConfig    = status.Error(codes.FailedPrecondition, "invalid configuration")
	ErrTransport = status.Error(codes.Unavailable, "transport failure")
)
