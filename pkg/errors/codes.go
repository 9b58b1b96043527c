package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeInvalidIdentity  Code = "INVALID_IDENTITY"
	CodeEmptyMessage     Code = "EMPTY_MESSAGE"
	CodePartialSync      Code = "PARTIAL_SYNC"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	CodeNotFound         Code = "NOT_FOUND"
	CodeInvalidState     Code = "INVALID_STATE"
)
