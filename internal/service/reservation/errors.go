package reservation

// Error carries a machine code alongside the human-readable message so the
// API layer can map failures without string matching.
type Error struct {
	Code    string
	Message string
	Status  int // suggested HTTP status
}

func (e *Error) Error() string { return e.Message }

func validationError(message string) *Error {
	return &Error{Code: "validation", Message: message, Status: 400}
}

func notFoundError(message string) *Error {
	return &Error{Code: "not_found", Message: message, Status: 404}
}

func gatewayError(message string) *Error {
	return &Error{Code: "gateway_failure", Message: message, Status: 400}
}

var (
	ErrSlotConflict  = &Error{Code: "slot_conflict", Message: "slot overlaps an existing booking", Status: 409}
	ErrLockHeld      = &Error{Code: "slot_contended", Message: "slot is being paid for by another booking", Status: 409}
	ErrAlreadyPaid   = &Error{Code: "already_paid", Message: "booking already has a successful payment", Status: 409}
	ErrNotPayable    = &Error{Code: "not_payable", Message: "booking is not pending payment", Status: 409}
	ErrNotCancelable = &Error{Code: "not_cancelable", Message: "booking is already finished or cancelled", Status: 409}
)
