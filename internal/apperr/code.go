package apperr

import "errors"

// Generic errors (100xxx).
const (
	ErrUnknown int = iota + 100000
	ErrInvalidInput
	ErrMissingAssociation
	ErrConcurrentUpdate
)

// Store errors (101xxx).
const (
	ErrStore int = iota + 101000
	ErrTransaction
)

// Manager and hostel errors (102xxx).
const (
	ErrManagerNotFound int = iota + 102000
	ErrManagerExists
	ErrHostelNotFound
	ErrHostelCapacityMissing
)

// Room errors (103xxx).
const (
	ErrRoomNotFound int = iota + 103000
	ErrRoomExists
	ErrRoomFull
)

// Resident errors (104xxx).
const (
	ErrResidentNotFound int = iota + 104000
	ErrExtraNotFound
)

// Expense errors (105xxx).
const (
	ErrExpenseNotFound int = iota + 105000
)

// Notification errors (106xxx).
const (
	ErrNotify int = iota + 106000
	ErrNoRecipient
)

var messages = map[int]string{
	ErrUnknown:               "Something went wrong.",
	ErrInvalidInput:          "Invalid input.",
	ErrMissingAssociation:    "Your account is not linked to a hostel.",
	ErrConcurrentUpdate:      "Record was changed by someone else, try again.",
	ErrStore:                 "Operation failed, please try again later.",
	ErrTransaction:           "Operation failed, please try again later.",
	ErrManagerNotFound:       "Manager not found.",
	ErrManagerExists:         "Manager already exists.",
	ErrHostelNotFound:        "Hostel not found.",
	ErrHostelCapacityMissing: "Hostel capacity document not found.",
	ErrRoomNotFound:          "Room not found.",
	ErrRoomExists:            "Room already exists.",
	ErrRoomFull:              "Room is already full.",
	ErrResidentNotFound:      "Resident not found.",
	ErrExtraNotFound:         "Extra charge not found.",
	ErrExpenseNotFound:       "Expense not found.",
	ErrNotify:                "Message could not be delivered.",
	ErrNoRecipient:           "Nobody to notify.",
}

// UserMessage returns the text shown to a user for err. Validation errors
// carry their own detail.
func UserMessage(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return messages[ErrStore]
	}
	if ae.Kind == KindValidation && ae.Msg != "" {
		return ae.Msg
	}
	if m, ok := messages[ae.Code]; ok {
		return m
	}
	if ae.Msg != "" {
		return ae.Msg
	}
	return messages[ErrUnknown]
}
