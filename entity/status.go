package entity

// Status is a named non-error outcome of a core operation. A nil *Status
// means success; anything else carries the code rendered to the caller.
// Infrastructure faults travel as errors, never as statuses.
type Status struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Status) Error() string { return s.Code }

// HTTPStatus maps a status code onto the closest HTTP status for the JSON
// surface. EVENT_FULL is deliberately a 200: the registration succeeded, just
// onto the waitlist.
func (s *Status) HTTPStatus() int {
	switch s.Code {
	case "NOT_FOUND":
		return 404
	case "FORBIDDEN", "REGIS_OWNER", "EVENT_OWNER":
		return 403
	case "EVENT_FULL":
		return 200
	case "REGIS_ALR", "DUPLICATE_EVENT", "REP_NAME_TAKEN":
		return 409
	default:
		return 400
	}
}

// Validation failures.
var (
	StatusMissingName = &Status{"MISSING_NAME", "Please enter an event name."}
	StatusMissingDate = &Status{"MISSING_DATE", "Please enter an event date."}
	StatusNameTooLong = &Status{"NAME_TOO_LONG", "Event name can only be 32 characters."}
	StatusNameInvalid = &Status{"NAME_INVALID_AFTER_SANITIZATION", "Please enter a valid event name."}
	StatusTimeOrder   = &Status{"TIME_ORDER_INVALID", "Please enter a start time before the end time."}
	StatusDateInPast  = &Status{"DATE_IN_PAST", "Please enter a date and time in the future."}
	StatusMissingTz   = &Status{"TIMEZONE_INVALID", "Please select a valid timezone."}
	StatusBadFields   = &Status{"MISSING_FIELDS", "Please fill out all required fields."}
)

// Conflicts.
var (
	StatusDuplicateEvent = &Status{"DUPLICATE_EVENT", "An event with that name and date already exists."}
	StatusRepNameTaken   = &Status{"REP_NAME_TAKEN", "Your representing name is already taken. Please choose another."}
	StatusAlreadyRegis   = &Status{"REGIS_ALR", "You are already registered for this event."}
)

// Authorization rejections.
var (
	StatusRegisOwner = &Status{"REGIS_OWNER", "The event owner cannot register for their own event."}
	StatusEventOwner = &Status{"EVENT_OWNER", "The event owner cannot check in to their own event."}
	StatusForbidden  = &Status{"FORBIDDEN", "Only the event owner may perform this action."}
	StatusNotFound   = &Status{"NOT_FOUND", "Requested resource not found."}
)

// State and timing.
var (
	StatusRegisDisabled = &Status{"REGIS_DISABLED", "Registration for this event has been disabled by the event owner."}
	StatusAutoClosed    = &Status{"EVENT_AUTO_CLOSED", "This event has already ended. Registration has been automatically disabled."}
	StatusNotRunning    = &Status{"EVENT_NOT_RUNNING", "We are unable to check you in as the event is not running."}
	StatusCiDisabled    = &Status{"CI_DISABLED", "Check-in for this event has been disabled by the event owner."}
	StatusCiInvalid     = &Status{"CI_INVALID", "You have provided insufficient or invalid check-in data."}
	StatusNoAffil       = &Status{"NO_AFFIL", "This account has not registered for this event."}
	StatusQrGenFail     = &Status{"QR_GEN_FAIL", "Unable to generate QR codes for an event that has ended."}
	StatusRegisNotFound = &Status{"REGIS_NF", "You are not registered for this event."}
	StatusRegisFail     = &Status{"REGIS_FAIL", "Unable to unregister you from this event."}
)

// Capacity: the registration is recorded, in waitlisted state.
var StatusEventFull = &Status{"EVENT_FULL", "This event has reached maximum capacity for team registrations. You have been placed on the waitlist."}
