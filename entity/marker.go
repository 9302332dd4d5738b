package entity

// Admission states for a registration entry. Historical data encoded this as
// either a bare unix timestamp or an "excess-{unix}" string; the tagged form
// below is canonical now.
const (
	StatusAdmitted   = "admitted"
	StatusWaitlisted = "excess"
)

// AdmissionMarker records how and when a registration entered the event.
// Time is unix seconds: admission time for admitted entries, enqueue time for
// waitlisted ones. Waitlist order is ascending Time among waitlisted markers.
type AdmissionMarker struct {
	Status string `json:"status" bson:"status"`
	Time   int64  `json:"time" bson:"time"`
}

func Admitted(t int64) AdmissionMarker {
	return AdmissionMarker{Status: StatusAdmitted, Time: t}
}

func Waitlisted(t int64) AdmissionMarker {
	return AdmissionMarker{Status: StatusWaitlisted, Time: t}
}

func (m AdmissionMarker) IsWaitlisted() bool {
	return m.Status == StatusWaitlisted
}
