package domain

import "time"

// Job is a capacity-bounded role within an event.
type Job struct {
	ID            string
	EventID       string
	Title         string
	Description   string
	MaxVolunteers int
	Subscribed    []Attendance
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FilledCount is the number of volunteers holding the job.
func (j *Job) FilledCount() int {
	return len(j.Subscribed)
}

// TotalCapacity is the maximum number of volunteers the job accepts.
func (j *Job) TotalCapacity() int {
	return j.MaxVolunteers
}

// HasCapacity reports whether one more volunteer fits.
func (j *Job) HasCapacity() bool {
	return j.FilledCount() < j.TotalCapacity()
}

// AttendanceOf returns the volunteer's attendance on this job.
func (j *Job) AttendanceOf(volunteerID string) (*Attendance, bool) {
	for i := range j.Subscribed {
		if j.Subscribed[i].VolunteerID == volunteerID {
			return &j.Subscribed[i], true
		}
	}
	return nil, false
}

// CheckSubscribe validates a subscription against the in-memory ledger of
// an event. The store re-runs the same checks under lock.
func CheckSubscribe(event *Event, jobID, volunteerID string) error {
	if event.Status != EventStatusOpen {
		return ErrEventNotOpen
	}
	job, ok := event.Job(jobID)
	if !ok {
		return ErrJobNotFound
	}
	if _, holder, ok := event.AttendanceOf(volunteerID); ok {
		if holder.ID == job.ID {
			return ErrAlreadySubscribed
		}
		return ErrAlreadySubscribedElsewhere
	}
	if !job.HasCapacity() {
		return ErrCapacityExceeded
	}
	return nil
}

// CheckUnsubscribe validates withdrawing from a job. A checked-in volunteer
// is told so regardless of the event status.
func CheckUnsubscribe(event *Event, jobID, volunteerID string) (*Attendance, error) {
	job, ok := event.Job(jobID)
	if !ok {
		return nil, ErrJobNotFound
	}
	att, ok := job.AttendanceOf(volunteerID)
	if !ok {
		return nil, ErrNotSubscribed
	}
	if att.CheckInAt != nil {
		return nil, ErrAlreadyCheckedIn
	}
	if event.Status != EventStatusOpen {
		return nil, ErrEventNotOpen
	}
	return att, nil
}

// ValidateCapacity checks a capacity edit against the current fill.
func ValidateCapacity(maxVolunteers, filled int) error {
	if maxVolunteers < 1 {
		return ErrInvalidCapacity
	}
	if maxVolunteers < filled {
		return ErrCapacityBelowFilled
	}
	return nil
}
