// ABOUTME: Success and failure notices shown after field actions
// ABOUTME: Gives every surface the same toast title and message for an outcome
package fieldops

import (
	"errors"

	"github.com/harperreed/fieldforce/models"
)

// Notice is a toast: a short title with a one-line message.
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Error   bool   `json:"error,omitempty"`
}

var (
	NoticeCheckedIn          = Notice{Title: "Check-in Successful", Message: "You have successfully checked in to the visit location."}
	NoticeVisitCompleted     = Notice{Title: "Visit Completed", Message: "Visit has been successfully completed and logged."}
	NoticeAttendance         = Notice{Title: "Attendance Captured", Message: "Your attendance has been successfully recorded."}
	NoticeTravelStarted      = Notice{Title: "Travel Started", Message: "Your travel has been started and location is being tracked."}
	NoticeLocationPunched    = Notice{Title: "Location Punched", Message: "Your current location has been recorded."}
	NoticeTravelCompleted    = Notice{Title: "Travel Completed", Message: "Your travel has been completed and logged."}
	NoticeFabricatorAssigned = Notice{Title: "Fabricator assigned successfully!", Message: "The fabricator has been saved on the lead."}
)

// ErrorNotice turns an operation error into a toast. Validation errors keep
// their own title; other failures use fallback as the title.
func ErrorNotice(err error, fallback string) Notice {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return Notice{Title: verr.Title, Message: verr.Message, Error: true}
	}
	switch {
	case errors.Is(err, ErrTravelActive):
		return Notice{Title: "Travel In Progress", Message: "Stop the current travel before starting a new one.", Error: true}
	case errors.Is(err, ErrTravelNotActive):
		return Notice{Title: "Travel Not Active", Message: "This travel has already been completed.", Error: true}
	case IsNotFound(err):
		return Notice{Title: "Not Found", Message: "The requested record does not exist.", Error: true}
	}
	return Notice{Title: fallback, Message: err.Error(), Error: true}
}

// IsValidation reports whether err is a form validation failure.
func IsValidation(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr)
}
